package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lockstep/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default lockstep.yaml",
		Long: `Write a commented default configuration to the --config path.
An existing file is left untouched.

Example:
  lockstep init
  lockstep init --config ./demo/lockstep.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(rootOpts.ConfigPath); err != nil {
				return WrapExitError(ExitCommandError, "failed to write config", err)
			}
			return rootOpts.formatter(cmd).Success(initResult{Path: rootOpts.ConfigPath})
		},
	}
}

type initResult struct {
	Path string `json:"path"`
}

func (r initResult) String() string {
	return fmt.Sprintf("Config ready at %s", r.Path)
}
