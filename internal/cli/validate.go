package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lockstep/internal/harness"
)

// ValidationResult holds validation results for a scenarios directory.
type ValidationResult struct {
	Valid  bool                      `json:"valid"`
	Files  int                       `json:"files"`
	Errors []harness.ValidationError `json:"errors,omitempty"`
}

func (r ValidationResult) String() string {
	if r.Valid {
		return fmt.Sprintf("✓ %d scenario file(s) valid", r.Files)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "✗ %d error(s) in %d scenario file(s)\n", len(r.Errors), r.Files)
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "  %s\n", e.Error())
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <scenarios-dir>",
		Short: "Validate scenario files without running them",
		Long: `Check every scenario file in a directory against the scenario schema,
then against the rules that need more than the schema (known algorithms,
assertions naming algorithms of the scenario).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runValidate(opts *TestOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("scenarios directory not found: %s", dir), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}
	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := ValidationResult{Valid: true, Files: len(files)}
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)
		if errs := harness.ValidateScenarioFile(file); len(errs) > 0 {
			result.Valid = false
			result.Errors = append(result.Errors, errs...)
		}
	}

	if !result.Valid {
		_ = formatter.Failure(result, ErrCodeInvalidSchema, fmt.Sprintf("%d validation error(s)", len(result.Errors)))
		return NewExitError(ExitFailure, "validation failed")
	}
	return formatter.Success(result)
}
