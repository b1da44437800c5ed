package cli

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/lockstep/internal/conductor"
	"github.com/roach88/lockstep/internal/config"
	"github.com/roach88/lockstep/internal/store"
	"github.com/roach88/lockstep/internal/tui"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RunOptions
	LogFile string

	// ProgramOptions are appended to the bubbletea program options (for testing).
	ProgramOptions []tea.ProgramOption
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return newWatchCommand(&WatchOptions{RunOptions: &RunOptions{RootOptions: rootOpts}})
}

func newWatchCommand(opts *WatchOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the sorts race in the terminal",
		Long: `Open the terminal view: one bar chart per algorithm, all stepping on the
same clock. When every algorithm is done a countdown of rotate_after runs,
then a new dataset starts.

Edits to the config file are picked up while the view is open. Flags keep
overriding the reloaded values.

Keys: space pause/resume, + faster, - slower, r new seed, q quit.

Example:
  lockstep watch
  lockstep watch --size 128 --speed 4 --log-file /tmp/lockstep.log`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	addSessionFlags(cmd, opts.RunOptions)
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "lockstep.log", "write logs to this file")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	logFile, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open log file", err)
	}
	defer logFile.Close()
	logger := opts.newLogger(logFile)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	cfg, err = opts.applyFlags(cmd, cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid settings", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	cond, err := conductor.New(conductor.WithSpeed(cfg.Speed), conductor.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create conductor", err)
	}

	modelOpts := []tui.Option{tui.WithLogger(logger)}
	if cfg.Database != "" {
		st, err := store.Open(cfg.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		modelOpts = append(modelOpts, tui.WithStore(st, opts.RunIDs))
	}

	model, err := tui.New(ctx, cfg, cond, modelOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start session", err)
	}
	defer func() {
		if closeErr := model.Close(); closeErr != nil {
			logger.Error("error closing driver", "error", closeErr)
		}
	}()

	programOpts := append([]tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	}, opts.ProgramOptions...)
	program := tea.NewProgram(model, programOpts...)

	ticks := make(chan int64, 1)
	unsubscribe := cond.OnTick(func(n int64) {
		select {
		case ticks <- n:
		default:
		}
	})
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cond.Run(gctx)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case n := <-ticks:
				program.Send(tui.TickMsg(n))
			}
		}
	})
	g.Go(func() error {
		err := config.Watch(gctx, opts.ConfigPath, func(next config.Config, err error) {
			if err == nil {
				next, err = opts.applyFlags(cmd, next)
			}
			program.Send(tui.ConfigMsg{Config: next, Err: err})
		}, config.WithLogger(logger))
		if err == nil || gctx.Err() != nil {
			return err
		}
		// The session runs on without hot reload.
		logger.Warn("config reload disabled", "path", opts.ConfigPath, "error", err)
		program.Send(tui.ConfigMsg{Err: err})
		return nil
	})

	logger.Info("watch starting", "seed", cfg.Seed, "size", cfg.Size, "offload", cfg.Offload)
	_, runErr := program.Run()
	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("background task failed", "error", err)
	}
	logger.Info("watch stopped")

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return WrapExitError(ExitCommandError, "terminal view failed", runErr)
	}
	return nil
}
