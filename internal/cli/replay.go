package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lockstep/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Verify recorded runs by replaying their steps",
		Long: `Replay recorded runs from the database and check each algorithm's log.

A log passes when its seqs are gap-free, it ends with exactly one done
step, replaying its ops yields a sorted permutation of the initial array,
and a fresh engine over the same array reproduces every recorded step.

Without --run every run in the database is verified.

Example:
  lockstep replay --db ./runs.db
  lockstep replay --db ./runs.db --run 0192f1a0-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "verify only this run")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// ReplayResult is the outcome of verifying one or more runs.
type ReplayResult struct {
	Runs   []RunReplay `json:"runs"`
	Passed int         `json:"passed"`
	Failed int         `json:"failed"`
}

// RunReplay is the verification of one run.
type RunReplay struct {
	RunID      string                  `json:"run_id"`
	Seed       string                  `json:"seed"`
	Size       int                     `json:"size"`
	Mode       string                  `json:"mode"`
	Algorithms []store.AlgorithmReplay `json:"algorithms"`
}

// OK reports whether every algorithm of the run passed.
func (r RunReplay) OK() bool {
	for _, a := range r.Algorithms {
		if !a.OK() {
			return false
		}
	}
	return true
}

func (r *ReplayResult) String() string {
	var b strings.Builder
	for _, run := range r.Runs {
		mark := "✓"
		if !run.OK() {
			mark = "✗"
		}
		fmt.Fprintf(&b, "%s %s (seed %q, %d values, %s)\n", mark, run.RunID, run.Seed, run.Size, run.Mode)
		for _, a := range run.Algorithms {
			if a.OK() {
				fmt.Fprintf(&b, "    %-10s %5d steps  %s\n", a.Algorithm, a.Steps, shortHash(a.TraceHash))
			} else {
				fmt.Fprintf(&b, "    %-10s %5d steps  %s\n", a.Algorithm, a.Steps, a.Problem)
			}
		}
	}
	fmt.Fprintf(&b, "\nReplay Summary: %d passed, %d failed, %d total", r.Passed, r.Failed, r.Passed+r.Failed)
	return b.String()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := opts.formatter(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = out.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var runs []store.Run
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				_ = out.Error(ErrCodeNotFound, fmt.Sprintf("run %s not found", opts.RunID), nil)
				return WrapExitError(ExitCommandError, "run not found", err)
			}
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		runs = []store.Run{run}
	} else {
		runs, err = st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	result := &ReplayResult{Runs: []RunReplay{}}
	for _, run := range runs {
		out.VerboseLog("verifying run %s", run.ID)
		reps, err := st.VerifyRun(ctx, run.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to verify run %s", run.ID), err)
		}
		rr := RunReplay{RunID: run.ID, Seed: run.Seed, Size: run.Size, Mode: run.Mode, Algorithms: reps}
		if rr.OK() {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Runs = append(result.Runs, rr)
	}

	if result.Failed > 0 {
		_ = out.Failure(result, ErrCodeReplayFailed, fmt.Sprintf("%d run(s) failed verification", result.Failed))
		return NewExitError(ExitFailure, fmt.Sprintf("%d run(s) failed verification", result.Failed))
	}
	return out.Success(result)
}
