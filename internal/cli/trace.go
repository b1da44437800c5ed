package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	RunID     string
	Algorithm string // optional - filter to one algorithm
}

// TraceStep is a single step in the trace timeline.
type TraceStep struct {
	Tick      int64          `json:"tick"`
	Algorithm ir.AlgorithmID `json:"algorithm"`
	Seq       int64          `json:"seq"`
	Ops       []ir.Op        `json:"ops"`
	Done      bool           `json:"done"`
}

// TraceStats holds per-algorithm counts for the trace.
type TraceStats struct {
	Algorithm ir.AlgorithmID `json:"algorithm"`
	Steps     int            `json:"steps"`
	Compares  int            `json:"compares"`
	Swaps     int            `json:"swaps"`
	Writes    int            `json:"writes"`
	DoneTick  int64          `json:"done_tick"` // 0 if never done
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	RunID    string       `json:"run_id"`
	Seed     string       `json:"seed"`
	Initial  []int        `json:"initial_values"`
	Timeline []TraceStep  `json:"timeline"`
	Stats    []TraceStats `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the step timeline of a recorded run",
		Long: `Print every recorded step of a run, ordered by tick, followed by
per-algorithm statistics.

Example:
  lockstep trace --db ./runs.db --run 0192f1a0-...
  lockstep trace --db ./runs.db --run 0192f1a0-... --algorithm quick -v`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to trace (required)")
	cmd.Flags().StringVar(&opts.Algorithm, "algorithm", "", "only show this algorithm")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("run")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := opts.formatter(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = out.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, opts.RunID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = out.Error(ErrCodeNotFound, fmt.Sprintf("run %s not found", opts.RunID), nil)
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	ids := run.Algorithms
	if opts.Algorithm != "" {
		id, err := ir.ParseAlgorithmID(opts.Algorithm)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --algorithm", err)
		}
		if !slices.Contains(ids, id) {
			return NewExitError(ExitCommandError, fmt.Sprintf("algorithm %s is not part of run %s", id, run.ID))
		}
		ids = []ir.AlgorithmID{id}
	}

	result := TraceResult{
		RunID:    run.ID,
		Seed:     run.Seed,
		Initial:  run.InitialValues,
		Timeline: []TraceStep{},
		Stats:    []TraceStats{},
	}
	for _, id := range ids {
		steps, err := st.ReadSteps(ctx, run.ID, id)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read steps", err)
		}
		result.Stats = append(result.Stats, statsOf(id, steps))
		for _, s := range steps {
			result.Timeline = append(result.Timeline, TraceStep{
				Tick: s.Tick, Algorithm: s.Algorithm, Seq: s.Seq, Ops: s.Ops, Done: s.Done,
			})
		}
	}
	sortTimeline(result.Timeline, run.Algorithms)

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

// sortTimeline orders steps by tick, then by the run's algorithm order.
func sortTimeline(steps []TraceStep, order []ir.AlgorithmID) {
	pos := make(map[ir.AlgorithmID]int, len(order))
	for k, id := range order {
		pos[id] = k
	}
	sort.SliceStable(steps, func(a, b int) bool {
		if steps[a].Tick != steps[b].Tick {
			return steps[a].Tick < steps[b].Tick
		}
		return pos[steps[a].Algorithm] < pos[steps[b].Algorithm]
	})
}

func statsOf(id ir.AlgorithmID, steps []store.StepRecord) TraceStats {
	st := TraceStats{Algorithm: id, Steps: len(steps)}
	for _, s := range steps {
		for _, op := range s.Ops {
			switch op.Kind {
			case ir.OpCompare:
				st.Compares++
			case ir.OpSwap:
				st.Swaps++
			case ir.OpWrite:
				st.Writes++
			}
		}
		if s.Done {
			st.DoneTick = s.Tick
		}
	}
	return st
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintf(w, "Trace for Run: %s\n", result.RunID)
	fmt.Fprintf(w, "Seed: %q (%d values)\n", result.Seed, len(result.Initial))
	if verbose {
		fmt.Fprintf(w, "Initial: %v\n", result.Initial)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no steps)")
	}
	for _, s := range result.Timeline {
		fmt.Fprintf(w, "  [%d] %s#%d %s", s.Tick, s.Algorithm, s.Seq, formatOps(s.Ops))
		if s.Done {
			fmt.Fprint(w, " DONE")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	for _, s := range result.Stats {
		fmt.Fprintf(w, "  %-10s steps=%d compares=%d swaps=%d writes=%d %s\n",
			s.Algorithm, s.Steps, s.Compares, s.Swaps, s.Writes, doneStatus(s.DoneTick))
	}
	return nil
}

func formatOps(ops []ir.Op) string {
	if len(ops) == 0 {
		return "[]"
	}
	parts := make([]string, len(ops))
	for k, op := range ops {
		parts[k] = op.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func doneStatus(tick int64) string {
	if tick == 0 {
		return "incomplete"
	}
	return fmt.Sprintf("done@%d", tick)
}
