package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lockstep/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool
	Filter string
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult is the outcome of a test invocation.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r TestResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nTest Summary: %d passed, %d failed, %d total", r.Passed, r.Failed, r.Total)
	if r.Failed == 0 {
		b.WriteString("\n✓ All scenarios passed")
	}
	return b.String()
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario files against the engines",
		Long: `Run every scenario file in a directory and check its assertions. A
scenario with a golden file at golden/<name>.golden must also reproduce that
step trace exactly.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  lockstep test ./scenarios
  lockstep test ./scenarios --filter "bubble*"
  lockstep test ./scenarios --update
  lockstep test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files from the current traces")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose name matches this glob")

	return cmd
}

func runTests(cmd *cobra.Command, opts *TestOptions, dir string) error {
	out := opts.formatter(cmd)

	files, err := findScenarioFiles(dir, opts.Filter)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	case err != nil:
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := TestResult{Scenarios: []ScenarioResult{}, Total: len(files)}
	if len(files) == 0 && out.Format != "json" {
		fmt.Fprintln(out.Writer, "No scenarios found.")
		return nil
	}

	for _, file := range files {
		sr := runScenario(file, opts.Update)
		if out.Format != "json" {
			printScenarioResult(out.Writer, sr, opts.Update)
		}
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if result.Failed == 0 {
		return out.Success(result)
	}
	msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
	if err := out.Failure(result, ErrCodeTestFailed, msg); err != nil {
		return err
	}
	return NewExitError(ExitFailure, msg)
}

// findScenarioFiles lists the .yaml and .yml files directly in dir whose
// base name matches filter. golden/ and other subdirectories are skipped.
func findScenarioFiles(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		if filter != "" {
			ok, err := filepath.Match(filter, strings.TrimSuffix(e.Name(), ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !ok {
				continue
			}
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

func runScenario(file string, update bool) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return failed(filepath.Base(file), fmt.Sprintf("failed to load scenario: %v", err))
	}
	result, err := harness.Run(scenario)
	if err != nil {
		return failed(scenario.Name, fmt.Sprintf("execution failed: %v", err))
	}
	snapshot, err := harness.SnapshotJSON(scenario.Name, result)
	if err != nil {
		return failed(scenario.Name, fmt.Sprintf("failed to snapshot trace: %v", err))
	}
	if msg := checkGolden(goldenFilePath(file), snapshot, update); msg != "" {
		return failed(scenario.Name, msg)
	}
	if !result.Pass {
		return failed(scenario.Name, result.Errors...)
	}
	return ScenarioResult{Name: scenario.Name, Pass: true}
}

func failed(name string, errs ...string) ScenarioResult {
	return ScenarioResult{Name: name, Errors: errs}
}

// checkGolden compares snapshot with the golden file at path, or rewrites
// the file when update is set. A missing golden file is not a failure.
func checkGolden(path string, snapshot []byte, update bool) string {
	if update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Sprintf("failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(path, snapshot, 0o644); err != nil {
			return fmt.Sprintf("failed to update golden file: %v", err)
		}
		return ""
	}
	golden, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ""
	case err != nil:
		return fmt.Sprintf("failed to read golden file: %v", err)
	case !bytes.Equal(golden, snapshot):
		return "trace does not match golden file (run with --update to regenerate)"
	}
	return ""
}

// goldenFilePath maps dir/name.yaml to dir/golden/name.golden.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

func printScenarioResult(w io.Writer, sr ScenarioResult, updated bool) {
	switch {
	case !sr.Pass:
		fmt.Fprintf(w, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(e, "\n", "\n  "))
		}
	case updated:
		fmt.Fprintf(w, "✓ %s (golden updated)\n", sr.Name)
	default:
		fmt.Fprintf(w, "✓ %s\n", sr.Name)
	}
}
