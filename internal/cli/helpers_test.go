package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout and the error.
// A --config pointing at a missing file is added so tests run on defaults.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// decodeResponse parses a JSON CLIResponse, decoding Data into data.
func decodeResponse(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}

// recordRun runs a fast recorded session into dbPath and returns its id.
func recordRun(t *testing.T, dbPath string, extra ...string) string {
	t.Helper()
	args := append([]string{"run", "--fast", "--db", dbPath, "--size", "16", "--format", "json"}, extra...)
	out, err := execute(t, args...)
	require.NoError(t, err, out)

	var summary RunSummary
	resp := decodeResponse(t, out, &summary)
	require.Equal(t, "ok", resp.Status)
	require.NotEmpty(t, summary.RunID)
	return summary.RunID
}
