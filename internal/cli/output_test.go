package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_Text(t *testing.T) {
	var out bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &out}

	require.NoError(t, f.Success(initResult{Path: "x.yaml"}))
	require.NoError(t, f.Error(ErrCodeDatabase, "cannot open", map[string]string{"path": "x"}))
	assert.Equal(t, "Config ready at x.yaml\nError [E003]: cannot open\n", out.String())
}

func TestOutputFormatter_JSON(t *testing.T) {
	var out bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out}

	require.NoError(t, f.Failure(map[string]int{"failed": 1}, ErrCodeReplayFailed, "1 run(s) failed"))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, map[string]any{"failed": float64(1)}, resp.Data)
	assert.Equal(t, &CLIError{Code: ErrCodeReplayFailed, Message: "1 run(s) failed"}, resp.Error)
}

func TestOutputFormatter_VerboseGoesToErrWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errOut, Verbose: true}

	f.VerboseLog("checking %d", 3)
	assert.Empty(t, out.String())
	assert.Equal(t, "checking 3\n", errOut.String())

	quiet := &OutputFormatter{Writer: &out}
	quiet.VerboseLog("hidden")
	assert.Empty(t, out.String())
}
