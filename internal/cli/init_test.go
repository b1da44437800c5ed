package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lockstep/internal/config"
)

func executeWithConfig(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestInit_WritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo", "lockstep.yaml")

	out, err := executeWithConfig(t, path, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Config ready at "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestInit_KeepsExistingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lockstep.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: mine\n"), 0644))

	_, err := executeWithConfig(t, path, "init")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "seed: mine\n", string(data))
}

func TestRun_UsesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lockstep.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: from-file\nsize: 16\nalgorithms: [quick]\noffload: false\n"), 0644))

	out, err := executeWithConfig(t, path, "run", "--fast", "--format", "json")
	require.NoError(t, err)
	var summary RunSummary
	decodeResponse(t, out, &summary)
	assert.Equal(t, "from-file", summary.Seed)
	assert.Equal(t, 16, summary.Size)
	assert.Equal(t, "local", summary.Mode)
	require.Len(t, summary.Algorithms, 1)

	out, err = executeWithConfig(t, path, "run", "--fast", "--seed", "from-flag", "--format", "json")
	require.NoError(t, err)
	decodeResponse(t, out, &summary)
	assert.Equal(t, "from-flag", summary.Seed)
	assert.Equal(t, 16, summary.Size)
}

func TestRun_BadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lockstep.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sped: 3\n"), 0644))

	_, err := executeWithConfig(t, path, "run", "--fast")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}
