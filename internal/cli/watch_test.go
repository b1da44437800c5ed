package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lockstep/internal/config"
)

func TestWatchCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	watchCmd, _, err := cmd.Find([]string{"watch"})
	require.NoError(t, err)

	for _, name := range []string{"seed", "size", "speed", "algorithms", "offload", "db", "log-file"} {
		assert.NotNil(t, watchCmd.Flags().Lookup(name), name)
	}
	assert.Nil(t, watchCmd.Flags().Lookup("fast"))
}

func TestWatch_QuitKey(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "watch.log")

	opts := &WatchOptions{
		RunOptions: &RunOptions{RootOptions: &RootOptions{
			Format:     "text",
			ConfigPath: filepath.Join(dir, "lockstep.yaml"),
		}},
		ProgramOptions: []tea.ProgramOption{tea.WithoutRenderer()},
	}
	cmd := newWatchCommand(opts)
	cmd.SetIn(strings.NewReader("q"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--size", "16", "--log-file", logPath})
	require.NoError(t, cmd.Execute())

	logs, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logs), "watch starting")
	assert.Contains(t, string(logs), "session started")
	assert.Contains(t, string(logs), "watch stopped")
}

func TestWatch_InvalidSettings(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "watch", "--speed", "0", "--log-file", filepath.Join(dir, "watch.log"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// watchFor runs watch against configPath, calls during while it runs and
// presses q once d has passed. It returns the log file contents.
func watchFor(t *testing.T, configPath string, d time.Duration, during func(), args ...string) string {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "watch.log")

	opts := &WatchOptions{
		RunOptions: &RunOptions{RootOptions: &RootOptions{
			Format:     "text",
			ConfigPath: configPath,
		}},
		ProgramOptions: []tea.ProgramOption{tea.WithoutRenderer()},
	}
	in, keys := io.Pipe()
	go func() {
		if during != nil {
			during()
		}
		time.Sleep(d)
		keys.Write([]byte("q"))
		keys.Close()
	}()

	cmd := newWatchCommand(opts)
	cmd.SetIn(in)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--size", "16", "--log-file", logPath}, args...))
	require.NoError(t, cmd.Execute())

	logs, err := os.ReadFile(logPath)
	require.NoError(t, err)
	return string(logs)
}

var stoppedAtTick = regexp.MustCompile(`msg="conductor stopping" tick=(\d+)`)

func TestWatch_ConfigDirectoryMissing(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nope", "lockstep.yaml")
	logs := watchFor(t, configPath, 500*time.Millisecond, nil, "--speed", "5")

	assert.Contains(t, logs, "config reload disabled")
	assert.NotContains(t, logs, "background task failed")

	m := stoppedAtTick.FindStringSubmatch(logs)
	require.NotNil(t, m, logs)
	ticks, err := strconv.Atoi(m[1])
	require.NoError(t, err)
	assert.Greater(t, ticks, 1, "the clock keeps running without hot reload")
}

func TestWatch_ReloadLogsGoToLogFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "lockstep.yaml")
	require.NoError(t, config.WriteDefault(configPath))

	edit := func() {
		for i := 0; i < 12; i++ {
			time.Sleep(50 * time.Millisecond)
			os.WriteFile(configPath, []byte("speed: 3\nsize: 16\n"), 0644)
		}
	}
	logs := watchFor(t, configPath, 200*time.Millisecond, edit)

	assert.Contains(t, logs, `msg="config reloaded"`)
}
