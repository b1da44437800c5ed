// Package config loads and watches the lockstep.yaml settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lockstep/internal/conductor"
	"github.com/roach88/lockstep/internal/dataset"
	"github.com/roach88/lockstep/internal/ir"
)

// DefaultPath is the settings file looked up in the working directory.
const DefaultPath = "lockstep.yaml"

// DefaultRotateAfter is how long a finished board stays on screen.
const DefaultRotateAfter = 10 * time.Second

const defaultConfigYAML = `# lockstep configuration
version: 1

# Dataset. The same seed and size always produce the same values.
seed: sortdemo
size: 64          # 16..256

# Playback speed, 1..5. Each level adds ten steps per second.
speed: 2

algorithms: [bubble, insertion, selection, quick]

# Run the step engines on a separate host goroutine.
offload: true

# Pause on a finished board before rotating to a new seed.
rotate_after: 10s

# Optional SQLite path; empty disables recording.
database: ""
`

// Config is the parsed lockstep.yaml.
type Config struct {
	Version     int              `yaml:"version"`
	Seed        string           `yaml:"seed"`
	Size        int              `yaml:"size"`
	Speed       int              `yaml:"speed"`
	Algorithms  []ir.AlgorithmID `yaml:"algorithms"`
	Offload     bool             `yaml:"offload"`
	RotateAfter time.Duration    `yaml:"rotate_after"`
	Database    string           `yaml:"database"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Version:     1,
		Seed:        dataset.DefaultSeed,
		Size:        dataset.DefaultSize,
		Speed:       conductor.DefaultSpeed,
		Algorithms:  ir.AllAlgorithms(),
		Offload:     true,
		RotateAfter: DefaultRotateAfter,
	}
}

// Load reads path. A missing file yields Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	c.Seed = strings.TrimSpace(c.Seed)
	if c.Seed == "" {
		c.Seed = dataset.DefaultSeed
	}
	if len(c.Algorithms) == 0 {
		c.Algorithms = ir.AllAlgorithms()
	}
	for k, id := range c.Algorithms {
		c.Algorithms[k] = ir.AlgorithmID(strings.ToLower(strings.TrimSpace(string(id))))
	}
}

// Validate checks ranges and algorithm ids.
func (c Config) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported version %d", c.Version)
	}
	if err := dataset.ValidateSize(c.Size); err != nil {
		return err
	}
	if c.Speed < conductor.MinSpeed || c.Speed > conductor.MaxSpeed {
		return fmt.Errorf("speed %d out of range %d..%d", c.Speed, conductor.MinSpeed, conductor.MaxSpeed)
	}
	seen := make(map[ir.AlgorithmID]bool, len(c.Algorithms))
	for _, id := range c.Algorithms {
		if !id.Valid() {
			return fmt.Errorf("algorithms: unknown algorithm %q", id)
		}
		if seen[id] {
			return fmt.Errorf("algorithms: duplicate algorithm %q", id)
		}
		seen[id] = true
	}
	if c.RotateAfter < 0 {
		return fmt.Errorf("rotate_after must not be negative")
	}
	return nil
}

// Save validates c and writes it to path, creating parent directories.
func (c Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure dir: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// WriteDefault writes the commented default file unless path exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0644)
}
