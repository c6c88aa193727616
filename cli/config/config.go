package config

import (
	"fmt"
	"time"
)

// Config represents a smelt.yaml configuration file.
// All values are optional and act as defaults for smelt command flags.
// CLI flags always override config values.
type Config struct {
	Workspace string          `yaml:"workspace"`
	Spill     SpillConfig     `yaml:"spill"`
	Export    ExportConfig    `yaml:"export"`
	Adapters  []AdapterConfig `yaml:"adapters"`
	Log       LogConfig       `yaml:"log"`
}

// SpillConfig holds parameter-file spill defaults.
type SpillConfig struct {
	// MinSize is the serialized length above which an argument segment
	// spills to a parameter file. nil keeps the built-in threshold;
	// zero forces every eligible segment to spill.
	MinSize *int `yaml:"min_size,omitempty"`
}

// ExportConfig holds descriptor export defaults from the config file.
type ExportConfig struct {
	Backend      string `yaml:"backend"`
	Path         string `yaml:"path"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	S3PathStyle  bool   `yaml:"s3_path_style"`
	BufferBytes  int64  `yaml:"buffer_bytes"`
	BufferFrames int64  `yaml:"buffer_frames"`
}

// AdapterConfig is one notification adapter definition. A config may
// list several; export publishes to all of them.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// LogConfig holds logging defaults from the config file.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
