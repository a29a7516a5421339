package schemakg

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rowanfalk/schemakg/llm"
)

// Config holds all configuration for the graph builder.
type Config struct {
	// Chat configures the extraction and question-answering model.
	Chat llm.Config `json:"chat" yaml:"chat"`

	// VocabPath points to a schema.org vocabulary dump in JSON-LD form.
	// When empty the built-in static catalog is used.
	VocabPath string `json:"vocab_path" yaml:"vocab_path"`

	// SnapshotPath is the SQLite file for graph snapshots. When empty,
	// SaveSnapshot is unavailable and the graph is memory-only.
	SnapshotPath string `json:"snapshot_path" yaml:"snapshot_path"`

	// OracleTimeoutSec bounds a single extraction call, in seconds.
	OracleTimeoutSec int `json:"oracle_timeout_sec" yaml:"oracle_timeout_sec"`

	// MaxContextChars caps the graph context rendered into query prompts.
	// Zero means unbounded.
	MaxContextChars int `json:"max_context_chars" yaml:"max_context_chars"`
}

// DefaultConfig returns a Config with sensible defaults for local inference.
func DefaultConfig() Config {
	return Config{
		Chat: llm.Config{
			Provider: "ollama",
			Model:    "llama3.1:8b",
			BaseURL:  "http://localhost:11434",
		},
		OracleTimeoutSec: 120,
		MaxContextChars:  12000,
	}
}

// LoadConfig reads a YAML config file layered over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func (c *Config) oracleTimeout() time.Duration {
	if c.OracleTimeoutSec <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.OracleTimeoutSec) * time.Second
}
