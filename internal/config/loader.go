package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr        string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir   string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	CatalogPath string `json:"catalog_path" yaml:"catalog_path" toml:"catalog_path"`

	// StateBackend selects the persistence store: "file" or "sqlite".
	StateBackend string `json:"state_backend" yaml:"state_backend" toml:"state_backend"`
	StatePath    string `json:"state_path" yaml:"state_path" toml:"state_path"`

	LogLevel        string `json:"log_level" yaml:"log_level" toml:"log_level"`
	DownloadBaseURL string `json:"download_base_url" yaml:"download_base_url" toml:"download_base_url"`

	DefaultMaxTokens int `json:"default_max_tokens" yaml:"default_max_tokens" toml:"default_max_tokens"`
	LlamaContextSize int `json:"llama_context_size" yaml:"llama_context_size" toml:"llama_context_size"`
	LlamaThreads     int `json:"llama_threads" yaml:"llama_threads" toml:"llama_threads"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StateBackend {
	case "", "file", "sqlite":
	default:
		return fmt.Errorf("unknown state backend: %s", c.StateBackend)
	}
	return nil
}
