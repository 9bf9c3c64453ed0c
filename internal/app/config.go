package app

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	BackendURL      string `yaml:"backend_url"`
	TopK            int    `yaml:"top_k"`
	ExtendedRanking bool   `yaml:"use_extended_ranking"`
	WithGraph       bool   `yaml:"with_graph"`
	TitleLimit      int    `yaml:"title_limit"`
	StateDir        string `yaml:"state_dir"`
	LogFile         string `yaml:"log_file"`
}

func DefaultConfig() Config {
	return Config{
		BackendURL: "http://localhost:8000",
		TopK:       5,
		WithGraph:  true,
		TitleLimit: defaultTitleLimit,
		StateDir:   DefaultStateDir(),
	}
}

// LoadConfig reads the YAML config at path, filling missing fields with
// defaults. A missing file is not an error. ATLAS_BACKEND_URL and
// ATLAS_STATE_DIR env vars override the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return cfg, err
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if v := os.Getenv("ATLAS_BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("ATLAS_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}

	if cfg.BackendURL == "" {
		cfg.BackendURL = "http://localhost:8000"
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.TitleLimit <= 0 {
		cfg.TitleLimit = defaultTitleLimit
	}
	if cfg.StateDir == "" {
		cfg.StateDir = DefaultStateDir()
	}
	return cfg, nil
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		return errors.New("no path provided for config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "atlas-chat", "config.yml")
}

func DefaultStateDir() string {
	if base := os.Getenv("XDG_DATA_HOME"); base != "" {
		return filepath.Join(base, "atlas-chat")
	}
	if base, err := os.UserHomeDir(); err == nil && base != "" {
		return filepath.Join(base, ".local", "share", "atlas-chat")
	}
	return filepath.Join(os.TempDir(), "atlas-chat")
}
