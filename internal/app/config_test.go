package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("missing config must not error: %v", err)
	}
	if cfg.BackendURL != "http://localhost:8000" {
		t.Fatalf("unexpected default backend: %q", cfg.BackendURL)
	}
	if cfg.TopK != 5 || cfg.TitleLimit != defaultTitleLimit {
		t.Fatalf("defaults not filled: %+v", cfg)
	}
}

func TestLoadConfigPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("backend_url: http://atlas:9000\ntop_k: 12\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BackendURL != "http://atlas:9000" || cfg.TopK != 12 {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.TitleLimit != defaultTitleLimit {
		t.Fatalf("missing fields not defaulted: %+v", cfg)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("ATLAS_BACKEND_URL", "http://override:8001")
	t.Setenv("ATLAS_STATE_DIR", "/tmp/atlas-test-state")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BackendURL != "http://override:8001" {
		t.Fatalf("env override ignored: %q", cfg.BackendURL)
	}
	if cfg.StateDir != "/tmp/atlas-test-state" {
		t.Fatalf("state dir override ignored: %q", cfg.StateDir)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	in := DefaultConfig()
	in.TopK = 9
	if err := SaveConfig(in, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.TopK != 9 {
		t.Fatalf("round trip lost top_k: %+v", out)
	}
}
