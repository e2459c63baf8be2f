package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 10 {
		t.Errorf("Workers = %d, want 10", cfg.Workers)
	}
	if cfg.DBPath == "" || cfg.ClaudeDir == "" || cfg.CodexDir == "" {
		t.Errorf("defaults incomplete: %+v", cfg)
	}
}

func TestLoadOverridesAndRederives(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	content := `{"data_dir":"` + dir + `","workers":4,"summarize":true}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != dir {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if !cfg.Summarize {
		t.Error("Summarize not loaded")
	}
	// DB and log paths keep their defaults relative to the default data
	// dir unless explicitly set; they are never left empty.
	if cfg.DBPath == "" || cfg.LogPath == "" {
		t.Errorf("derived paths empty: %+v", cfg)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an error for malformed config")
	}
}
