package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds all worklog configuration.
type Config struct {
	DataDir   string `json:"data_dir"`
	DBPath    string `json:"db_path"`
	LogPath   string `json:"log_path"`
	ClaudeDir string `json:"claude_dir"`
	CodexDir  string `json:"codex_dir"`
	Workers   int    `json:"workers"`

	// Summarize enables LLM summaries during ingest. The API key is read
	// from ANTHROPIC_API_KEY, never from the config file.
	Summarize      bool   `json:"summarize"`
	SummarizeModel string `json:"summarize_model"`
}

// DefaultDataDir returns the default data directory (~/.worklog).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".worklog")
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := DefaultDataDir()
	return &Config{
		DataDir:   dataDir,
		DBPath:    filepath.Join(dataDir, "worklog.db"),
		LogPath:   filepath.Join(dataDir, "worklog.log"),
		ClaudeDir: filepath.Join(home, ".claude"),
		CodexDir:  filepath.Join(home, ".codex"),
		Workers:   10,
	}
}

// Load reads configuration from a JSON file, falling back to defaults
// for any unset fields.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file is fine, use defaults.
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Re-derive paths if DataDir was overridden but db/log paths were not.
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "worklog.db")
	}
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join(cfg.DataDir, "worklog.log")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 10
	}

	return cfg, nil
}

// EnsureDataDir creates the data directory if it does not exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}

// ConfigPath returns the default path to the config file.
func ConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.json")
}
