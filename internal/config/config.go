package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// GraphConfig holds settings for the graph exchange API.
type GraphConfig struct {
	BaseURL string `yaml:"base_url,omitempty"`
}

// BankConfig holds settings for the bank service.
type BankConfig struct {
	DBPath string `yaml:"db_path,omitempty"`
	Listen string `yaml:"listen,omitempty"`
}

// MediaConfig holds settings for the media object store backing bank
// members. AccessKey/SecretKey may be left empty here and supplied via
// SIGEX_MEDIA_ACCESS_KEY / SIGEX_MEDIA_SECRET_KEY instead.
type MediaConfig struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	UseSSL    bool   `yaml:"use_ssl,omitempty"`
}

// LoggingConfig controls the serve path's structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text, json
}

// Config is the in-memory representation of ~/.sigex/sigex.yaml.
type Config struct {
	StateDir string        `yaml:"state_dir,omitempty"`
	Graph    GraphConfig   `yaml:"graph,omitempty"`
	Bank     BankConfig    `yaml:"bank,omitempty"`
	Media    MediaConfig   `yaml:"media,omitempty"`
	Logging  LoggingConfig `yaml:"logging,omitempty"`
}

// SigexDir returns the absolute path to ~/.sigex/.
func SigexDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".sigex"), nil
}

// ConfigPath returns the absolute path to ~/.sigex/sigex.yaml.
func ConfigPath() (string, error) {
	dir, err := SigexDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sigex.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the default Config written on first sigex init.
func DefaultConfig() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		StateDir: filepath.Join(home, ".sigex"),
		Graph: GraphConfig{
			BaseURL: "https://graph.facebook.com/v14.0",
		},
		Bank: BankConfig{
			DBPath: filepath.Join(home, ".sigex", "banks.db"),
			Listen: "127.0.0.1:8585",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}, nil
}

// Load reads and parses ~/.sigex/sigex.yaml. Missing fields fall back to
// DefaultConfig values.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	// Expand ~ in paths at load time.
	cfg.StateDir, err = ExpandPath(cfg.StateDir)
	if err != nil {
		return nil, err
	}
	cfg.Bank.DBPath, err = ExpandPath(cfg.Bank.DBPath)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save marshals cfg and writes it to ~/.sigex/sigex.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
