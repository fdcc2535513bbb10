// Package config resolves the client configuration: where the backend
// lives and where local state (drafts, session) is kept. Precedence is
// flag > environment > config file > default.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultAPIURL matches the portal backend's dev default.
	DefaultAPIURL = "http://localhost:8080/api"

	envAPIURL   = "ONEFLOW_API_URL"
	envStateDir = "ONEFLOW_STATE_DIR"

	appDirName     = "oneflow"
	configFileName = "config.json"
)

type Config struct {
	APIURL string `json:"apiUrl,omitempty"`
}

func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appDirName), nil
}

// StateDir is where drafts and the login session live. Env override first,
// then the per-user config dir.
func StateDir(flagValue string) (string, error) {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(os.Getenv(envStateDir)); v != "" {
		return v, nil
	}
	return Dir()
}

// APIURL resolves the backend base URL.
func APIURL(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(envAPIURL)); v != "" {
		return v
	}
	if cfg, err := load(); err == nil && strings.TrimSpace(cfg.APIURL) != "" {
		return strings.TrimSpace(cfg.APIURL)
	}
	return DefaultAPIURL
}

func load() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}
	b, err := os.ReadFile(filepath.Join(dir, configFileName))
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		// Treat a corrupt config as missing; defaults still work.
		return Config{}, errors.New("invalid config file")
	}
	return cfg, nil
}

// Save writes the config file, creating the directory if needed.
func Save(cfg Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(dir, configFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
