// Package config loads rostersync configuration from a TOML file with
// environment overrides for credentials.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Defaults applied when the file leaves a field unset.
const (
	DefaultFolderName    = "Work Contacts"
	DefaultWorkers       = 20
	DefaultResultLogPath = "sync_results.txt"
	DefaultErrorLogPath  = "error_log.txt"
	DefaultHistoryPath   = "rostersync.db"
)

// Config holds everything rostersync needs for a run.
type Config struct {
	// TenantID is the Azure AD tenant the app authenticates against.
	TenantID string `toml:"tenant_id"`
	// ClientID and ClientSecret are the app registration credentials.
	// Overridable via ROSTERSYNC_CLIENT_ID / ROSTERSYNC_CLIENT_SECRET.
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`

	// RosterPath is the canonical roster CSV.
	RosterPath string `toml:"roster_path"`
	// FolderName is the designated contact folder's display name.
	FolderName string `toml:"folder_name"`
	// Workers bounds concurrent identity syncs.
	Workers int `toml:"workers"`

	// ResultLogPath and ErrorLogPath are the append-only run artifacts.
	ResultLogPath string `toml:"result_log"`
	ErrorLogPath  string `toml:"error_log"`
	// HistoryPath is the sqlite run-history database.
	HistoryPath string `toml:"history_db"`
}

// Load reads the config file, applies environment overrides and
// defaults, and validates required fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv lets credentials come from the environment so the secret
// never has to live in the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("ROSTERSYNC_TENANT_ID"); v != "" {
		c.TenantID = v
	}
	if v := os.Getenv("ROSTERSYNC_CLIENT_ID"); v != "" {
		c.ClientID = v
	}
	if v := os.Getenv("ROSTERSYNC_CLIENT_SECRET"); v != "" {
		c.ClientSecret = v
	}
}

func (c *Config) applyDefaults() {
	if c.FolderName == "" {
		c.FolderName = DefaultFolderName
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.ResultLogPath == "" {
		c.ResultLogPath = DefaultResultLogPath
	}
	if c.ErrorLogPath == "" {
		c.ErrorLogPath = DefaultErrorLogPath
	}
	if c.HistoryPath == "" {
		c.HistoryPath = DefaultHistoryPath
	}
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if c.TenantID == "" {
		return errors.New("config: tenant_id is required")
	}
	if c.ClientID == "" {
		return errors.New("config: client_id is required")
	}
	if c.ClientSecret == "" {
		return errors.New("config: client_secret is required")
	}
	if c.RosterPath == "" {
		return errors.New("config: roster_path is required")
	}
	return nil
}
