package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fileSettings struct {
	Debug       bool   `yaml:"debug"`
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model,omitempty"`
	Radius      int    `yaml:"radius"`
	KeepBackups int    `yaml:"keep_backups"`
	Ledger      string `yaml:"ledger"`
	DefaultFile string `yaml:"default_file"`
}

// EnsureConfigFile writes a config file holding the current defaults
// when none exists yet, so users have something to edit.
func EnsureConfigFile(conf Config) error {
	path, err := GetConfigFilePath(conf)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir, err := GetConfigDirPath(conf)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out, err := yaml.Marshal(fileSettings{
		Debug:       conf.Debug,
		Provider:    conf.Provider,
		Model:       conf.Model,
		Radius:      conf.Radius,
		KeepBackups: conf.KeepBackups,
		Ledger:      conf.LedgerFile,
		DefaultFile: conf.DefaultFile,
	})
	if err != nil {
		return fmt.Errorf("failed to serialize default config: %w", err)
	}

	return os.WriteFile(path, out, 0o644)
}
