package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	printers "github.com/sanix-darker/resolv/internal/printers"
)

// Config contains the entire cli dependencies
type Config struct {
	Version        string
	Viper          *viper.Viper
	ConfigDirPath  string
	ConfigFilePath string
	CacheDirPath   string
	LedgerFile     string
	DefaultFile    string
	Debug          bool
	Provider       string
	Model          string
	Radius         int
	KeepBackups    int
	Printers       printers.IPrinters

	//io Writers useful for testing
	InReader  io.Reader
	OutWriter io.Writer
	ErrWriter io.Writer
}

// NewDefaultConfig creates a new default config
func NewDefaultConfig() Config {
	conf := Config{
		Printers:       printers.NewPrinters(os.Stdout),
		ConfigDirPath:  ".config/resolv",
		ConfigFilePath: "config.yml",
		CacheDirPath:   ".resolv_cache",
		LedgerFile:     "reviews.json",
		DefaultFile:    "main.go",
		Debug:          false,
		Provider:       "openai",
		Radius:         2,
		KeepBackups:    5,
		InReader:       os.Stdin,
		OutWriter:      os.Stdout,
		ErrWriter:      os.Stderr,
	}

	conf.Viper = setupViper(conf)
	applyFileSettings(&conf)
	return conf
}

func setupViper(conf Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	dir, err := GetConfigDirPath(conf)
	if err != nil {
		return v
	}

	v.SetConfigFile(filepath.Join(dir, conf.ConfigFilePath))
	// Config file not found is OK, we use defaults
	_ = v.ReadInConfig()

	return v
}

func applyFileSettings(conf *Config) {
	v := conf.Viper
	if v.IsSet("debug") {
		conf.Debug = v.GetBool("debug")
	}
	if p := v.GetString("provider"); p != "" {
		conf.Provider = p
	}
	if m := v.GetString("model"); m != "" {
		conf.Model = m
	}
	if v.IsSet("radius") && v.GetInt("radius") > 0 {
		conf.Radius = v.GetInt("radius")
	}
	if v.IsSet("keep_backups") && v.GetInt("keep_backups") >= 0 {
		conf.KeepBackups = v.GetInt("keep_backups")
	}
	if l := v.GetString("ledger"); l != "" {
		conf.LedgerFile = l
	}
	if f := v.GetString("default_file"); f != "" {
		conf.DefaultFile = f
	}
}

// GetConfigFilePath get the config file path from config
func GetConfigFilePath(conf Config) (string, error) {
	dir, err := GetConfigDirPath(conf)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, conf.ConfigFilePath), nil
}

// GetConfigDirPath returns the path of the resolv folder
func GetConfigDirPath(conf Config) (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to read home directory: %s", err)
	}

	return filepath.Join(home, conf.ConfigDirPath), nil
}

// GetCacheDirPath returns the path of the resolv caches,
// where backups and the undo state live
func GetCacheDirPath(conf Config) (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to read home directory: %s", err)
	}

	return filepath.Join(home, conf.CacheDirPath), nil
}
