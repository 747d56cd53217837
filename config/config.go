// Package config defines the launcher configuration file shape and
// its defaults. Files are HCL; every attribute may also be overridden
// through NMCL_* environment variables.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Resolution struct {
	Width  int `hcl:"width,optional" env:"NMCL_WIDTH"`
	Height int `hcl:"height,optional" env:"NMCL_HEIGHT"`
}

type Config struct {
	DataDir         string      `hcl:"data_dir,optional" env:"NMCL_DATA_DIR"`
	Java            string      `hcl:"java,optional" env:"NMCL_JAVA"`
	Concurrency     int         `hcl:"concurrency,optional" env:"NMCL_CONCURRENCY"`
	LauncherName    string      `hcl:"launcher_name,optional" env:"NMCL_LAUNCHER_NAME"`
	LauncherVersion string      `hcl:"launcher_version,optional" env:"NMCL_LAUNCHER_VERSION"`
	AccountsPath    string      `hcl:"accounts_path,optional" env:"NMCL_ACCOUNTS_PATH"`
	CacheDir        string      `hcl:"cache_dir,optional" env:"NMCL_CACHE_DIR"`
	Resolution      *Resolution `hcl:"resolution,block"`
}

// Default is the configuration used when no file exists.
func Default() Config {
	return Config{
		DataDir:         ".minecraft",
		Java:            "java",
		Concurrency:     10,
		LauncherName:    "NMCL",
		LauncherVersion: "1.0",
		Resolution:      &Resolution{Width: 854, Height: 480},
	}
}

// Fill replaces zero values with defaults and derives dependent paths,
// then applies environment overrides. Environment wins over both file
// and defaults.
func (c *Config) Fill() error {
	def := Default()
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.Java == "" {
		c.Java = def.Java
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.LauncherName == "" {
		c.LauncherName = def.LauncherName
	}
	if c.LauncherVersion == "" {
		c.LauncherVersion = def.LauncherVersion
	}
	if c.Resolution == nil {
		c.Resolution = &Resolution{}
	}
	if c.Resolution.Width <= 0 {
		c.Resolution.Width = def.Resolution.Width
	}
	if c.Resolution.Height <= 0 {
		c.Resolution.Height = def.Resolution.Height
	}
	if c.AccountsPath == "" {
		c.AccountsPath = filepath.Join(c.DataDir, "accounts.json")
	}
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("config environment: %w", err)
	}
	return nil
}
