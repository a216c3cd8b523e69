// Package config handles application configuration and paths.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	DataDir      string `mapstructure:"dataDir"`
	InstancesDir string `mapstructure:"instancesDir"`
	AssetsDir    string `mapstructure:"assetsDir"`
	LibrariesDir string `mapstructure:"librariesDir"`

	JavaPath string   `mapstructure:"javaPath"`
	JVMArgs  []string `mapstructure:"jvmArgs"`

	Theme         string `mapstructure:"theme"`
	ShowSnapshots bool   `mapstructure:"showSnapshots"`

	MSAClientID string `mapstructure:"msaClientID"`
}

const DefaultMSAClientID = "c36a9fb6-4f2a-41ff-90bd-ae7cc92031eb"

// Load resolves configuration from, in increasing precedence: built-in
// defaults, config.json under the data directory, and GLAUNCHER_*
// environment variables.
func Load() (*Config, error) {
	dataDir := defaultDataDir()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(dataDir)

	v.SetDefault("dataDir", dataDir)
	v.SetDefault("instancesDir", filepath.Join(dataDir, "instances"))
	v.SetDefault("assetsDir", filepath.Join(dataDir, "assets"))
	v.SetDefault("librariesDir", filepath.Join(dataDir, "libraries"))
	v.SetDefault("jvmArgs", []string{"-Xmx2G", "-Xms512M"})
	v.SetDefault("theme", "dark")
	v.SetDefault("showSnapshots", false)
	v.SetDefault("msaClientID", DefaultMSAClientID)

	v.SetEnvPrefix("GLAUNCHER")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.MSAClientID == "" {
		cfg.MSAClientID = DefaultMSAClientID
	}
	return &cfg, nil
}

// Save writes the config back to config.json under DataDir.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return err
	}

	v := viper.New()
	v.Set("dataDir", c.DataDir)
	v.Set("instancesDir", c.InstancesDir)
	v.Set("assetsDir", c.AssetsDir)
	v.Set("librariesDir", c.LibrariesDir)
	v.Set("javaPath", c.JavaPath)
	v.Set("jvmArgs", c.JVMArgs)
	v.Set("theme", c.Theme)
	v.Set("showSnapshots", c.ShowSnapshots)
	v.Set("msaClientID", c.MSAClientID)

	return v.WriteConfigAs(filepath.Join(c.DataDir, "config.json"))
}

// EnsureDirs creates all required directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.InstancesDir, c.AssetsDir, c.LibrariesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func defaultDataDir() string {
	exe, _ := os.Executable()
	portablePath := filepath.Join(filepath.Dir(exe), "data")
	if _, err := os.Stat(portablePath); err == nil {
		return portablePath
	}

	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "glauncher")
	}

	home, _ := os.UserHomeDir()
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "glauncher")
	}
	return filepath.Join(home, ".local", "share", "glauncher")
}
