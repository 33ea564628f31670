package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/Veraticus/jipange/internal/common"
)

// Viper keys.
const (
	KeyDataDir     = "data.dir"
	KeyLogLevel    = "logging.level"
	KeyLogFormat   = "logging.format"
	KeyArchivePath = "archive.path"
)

// DefaultDataDir is used when neither the config file, the environment nor
// XDG_DATA_HOME name a data directory.
const DefaultDataDir = "$HOME/.local/share/jipange"

// ArchiveFile is the archive database name used when archive.path is unset.
const ArchiveFile = "archive.db"

// Config holds the resolved settings for a run.
type Config struct {
	DataDir     string
	ArchivePath string
	LogLevel    string
	LogFormat   string
}

// Load resolves configuration from v. It follows this precedence:
// 1. Viper configuration (flags, config file or JIPANGE_ env vars)
// 2. XDG_DATA_HOME for the data directory
// 3. Default values
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		LogLevel:  "info",
		LogFormat: "console",
	}

	if s := v.GetString(KeyLogLevel); s != "" {
		cfg.LogLevel = s
	}
	if s := v.GetString(KeyLogFormat); s != "" {
		cfg.LogFormat = s
	}

	switch {
	case v.GetString(KeyDataDir) != "":
		cfg.DataDir = ExpandPath(v.GetString(KeyDataDir))
	case os.Getenv("XDG_DATA_HOME") != "":
		cfg.DataDir = filepath.Join(os.Getenv("XDG_DATA_HOME"), "jipange")
	default:
		cfg.DataDir = ExpandPath(DefaultDataDir)
	}

	if s := v.GetString(KeyArchivePath); s != "" {
		cfg.ArchivePath = ExpandPath(s)
	} else {
		cfg.ArchivePath = filepath.Join(cfg.DataDir, ArchiveFile)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the logging settings and the data directory.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data directory is empty", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: invalid log format %q", common.ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
