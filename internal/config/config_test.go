package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/jipange/internal/common"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("JIPANGE_TEST_DIR", "/srv/money")

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "empty", path: "", want: ""},
		{name: "home alone", path: "~", want: home},
		{name: "home prefix", path: "~/finance", want: filepath.Join(home, "finance")},
		{name: "env var", path: "$JIPANGE_TEST_DIR/data", want: "/srv/money/data"},
		{name: "tilde in the middle is kept", path: "/tmp/~x", want: "/tmp/~x"},
		{name: "plain", path: "/var/lib/jipange", want: "/var/lib/jipange"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.path))
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "")
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		cfg, err := Load(viper.New())
		require.NoError(t, err)

		wantDir := filepath.Join(home, ".local", "share", "jipange")
		assert.Equal(t, wantDir, cfg.DataDir)
		assert.Equal(t, filepath.Join(wantDir, ArchiveFile), cfg.ArchivePath)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "console", cfg.LogFormat)
	})

	t.Run("xdg data home", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "/xdg")

		cfg, err := Load(viper.New())
		require.NoError(t, err)
		assert.Equal(t, "/xdg/jipange", cfg.DataDir)
	})

	t.Run("viper values win", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "/xdg")
		v := viper.New()
		v.Set(KeyDataDir, "/data")
		v.Set(KeyArchivePath, "/backups/money.db")
		v.Set(KeyLogLevel, "debug")
		v.Set(KeyLogFormat, "json")

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, &Config{
			DataDir:     "/data",
			ArchivePath: "/backups/money.db",
			LogLevel:    "debug",
			LogFormat:   "json",
		}, cfg)
	})

	t.Run("invalid logging", func(t *testing.T) {
		v := viper.New()
		v.Set(KeyLogLevel, "loud")
		_, err := Load(v)
		assert.ErrorIs(t, err, common.ErrInvalidConfig)

		v = viper.New()
		v.Set(KeyLogFormat, "xml")
		_, err = Load(v)
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})
}
