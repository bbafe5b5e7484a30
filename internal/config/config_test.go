package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-tax-must-flow/internal/common"
)

func TestLoadDefaults(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, filepath.Join(home, ".local/share/taxflow/returns.db"), cfg.Database.Path)
	assert.Equal(t, filepath.Join(home, ".config/taxflow/params"), cfg.Params.Dir)
	assert.Equal(t, DefaultWorkers, cfg.WhatIf.Workers)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"logging:",
		"  level: debug",
		"  format: json",
		"database:",
		"  path: /var/lib/taxflow/returns.db",
		"whatif:",
		"  workers: 9",
	}, "\n")), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/var/lib/taxflow/returns.db", cfg.Database.Path)
	assert.Equal(t, 9, cfg.WhatIf.Workers)
}

func TestLoadRejectsBadValues(t *testing.T) {
	v := viper.New()
	v.Set("logging.level", "loud")
	v.Set("logging.format", "xml")
	v.Set("whatif.workers", 0)

	_, err := LoadFrom(v)
	require.ErrorIs(t, err, common.ErrInvalidConfig)
	assert.Len(t, common.Errors(err), 3)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("TAXFLOW_TEST_DIR", "/srv/tax")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/returns.db", filepath.Join(home, "returns.db")},
		{"$TAXFLOW_TEST_DIR/returns.db", "/srv/tax/returns.db"},
		{"/abs/path", "/abs/path"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandPath(tt.in), tt.in)
	}
}
