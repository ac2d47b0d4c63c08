package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dlc/data", cfg.Source.DataDir)
	assert.Equal(t, "unknown", cfg.Source.CommitID)
	assert.NotEmpty(t, cfg.Source.Date) // defaults to today
	assert.Equal(t, "surge-rules", cfg.Output.Dir)
	assert.False(t, cfg.Output.EnableWildcard)
	assert.False(t, cfg.Output.EnableComments)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Server.ResultTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DLC_SHA", "deadbeef")
	t.Setenv("DLC_DATE", "2026-08-30")
	t.Setenv("DATA_DIR", "/tmp/data")
	t.Setenv("OUT_DIR", "/tmp/out")
	t.Setenv("ENABLE_WILDCARD", "true")
	t.Setenv("ENABLE_COMMENTS", "true")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("GEOIP_CODES", "CN,US")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "deadbeef", cfg.Source.CommitID)
	assert.Equal(t, "2026-08-30", cfg.Source.Date)
	assert.Equal(t, "/tmp/data", cfg.Source.DataDir)
	assert.Equal(t, "/tmp/out", cfg.Output.Dir)
	assert.True(t, cfg.Output.EnableWildcard)
	assert.True(t, cfg.Output.EnableComments)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"CN", "US"}, cfg.GeoIP.Codes)
	assert.Equal(t, "json", cfg.Log.Format)
}
