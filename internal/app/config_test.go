package app

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigCacheWindow(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("SHEETS_SPREADSHEET_ID", "")
	t.Setenv("CACHE_TTL", "")
	require.NoError(t, os.Unsetenv("CACHE_TTL"))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, cfg.CacheTTL)

	t.Setenv("CACHE_TTL", "0s")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	require.Zero(t, cfg.CacheTTL)
}
