package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "wealthwatch/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "https://query1.finance.yahoo.com", cfg.Provider.BaseURL)
	assert.Equal(t, "interval", cfg.RateLimit.Strategy)
	assert.Equal(t, 200*time.Millisecond, cfg.RateLimit.Interval)
	assert.Equal(t, 300*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Refresh.Interval)
	assert.Equal(t,
		[]string{"USD", "CNY", "HKD", "SGD", "EUR", "GBP", "JPY", "AUD", "BTC"},
		cfg.Refresh.Currencies)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
provider:
  base_url: http://localhost:8080
rate_limit:
  strategy: bucket
  rate: 2.5
  burst: 3
cache:
  enabled: false
refresh:
  interval: 10m
  currencies: [USD, HKD]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Provider.BaseURL)
	assert.Equal(t, "bucket", cfg.RateLimit.Strategy)
	assert.InDelta(t, 2.5, cfg.RateLimit.Rate, 1e-9)
	assert.Equal(t, 3, cfg.RateLimit.Burst)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Refresh.Interval)
	assert.Equal(t, []string{"USD", "HKD"}, cfg.Refresh.Currencies)
	// Untouched sections keep their defaults.
	assert.Equal(t, 300*time.Second, cfg.Cache.TTL)
}

func TestLoad_RejectsInvalidStrategy(t *testing.T) {
	dir := t.TempDir()
	content := "rate_limit:\n  strategy: firehose\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	cfg.Refresh.Currencies = nil
	assert.ErrorIs(t, cfg.Validate(), errs.ErrConfigInvalid)
}
