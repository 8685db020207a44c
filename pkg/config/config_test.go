package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 15*time.Second, c.MarketData.Timeout)
	assert.Equal(t, "memory", c.Cache.Backend)
	assert.Equal(t, 30, c.Analysis.Features.VolatilityWindow)
	assert.Equal(t, 252, c.Analysis.Features.PercentileWindow)
	assert.Equal(t, 70.0, c.Analysis.Classifier.RedThreshold)
	assert.Equal(t, -0.20, c.Analysis.Forensics.CrashThreshold)
	assert.Equal(t, "defensive", c.Strategy.Profile)
	assert.Equal(t, time.Minute, c.Analysis.Timeout)
	assert.Equal(t, -1, c.Kafka.RequiredAcks)
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
environment: production
server:
  port: 9090
cache:
  backend: layered
  ttl: 1h
analysis:
  classifier:
    red_threshold: 75
strategy:
  profile: aggressive
  overrides:
    trading_fee_pct: 0.002
`))
	require.NoError(t, err)

	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, time.Hour, c.Cache.TTL)
	assert.Equal(t, 75.0, c.Analysis.Classifier.RedThreshold)
	assert.Equal(t, 40.0, c.Analysis.Classifier.YellowThreshold)
	assert.Equal(t, 0.002, c.Strategy.Overrides["trading_fee_pct"])
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"backend":    "cache:\n  backend: disk\n",
		"thresholds": "analysis:\n  classifier:\n    yellow_threshold: 80\n    red_threshold: 60\n",
		"window":     "analysis:\n  features:\n    volatility_window: 1\n",
		"kafka":      "kafka:\n  enabled: true\n",
		"strategy":   "strategy:\n  profile: yolo\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c := Default()
	env := map[string]string{
		"SEISMO_SERVER_PORT":   "7000",
		"SEISMO_KAFKA_BROKERS": "k1:9092,k2:9092",
		"SEISMO_STRATEGY":      "AGGRESSIVE",
	}
	require.NoError(t, c.applyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, 7000, c.Server.Port)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "aggressive", c.Strategy.Profile)
	require.NoError(t, c.Validate())

	bad := Default()
	assert.Error(t, bad.applyEnv(func(k string) string {
		if k == "SEISMO_SERVER_PORT" {
			return "eighty"
		}
		return ""
	}))
}

func TestLoadWithEnvFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seismograph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: staging\n"), 0o600))
	t.Setenv("SEISMO_LOG_LEVEL", "debug")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", c.Environment)
	assert.Equal(t, "debug", c.Log.Level)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
