package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	icache "seismograph/internal/service/cache"
	"seismograph/pkg/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Metrics.Enabled = false
	cfg.Log.Output = "stdout"
	return cfg
}

func TestInitializeServicesWithMemoryCache(t *testing.T) {
	s, err := InitializeServices(testConfig())
	require.NoError(t, err)
	require.NotNil(t, s.States)
	require.NotNil(t, s.Analysis)
	require.NotNil(t, s.Portfolio)
	assert.IsType(t, &icache.HistoryCache{}, s.Cache)
	require.Len(t, s.resources, 1)
	assert.Equal(t, "cache", s.resources[0].Name)
	assert.NoError(t, s.Close())
}

func TestInitializeServicesWithoutCache(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Backend = "none"

	s, err := InitializeServices(cfg)
	require.NoError(t, err)
	assert.Nil(t, s.Cache)
	assert.Empty(t, s.resources)
}

func TestInitializeFailsOnUnreachableRedis(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Backend = "layered"
	cfg.Cache.Redis.Addr = "127.0.0.1:1"

	_, err := InitializeServices(cfg)
	assert.Error(t, err)
}

func TestInitializeApp(t *testing.T) {
	app, err := InitializeApp(testConfig())
	require.NoError(t, err)
	routes := map[string]bool{}
	for _, r := range app.Server().Echo().Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	assert.True(t, routes["GET /api/state/:symbol"])
	assert.True(t, routes["POST /api/portfolio"])
	assert.True(t, routes["GET /healthz"])
	assert.False(t, routes["GET /metrics"])
}
