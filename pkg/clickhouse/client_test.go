package clickhouse

import (
	"testing"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []ClientOption{
		WithAddr("ch.local", 8123),
		WithDatabase("seismograph"),
		WithCredentials("svc", "secret"),
		WithHTTP(true),
		WithAsyncInsert(true, true),
		WithMaxExecutionTime(90 * time.Second),
	} {
		opt(cfg)
	}

	o := options(cfg)
	assert.Equal(t, []string{"ch.local:8123"}, o.Addr)
	assert.Equal(t, "seismograph", o.Auth.Database)
	assert.Equal(t, "svc", o.Auth.Username)
	assert.Equal(t, ch.HTTP, o.Protocol)
	assert.Equal(t, 90, o.Settings["max_execution_time"])
	assert.Equal(t, 1, o.Settings["async_insert"])
	assert.Equal(t, 1, o.Settings["wait_for_async_insert"])
}

func TestOptionsNativeDefaults(t *testing.T) {
	o := options(defaultConfig())
	assert.Equal(t, ch.Native, o.Protocol)
	assert.Empty(t, o.Settings)
}
