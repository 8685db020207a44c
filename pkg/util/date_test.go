package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateDay(t *testing.T) {
	in := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), TruncateDay(in))

	east := time.FixedZone("UTC+9", 9*3600)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), TruncateDay(time.Date(2024, 3, 10, 5, 0, 0, 0, east)))
}

func TestParseKeyFloats(t *testing.T) {
	got, err := ParseKeyFloats([]string{"spy=0.6", "QQQ = 0.4"}, true)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"SPY": 0.6, "QQQ": 0.4}, got)

	_, err = ParseKeyFloats([]string{"SPY"}, true)
	assert.Error(t, err)
	_, err = ParseKeyFloats([]string{"SPY=x"}, true)
	assert.Error(t, err)
	_, err = ParseKeyFloats([]string{"spy=1", "SPY=2"}, true)
	assert.Error(t, err)
}
