package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func bar(d int, c float64) PriceBar {
	return PriceBar{Date: day(d), Open: c, High: c, Low: c, Close: c, Volume: 10}
}

func TestValidateBars(t *testing.T) {
	require.NoError(t, ValidateBars([]PriceBar{bar(2, 100), bar(3, 101)}))
	require.NoError(t, ValidateBars(nil))

	zero := bar(3, 101)
	zero.Low = 0
	negVol := bar(3, 101)
	negVol.Volume = -1

	cases := map[string][]PriceBar{
		"non-positive price": {bar(2, 100), zero},
		"negative volume":    {bar(2, 100), negVol},
		"duplicate date":     {bar(2, 100), bar(2, 101)},
		"out of order":       {bar(3, 100), bar(2, 101)},
	}
	for name, bars := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, ValidateBars(bars))
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := &PriceSeries{Symbol: "SPY", Bars: []PriceBar{bar(2, 100)}}
	c := s.Clone()
	c.Bars[0].Close = 1

	assert.Equal(t, 100.0, s.Bars[0].Close)
	assert.Equal(t, []float64{100}, s.Closes())
	assert.Nil(t, (*PriceSeries)(nil).Clone())
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(day(2), day(2).Add(23*time.Hour)))
	assert.Equal(t, 29, DaysBetween(day(2), day(31)))
	assert.Equal(t, -1, DaysBetween(day(3), day(2)))
}

func TestErrorKinds(t *testing.T) {
	ih := fmt.Errorf("simulate: %w", &InsufficientHistoryError{Have: 10, Need: 252})
	assert.True(t, errors.Is(ih, ErrInsufficientHistory))
	assert.False(t, errors.Is(ih, ErrDataUnavailable))

	ce := &ConfigError{Field: "trading_fee_pct", Reason: "must be in [0, 0.05]"}
	assert.True(t, errors.Is(ce, ErrInvalidConfiguration))
	assert.Contains(t, ce.Error(), "trading_fee_pct")

	cause := errors.New("502")
	du := &DataUnavailableError{Symbol: "SPY", Period: "5y", Cause: cause}
	assert.True(t, errors.Is(du, ErrDataUnavailable))
	assert.True(t, errors.Is(du, cause))
	assert.Equal(t, "no price data for SPY (5y)", (&DataUnavailableError{Symbol: "SPY", Period: "5y"}).Error())
}
