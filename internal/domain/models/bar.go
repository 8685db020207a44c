package models

import (
	"fmt"
	"time"
)

// PriceBar is one calendar day of OHLCV data.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is an ordered price history for one symbol.
type PriceSeries struct {
	Symbol string     `json:"symbol"`
	Period string     `json:"period"`
	AsOf   time.Time  `json:"as_of"`
	Bars   []PriceBar `json:"bars"`
}

// Closes returns the close column.
func (s *PriceSeries) Closes() []float64 {
	return Closes(s.Bars)
}

// Clone returns a deep copy so callers cannot mutate a shared history.
func (s *PriceSeries) Clone() *PriceSeries {
	if s == nil {
		return nil
	}
	out := *s
	out.Bars = append([]PriceBar(nil), s.Bars...)
	return &out
}

// Closes extracts close prices from bars.
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// ValidateBars checks ordering and value ranges of an ingested history.
func ValidateBars(bars []PriceBar) error {
	for i, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("bar %d (%s): prices must be positive", i, b.Date.Format(DateLayout))
		}
		if b.Volume < 0 {
			return fmt.Errorf("bar %d (%s): volume must be non-negative", i, b.Date.Format(DateLayout))
		}
		if i > 0 && !b.Date.After(bars[i-1].Date) {
			return fmt.Errorf("bar %d (%s): dates must be strictly increasing", i, b.Date.Format(DateLayout))
		}
	}
	return nil
}

// DateLayout is the calendar date format used in reports and cache keys.
const DateLayout = "2006-01-02"

// DaysBetween returns whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
