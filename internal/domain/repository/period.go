package repository

import "time"

// Period is a lookback range of daily history.
type Period string

const (
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
	Period5Y  Period = "5y"
	Period10Y Period = "10y"
	PeriodMax Period = "max"
)

// IsValidPeriod returns true if p is a supported period.
func IsValidPeriod(p Period) bool {
	switch p {
	case Period1Y, Period2Y, Period5Y, Period10Y, PeriodMax:
		return true
	default:
		return false
	}
}

// DefaultPeriod returns the default period.
func DefaultPeriod() Period { return Period5Y }

// Start returns the first date covered by p when it ends at asOf.
// PeriodMax returns the zero time.
func (p Period) Start(asOf time.Time) time.Time {
	switch p {
	case Period1Y:
		return asOf.AddDate(-1, 0, 0)
	case Period2Y:
		return asOf.AddDate(-2, 0, 0)
	case Period10Y:
		return asOf.AddDate(-10, 0, 0)
	case PeriodMax:
		return time.Time{}
	default:
		return asOf.AddDate(-5, 0, 0)
	}
}
