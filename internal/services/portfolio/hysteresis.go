package portfolio

import "seismograph/internal/domain/models"

// DefaultConfirmations is how many consecutive sightings a new regime needs.
const DefaultConfirmations = 2

// Hysteresis suppresses regime flicker. Transitions only move one level at a
// time (GREEN <-> YELLOW <-> RED) and only after the candidate regime has been
// seen Confirmations times in a row. A confirmed candidate two levels away
// moves the confirmed regime one step toward it.
type Hysteresis struct {
	Confirmations int

	current   models.Regime
	candidate models.Regime
	count     int
}

// NewHysteresis returns a filter with no confirmed regime yet.
func NewHysteresis(confirmations int) *Hysteresis {
	if confirmations < 1 {
		confirmations = DefaultConfirmations
	}
	return &Hysteresis{Confirmations: confirmations}
}

// Current is the last confirmed regime, empty before the first Apply.
func (h *Hysteresis) Current() models.Regime { return h.current }

// Apply feeds the next raw regime and returns the confirmed one.
func (h *Hysteresis) Apply(raw models.Regime) models.Regime {
	if h.current == "" {
		h.current = raw
		return h.current
	}
	if raw == h.current {
		h.candidate, h.count = "", 0
		return h.current
	}
	if raw == h.candidate {
		h.count++
	} else {
		h.candidate, h.count = raw, 1
	}
	if h.count >= h.Confirmations {
		h.current = stepToward(h.current, raw)
		h.candidate, h.count = "", 0
	}
	return h.current
}

func level(r models.Regime) int {
	for i, x := range models.Regimes {
		if x == r {
			return i
		}
	}
	return 0
}

func stepToward(from, to models.Regime) models.Regime {
	f, t := level(from), level(to)
	switch {
	case t > f:
		return models.Regimes[f+1]
	case t < f:
		return models.Regimes[f-1]
	default:
		return from
	}
}
