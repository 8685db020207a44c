// Package forensics grades warning states against ground-truth crashes.
package forensics

import (
	"math"

	"seismograph/internal/domain/models"
	"seismograph/internal/services/features"
)

// Config defines what counts as a crash and how warnings are matched to it.
type Config struct {
	CrashThreshold    float64 `yaml:"crash_threshold" json:"crash_threshold" default:"-0.20" validate:"lt=0"`
	PeakWindow        int     `yaml:"peak_window" json:"peak_window" default:"90" validate:"gte=1"`
	MinDurationDays   int     `yaml:"min_duration_days" json:"min_duration_days" default:"5" validate:"gte=0"`
	MergeGapDays      int     `yaml:"merge_gap_days" json:"merge_gap_days" default:"90" validate:"gte=0"`
	LookbackDays      int     `yaml:"lookback_days" json:"lookback_days" default:"21" validate:"gte=0"`
	LookaheadDays     int     `yaml:"lookahead_days" json:"lookahead_days" default:"7" validate:"gte=0"`
	MinSignalBars     int     `yaml:"min_signal_bars" json:"min_signal_bars" default:"3" validate:"gte=1"`
	JustifyWindowDays int     `yaml:"justify_window_days" json:"justify_window_days" default:"30" validate:"gte=0"`
}

// DefaultConfig returns the production crash definition.
func DefaultConfig() Config {
	return Config{
		CrashThreshold:    -0.20,
		PeakWindow:        90,
		MinDurationDays:   5,
		MergeGapDays:      90,
		LookbackDays:      21,
		LookaheadDays:     7,
		MinSignalBars:     3,
		JustifyWindowDays: 30,
	}
}

// DetectCrashes finds runs of bars trading below the crash threshold measured
// from the trailing peak. Short runs are dropped and runs separated by at
// most MergeGapDays are joined into one event.
func DetectCrashes(bars []models.PriceBar, cfg Config) []models.CrashEvent {
	if len(bars) == 0 {
		return nil
	}
	dd := features.RollingDrawdown(models.Closes(bars), cfg.PeakWindow)

	var raw []models.CrashEvent
	for i := 0; i < len(dd); {
		if !(dd[i] < cfg.CrashThreshold) {
			i++
			continue
		}
		j, loss := i, dd[i]
		for j+1 < len(dd) && dd[j+1] < cfg.CrashThreshold {
			j++
			loss = math.Min(loss, dd[j])
		}
		ev := models.CrashEvent{
			Start:        bars[i].Date,
			End:          bars[j].Date,
			MaxLoss:      loss,
			DurationDays: models.DaysBetween(bars[i].Date, bars[j].Date),
		}
		if ev.DurationDays >= cfg.MinDurationDays {
			raw = append(raw, ev)
		}
		i = j + 1
	}
	return merge(raw, cfg.MergeGapDays)
}

func merge(events []models.CrashEvent, gapDays int) []models.CrashEvent {
	var out []models.CrashEvent
	for _, ev := range events {
		if n := len(out); n > 0 && models.DaysBetween(out[n-1].End, ev.Start) <= gapDays {
			prev := &out[n-1]
			if ev.End.After(prev.End) {
				prev.End = ev.End
			}
			prev.MaxLoss = math.Min(prev.MaxLoss, ev.MaxLoss)
			prev.DurationDays = models.DaysBetween(prev.Start, prev.End)
			continue
		}
		out = append(out, ev)
	}
	return out
}
