package forensics

import (
	"fmt"
	"time"

	"seismograph/internal/domain/models"
)

// Input is a price history and the warning stream classified from it.
// Bars nil means no price column is available.
type Input struct {
	Bars   []models.PriceBar
	States []models.MarketState
}

// Analyzer grades warning states against crashes found in the prices.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates an analyzer with cfg.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze computes recall, lead time and false alarm rate of the warnings.
func (a *Analyzer) Analyze(in Input) (*models.CrashMetrics, error) {
	if in.Bars == nil {
		return &models.CrashMetrics{}, nil
	}
	if len(in.States) == 0 {
		return nil, fmt.Errorf("crash forensics: %w", &models.InsufficientHistoryError{Have: len(in.Bars), Need: 1})
	}

	crashes := DetectCrashes(in.Bars, a.cfg)
	m := &models.CrashMetrics{TotalCrashes: len(crashes)}

	var leadSum, depthSum float64
	for i := range crashes {
		c := &crashes[i]
		depthSum += c.MaxLoss
		from := c.Start.AddDate(0, 0, -a.cfg.LookbackDays)
		to := c.Start.AddDate(0, 0, a.cfg.LookaheadDays)
		first, ok := firstWarning(in.States, from, to)
		if !ok {
			continue
		}
		c.Detected = true
		c.FirstWarning = &first
		c.LeadTimeDays = max(models.DaysBetween(first, c.Start), 0)
		m.DetectedCrashes++
		leadSum += float64(c.LeadTimeDays)
	}
	m.Crashes = crashes
	if m.TotalCrashes > 0 {
		m.DetectionRate = float64(m.DetectedCrashes) / float64(m.TotalCrashes) * 100
		m.AvgCrashDepth = depthSum / float64(m.TotalCrashes)
	}
	if m.DetectedCrashes > 0 {
		m.AvgLeadTimeDays = leadSum / float64(m.DetectedCrashes)
	}

	m.Signals = a.signalBlocks(in.States, crashes)
	m.TotalSignals = len(m.Signals)
	for _, s := range m.Signals {
		if s.Justified {
			m.JustifiedSignals++
		}
	}
	m.FalseAlarms = m.TotalSignals - m.JustifiedSignals
	if m.TotalSignals > 0 {
		m.FalseAlarmRate = (1 - float64(m.JustifiedSignals)/float64(m.TotalSignals)) * 100
	}
	return m, nil
}

func firstWarning(states []models.MarketState, from, to time.Time) (time.Time, bool) {
	for _, s := range states {
		if s.Date.Before(from) {
			continue
		}
		if s.Date.After(to) {
			break
		}
		if s.IsWarning() {
			return s.Date, true
		}
	}
	return time.Time{}, false
}

// signalBlocks returns warning runs of at least MinSignalBars bars.
func (a *Analyzer) signalBlocks(states []models.MarketState, crashes []models.CrashEvent) []models.SignalBlock {
	var out []models.SignalBlock
	for i := 0; i < len(states); {
		if !states[i].IsWarning() {
			i++
			continue
		}
		j := i
		for j+1 < len(states) && states[j+1].IsWarning() {
			j++
		}
		if n := j - i + 1; n >= a.cfg.MinSignalBars {
			start := states[i].Date
			limit := start.AddDate(0, 0, a.cfg.JustifyWindowDays)
			justified := false
			for _, c := range crashes {
				if !c.Start.Before(start) && !c.Start.After(limit) {
					justified = true
					break
				}
			}
			out = append(out, models.SignalBlock{
				Start:     start,
				End:       states[j].Date,
				Bars:      n,
				Justified: justified,
			})
		}
		i = j + 1
	}
	return out
}
