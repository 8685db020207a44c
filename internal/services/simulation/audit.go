package simulation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"seismograph/internal/domain/models"
)

// AuditConfig tunes the stress audit.
type AuditConfig struct {
	MinRows            int
	CriticalExposure   float64
	Candidates         int
	Events             int
	ClusterDays        int
	PriorOffsetDays    int
	PriorBars          int
	DefensivePrior     float64
	ProtectedTrough    float64
	LateTrough         float64
	FalseAlarmDrawdown float64
	DetailLimit        int
}

// DefaultAuditConfig returns the production audit settings.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		MinRows:            30,
		CriticalExposure:   0.2,
		Candidates:         20,
		Events:             5,
		ClusterDays:        30,
		PriorOffsetDays:    7,
		PriorBars:          7,
		DefensivePrior:     0.8,
		ProtectedTrough:    0.5,
		LateTrough:         0.8,
		FalseAlarmDrawdown: -5,
		DetailLimit:        5,
	}
}

// Audit grades how a simulated strategy behaved during stress.
func Audit(result *models.SimulationResult) (*models.AuditReport, error) {
	return AuditWith(result, DefaultAuditConfig())
}

// AuditWith is Audit with explicit settings.
func AuditWith(result *models.SimulationResult, cfg AuditConfig) (*models.AuditReport, error) {
	if result == nil || len(result.Daily) < cfg.MinRows {
		have := 0
		if result != nil {
			have = len(result.Daily)
		}
		return nil, fmt.Errorf("audit: %w", &models.InsufficientHistoryError{Have: have, Need: cfg.MinRows})
	}
	daily := result.Daily
	phases := defensivePhases(daily)

	return &models.AuditReport{
		StrategyName: result.Summary.StrategyName,
		TotalDays:    len(daily),
		Defensive:    defensiveStats(daily, phases, cfg),
		Protection:   protectionStats(daily),
		Drawdowns:    drawdownChecklist(daily, cfg),
		FalseAlarms:  phaseAlarms(daily, phases, cfg),
		PeriodStart:  daily[0].Date,
		PeriodEnd:    daily[len(daily)-1].Date,
	}, nil
}

type span struct{ start, end int }

func (s span) bars() int { return s.end - s.start + 1 }

func isDefensive(d models.SimulationState) bool { return d.RealizedExposure < 1 }

func defensivePhases(daily []models.SimulationState) []span {
	var out []span
	for i := 0; i < len(daily); {
		if !isDefensive(daily[i]) {
			i++
			continue
		}
		j := i
		for j+1 < len(daily) && isDefensive(daily[j+1]) {
			j++
		}
		out = append(out, span{i, j})
		i = j + 1
	}
	return out
}

func defensiveStats(daily []models.SimulationState, phases []span, cfg AuditConfig) models.DefensiveStats {
	var st models.DefensiveStats
	for _, d := range daily {
		if isDefensive(d) {
			st.DefensiveDays++
		}
		if d.RealizedExposure <= 0 {
			st.CashDays++
		}
		if d.RealizedExposure <= cfg.CriticalExposure || d.Close < d.SMA {
			st.CriticalDays++
		}
	}
	st.PctTimeDefensive = float64(st.DefensiveDays) / float64(len(daily)) * 100
	st.Phases = len(phases)
	if len(phases) > 0 {
		total := 0
		for _, p := range phases {
			total += p.bars()
			if p.bars() > st.MaxPhaseDuration {
				st.MaxPhaseDuration = p.bars()
			}
		}
		st.AvgPhaseDuration = float64(total) / float64(len(phases))
	}
	return st
}

func protectionStats(daily []models.SimulationState) models.ProtectionStats {
	bench, strat := 1.0, 1.0
	seen := false
	for i, d := range daily {
		if !isDefensive(d) {
			continue
		}
		seen = true
		if i == 0 {
			continue
		}
		bench *= d.BenchmarkValue / daily[i-1].BenchmarkValue
		strat *= d.StrategyValue / daily[i-1].StrategyValue
	}
	if !seen {
		return models.ProtectionStats{}
	}
	benchRet, stratRet := bench-1, strat-1
	delta := (stratRet - benchRet) * 100
	eff := 0.0
	if benchRet < 0 {
		eff = math.Min(math.Abs(delta/(benchRet*100))*100, 100)
	}
	return models.ProtectionStats{
		BenchmarkReturnPct: benchRet * 100,
		StrategyReturnPct:  stratRet * 100,
		DeltaPct:           delta,
		EfficiencyPct:      eff,
	}
}

func drawdownChecklist(daily []models.SimulationState, cfg AuditConfig) models.DrawdownChecklist {
	idx := make([]int, 0, len(daily))
	for i, d := range daily {
		if d.BenchmarkDrawdown < 0 {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return daily[idx[a]].BenchmarkDrawdown < daily[idx[b]].BenchmarkDrawdown
	})
	if len(idx) > cfg.Candidates {
		idx = idx[:cfg.Candidates]
	}

	var out models.DrawdownChecklist
	var used []time.Time
	for _, i := range idx {
		d := daily[i]
		if nearAny(d.Date, used, cfg.ClusterDays) {
			continue
		}
		used = append(used, d.Date)

		prior, ok := priorExposure(daily, d.Date.AddDate(0, 0, -cfg.PriorOffsetDays), cfg.PriorBars)
		if !ok {
			continue
		}
		status := models.DrawdownMissed
		switch {
		case prior < cfg.DefensivePrior && d.RealizedExposure < cfg.ProtectedTrough:
			status = models.DrawdownProtected
		case d.RealizedExposure < cfg.LateTrough:
			status = models.DrawdownLate
		}
		out.Events = append(out.Events, models.DrawdownCheck{
			Date:              d.Date,
			DrawdownPct:       d.BenchmarkDrawdown * 100,
			PriorExposurePct:  prior * 100,
			TroughExposurePct: d.RealizedExposure * 100,
			Status:            status,
		})
		if len(out.Events) >= cfg.Events {
			break
		}
	}

	sort.SliceStable(out.Events, func(a, b int) bool {
		return out.Events[a].DrawdownPct < out.Events[b].DrawdownPct
	})
	for _, e := range out.Events {
		switch e.Status {
		case models.DrawdownProtected:
			out.Protected++
		case models.DrawdownLate:
			out.Late++
		default:
			out.Missed++
		}
	}
	if len(out.Events) > 0 {
		out.ProtectionRate = float64(out.Protected) / float64(len(out.Events)) * 100
	}
	return out
}

func nearAny(t time.Time, used []time.Time, days int) bool {
	for _, u := range used {
		if abs(models.DaysBetween(u, t)) < days {
			return true
		}
	}
	return false
}

// priorExposure averages the last n realized exposures dated on or before cutoff.
func priorExposure(daily []models.SimulationState, cutoff time.Time, n int) (float64, bool) {
	end := sort.Search(len(daily), func(i int) bool { return daily[i].Date.After(cutoff) })
	start := end - n
	if start < 0 {
		start = 0
	}
	if end <= start {
		return 0, false
	}
	sum := 0.0
	for _, d := range daily[start:end] {
		sum += d.RealizedExposure
	}
	return sum / float64(end-start), true
}

func phaseAlarms(daily []models.SimulationState, phases []span, cfg AuditConfig) models.PhaseAlarmStats {
	var st models.PhaseAlarmStats
	insurance := 0.0
	for _, p := range phases {
		if p.bars() < 2 {
			continue
		}
		first, last := daily[p.start], daily[p.end]
		ret := (last.Close/first.Close - 1) * 100
		peak, mdd := first.Close, 0.0
		for _, d := range daily[p.start : p.end+1] {
			peak = math.Max(peak, d.Close)
			mdd = math.Min(mdd, (d.Close/peak-1)*100)
		}
		phase := models.DefensivePhase{
			Start:          first.Date,
			End:            last.Date,
			Bars:           p.bars(),
			PhaseReturnPct: ret,
			MaxDrawdownPct: mdd,
		}
		if ret >= 0 || mdd > cfg.FalseAlarmDrawdown {
			st.FalseAlarms++
			if ret > 0 {
				insurance += ret
			}
			if len(st.FalseAlarmPhases) < cfg.DetailLimit {
				st.FalseAlarmPhases = append(st.FalseAlarmPhases, phase)
			}
			continue
		}
		st.TrueAlerts++
		if len(st.TrueAlertPhases) < cfg.DetailLimit {
			st.TrueAlertPhases = append(st.TrueAlertPhases, phase)
		}
	}
	st.TotalAlerts = st.FalseAlarms + st.TrueAlerts
	if st.TotalAlerts > 0 {
		st.FalseAlarmRate = float64(st.FalseAlarms) / float64(st.TotalAlerts) * 100
		st.TrueAlertRate = float64(st.TrueAlerts) / float64(st.TotalAlerts) * 100
	}
	st.InsuranceCostPct = insurance
	return st
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
