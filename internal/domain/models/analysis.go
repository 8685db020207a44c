package models

import "time"

// RegimeBlock is a maximal run of consecutive bars sharing one label.
type RegimeBlock struct {
	Label      string    `json:"label"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	StartIndex int       `json:"start_index"`
	Bars       int       `json:"bars"`
}

// RegimeStatsRow aggregates all blocks of one label.
type RegimeStatsRow struct {
	Label              string          `json:"label"`
	Blocks             int             `json:"blocks"`
	Bars               int             `json:"bars"`
	MinDuration        int             `json:"min_duration"`
	MeanDuration       float64         `json:"mean_duration"`
	MedianDuration     float64         `json:"median_duration"`
	P95Duration        float64         `json:"p95_duration"`
	MaxDuration        int             `json:"max_duration"`
	StdDuration        float64         `json:"std_duration"`
	FrequencyPct       float64         `json:"frequency_pct"`
	AvgChangeDuringPct float64         `json:"avg_change_during_pct"`
	ForwardReturns     map[int]float64 `json:"forward_returns_pct"`
	BackwardReturns    map[int]float64 `json:"backward_returns_pct"`
}

// RegimeStats is the per-label duration and frequency table.
type RegimeStats struct {
	TotalBars int              `json:"total_bars"`
	Rows      []RegimeStatsRow `json:"rows"`
}

// Row returns the row for label, if present.
func (s *RegimeStats) Row(label string) (RegimeStatsRow, bool) {
	for _, r := range s.Rows {
		if r.Label == label {
			return r, true
		}
	}
	return RegimeStatsRow{}, false
}

// CrashEvent is a ground-truth drawdown event graded against warnings.
type CrashEvent struct {
	Start        time.Time  `json:"start"`
	End          time.Time  `json:"end"`
	MaxLoss      float64    `json:"max_loss"`
	DurationDays int        `json:"duration_days"`
	Detected     bool       `json:"detected"`
	FirstWarning *time.Time `json:"first_warning,omitempty"`
	LeadTimeDays int        `json:"lead_time_days"`
}

// SignalBlock is a sustained run of warning states.
type SignalBlock struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Bars      int       `json:"bars"`
	Justified bool      `json:"justified"`
}

// CrashMetrics grades classifier warnings against ground-truth crashes.
type CrashMetrics struct {
	Crashes          []CrashEvent  `json:"crashes"`
	Signals          []SignalBlock `json:"signals"`
	TotalCrashes     int           `json:"total_crashes"`
	AvgCrashDepth    float64       `json:"avg_crash_depth"`
	DetectedCrashes  int           `json:"detected_crashes"`
	DetectionRate    float64       `json:"detection_rate"`
	AvgLeadTimeDays  float64       `json:"avg_lead_time_days"`
	TotalSignals     int           `json:"total_signals"`
	JustifiedSignals int           `json:"justified_signals"`
	FalseAlarms      int           `json:"false_alarms"`
	FalseAlarmRate   float64       `json:"false_alarm_rate"`
}

// AuditReport describes how the strategy behaved during stress.
type AuditReport struct {
	StrategyName string            `json:"strategy_name"`
	TotalDays    int               `json:"total_days"`
	Defensive    DefensiveStats    `json:"defensive"`
	Protection   ProtectionStats   `json:"protection"`
	Drawdowns    DrawdownChecklist `json:"drawdowns"`
	FalseAlarms  PhaseAlarmStats   `json:"false_alarms"`
	PeriodStart  time.Time         `json:"period_start"`
	PeriodEnd    time.Time         `json:"period_end"`
}

// DefensiveStats counts days and phases with reduced exposure.
type DefensiveStats struct {
	DefensiveDays    int     `json:"defensive_days"`
	CashDays         int     `json:"cash_days"`
	CriticalDays     int     `json:"critical_days"`
	PctTimeDefensive float64 `json:"pct_time_defensive"`
	Phases           int     `json:"phases"`
	AvgPhaseDuration float64 `json:"avg_phase_duration"`
	MaxPhaseDuration int     `json:"max_phase_duration"`
}

// ProtectionStats compares returns while defensive.
type ProtectionStats struct {
	BenchmarkReturnPct float64 `json:"benchmark_return_pct"`
	StrategyReturnPct  float64 `json:"strategy_return_pct"`
	DeltaPct           float64 `json:"delta_pct"`
	EfficiencyPct      float64 `json:"efficiency_pct"`
}

// DrawdownStatus grades the strategy at a historical drawdown trough.
type DrawdownStatus string

const (
	DrawdownProtected DrawdownStatus = "protected"
	DrawdownLate      DrawdownStatus = "late"
	DrawdownMissed    DrawdownStatus = "missed"
)

// DrawdownCheck is one graded trough.
type DrawdownCheck struct {
	Date              time.Time      `json:"date"`
	DrawdownPct       float64        `json:"drawdown_pct"`
	PriorExposurePct  float64        `json:"prior_exposure_pct"`
	TroughExposurePct float64        `json:"trough_exposure_pct"`
	Status            DrawdownStatus `json:"status"`
}

// DrawdownChecklist grades the worst benchmark drawdowns.
type DrawdownChecklist struct {
	Events         []DrawdownCheck `json:"events"`
	Protected      int             `json:"protected"`
	Late           int             `json:"late"`
	Missed         int             `json:"missed"`
	ProtectionRate float64         `json:"protection_rate"`
}

// DefensivePhase is one contiguous run of reduced exposure.
type DefensivePhase struct {
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Bars           int       `json:"bars"`
	PhaseReturnPct float64   `json:"phase_return_pct"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
}

// PhaseAlarmStats classifies defensive phases by what the asset did.
type PhaseAlarmStats struct {
	TotalAlerts      int              `json:"total_alerts"`
	FalseAlarms      int              `json:"false_alarms"`
	TrueAlerts       int              `json:"true_alerts"`
	FalseAlarmRate   float64          `json:"false_alarm_rate"`
	TrueAlertRate    float64          `json:"true_alert_rate"`
	InsuranceCostPct float64          `json:"insurance_cost_pct"`
	FalseAlarmPhases []DefensivePhase `json:"false_alarm_phases"`
	TrueAlertPhases  []DefensivePhase `json:"true_alert_phases"`
}
