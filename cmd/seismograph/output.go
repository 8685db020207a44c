package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"seismograph/internal/domain/models"
	"seismograph/internal/services/regimestats"
)

const rule = "============================================================"

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exposureLabel names the position size the way a trader would say it.
func exposureLabel(live *models.LiveState) string {
	switch {
	case !live.IsInvested:
		return "CASH (RISK OFF)"
	case live.ExposurePct >= 100:
		return "FULL EXPOSURE"
	case live.ExposurePct >= 50:
		return "PARTIAL EXPOSURE"
	default:
		return "MINIMAL EXPOSURE"
	}
}

func criticalityLabel(score float64) string {
	switch {
	case score > 80:
		return "CRITICAL"
	case score > 60:
		return "HIGH ENERGY"
	default:
		return "STABLE"
	}
}

func printLiveState(w io.Writer, live *models.LiveState, detailed bool) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "MARKET STATUS: %s  (as of %s)\n", live.Symbol, live.AsOf.Format(models.DateLayout))
	fmt.Fprintln(w, rule)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Status:\t%s\n", exposureLabel(live))
	fmt.Fprintf(tw, "Exposure:\t%.1f%%\n", live.ExposurePct)
	fmt.Fprintf(tw, "Regime:\t%s / %s\n", live.Regime, live.Phase)
	fmt.Fprintf(tw, "Criticality:\t%.1f/100 %s\n", live.Criticality, criticalityLabel(live.Criticality))
	fmt.Fprintf(tw, "Trend:\t%s\n", live.TrendSignal)
	if len(live.Reasons) > 0 {
		reasons := make([]string, len(live.Reasons))
		for i, r := range live.Reasons {
			reasons[i] = string(r)
		}
		fmt.Fprintf(tw, "Drivers:\t%s\n", strings.Join(reasons, ", "))
	}
	if detailed {
		raw := live.Raw
		fmt.Fprintln(tw, "\t")
		fmt.Fprintf(tw, "Current Price:\t%.2f\n", raw.CurrentPrice)
		fmt.Fprintf(tw, "SMA:\t%.2f\n", raw.SMA)
		fmt.Fprintf(tw, "Price vs SMA:\t%+.2f%%\n", raw.PriceDeviationPct)
		fmt.Fprintf(tw, "Volatility:\t%.2f%% (pct rank %.0f)\n", raw.Volatility*100, raw.VolatilityPercentile)
		fmt.Fprintf(tw, "Drawdown:\t%.2f%%\n", raw.Drawdown*100)
		fmt.Fprintf(tw, "Strategy:\t%s\n", strings.ToUpper(raw.StrategyMode))
		fmt.Fprintf(tw, "  High Stress:\t%.0f%%\n", raw.HighStressExposure)
		fmt.Fprintf(tw, "  Medium Stress:\t%.0f%%\n", raw.MediumStressExposure)
		fmt.Fprintf(tw, "  Bear Market:\t%.0f%%\n", raw.BearMarketExposure)
	}
	_ = tw.Flush()
	fmt.Fprintln(w, rule)
}

func printSimulation(w io.Writer, symbol string, res *models.SimulationResult) {
	s := res.Summary
	fmt.Fprintf(w, "SIMULATION: %s  %s  %s -> %s (%d days)\n", strings.ToUpper(symbol), s.StrategyName,
		s.StartDate.Format(models.DateLayout), s.EndDate.Format(models.DateLayout), s.TotalDays)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tStrategy\tBuy & Hold\t")
	fmt.Fprintf(tw, "Final value\t%.2f\t%.2f\t\n", s.Strategy.FinalValue, s.Benchmark.FinalValue)
	fmt.Fprintf(tw, "Total return\t%.2f%%\t%.2f%%\t\n", s.Strategy.TotalReturnPct, s.Benchmark.TotalReturnPct)
	fmt.Fprintf(tw, "Max drawdown\t%.2f%%\t%.2f%%\t\n", s.Strategy.MaxDrawdownPct, s.Benchmark.MaxDrawdownPct)
	fmt.Fprintf(tw, "Annualized vol\t%.2f%%\t%.2f%%\t\n", s.Strategy.AnnualizedVolPct, s.Benchmark.AnnualizedVolPct)
	fmt.Fprintf(tw, "Return / vol\t%.2f\t%.2f\t\n", s.Strategy.ReturnToVolRatio, s.Benchmark.ReturnToVolRatio)
	fmt.Fprintf(tw, "Avg exposure\t%.1f%%\t%.1f%%\t\n", s.Strategy.AvgExposurePct, s.Benchmark.AvgExposurePct)
	fmt.Fprintf(tw, "Trades\t%d\t%d\t\n", s.Strategy.TradeCount, s.Benchmark.TradeCount)
	_ = tw.Flush()

	fmt.Fprintf(w, "Outperformance: %+.2f%% (%+.2f)  Drawdown protection: %+.2f pts\n",
		s.OutperformancePct, s.OutperformanceAbs, s.DrawdownProtection)
	fmt.Fprintf(w, "Fees: %.2f  Interest: %.2f  Net friction: %+.2f\n", s.TotalFees, s.TotalInterest, s.NetFriction)
	fmt.Fprintf(w, "Days fully invested: %d  partial: %d  cash: %d\n", s.DaysFullyInvested, s.DaysPartial, s.DaysInCash)
}

func printForensics(w io.Writer, symbol string, m *models.CrashMetrics) {
	fmt.Fprintf(w, "CRASH FORENSICS: %s\n", strings.ToUpper(symbol))
	fmt.Fprintf(w, "Crashes: %d  detected: %d (%.0f%%)  avg lead time: %.1f days  avg depth: %.1f%%\n",
		m.TotalCrashes, m.DetectedCrashes, m.DetectionRate, m.AvgLeadTimeDays, m.AvgCrashDepth*100)
	fmt.Fprintf(w, "Signals: %d  justified: %d  false alarms: %d (%.0f%%)\n",
		m.TotalSignals, m.JustifiedSignals, m.FalseAlarms, m.FalseAlarmRate)
	if len(m.Crashes) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tMAX LOSS\tDAYS\tDETECTED\tLEAD")
	for _, c := range m.Crashes {
		lead := "-"
		if c.Detected {
			lead = fmt.Sprintf("%dd", c.LeadTimeDays)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t%d\t%t\t%s\n",
			c.Start.Format(models.DateLayout), c.End.Format(models.DateLayout), c.MaxLoss*100, c.DurationDays, c.Detected, lead)
	}
	_ = tw.Flush()
}

func printRegimeStats(w io.Writer, symbol string, stats *models.RegimeStats) {
	fmt.Fprintf(w, "REGIME STATISTICS: %s (%d bars)\n", strings.ToUpper(symbol), stats.TotalBars)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"LABEL", "FREQ", "BLOCKS", "MEAN", "MEDIAN", "P95", "MAX", "DURING"}
	for _, h := range regimestats.DefaultHorizons {
		header = append(header, fmt.Sprintf("FWD %dD", h))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range stats.Rows {
		cols := []string{
			r.Label,
			fmt.Sprintf("%.1f%%", r.FrequencyPct),
			fmt.Sprintf("%d", r.Blocks),
			fmt.Sprintf("%.1f", r.MeanDuration),
			fmt.Sprintf("%.1f", r.MedianDuration),
			fmt.Sprintf("%.1f", r.P95Duration),
			fmt.Sprintf("%d", r.MaxDuration),
			fmt.Sprintf("%+.2f%%", r.AvgChangeDuringPct),
		}
		for _, h := range regimestats.DefaultHorizons {
			if v, ok := r.ForwardReturns[h]; ok {
				cols = append(cols, fmt.Sprintf("%+.2f%%", v))
			} else {
				cols = append(cols, "-")
			}
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	_ = tw.Flush()
}

func printAudit(w io.Writer, symbol string, r *models.AuditReport) {
	fmt.Fprintf(w, "STRATEGY AUDIT: %s  %s  %s -> %s\n", strings.ToUpper(symbol), r.StrategyName,
		r.PeriodStart.Format(models.DateLayout), r.PeriodEnd.Format(models.DateLayout))

	d := r.Defensive
	fmt.Fprintf(w, "Defensive: %d of %d days (%.1f%%), %d in cash, %d critical; %d phases, avg %.1f / max %d days\n",
		d.DefensiveDays, r.TotalDays, d.PctTimeDefensive, d.CashDays, d.CriticalDays, d.Phases, d.AvgPhaseDuration, d.MaxPhaseDuration)
	p := r.Protection
	fmt.Fprintf(w, "While defensive: asset %+.2f%%, strategy %+.2f%%, delta %+.2f%%, efficiency %.1f%%\n",
		p.BenchmarkReturnPct, p.StrategyReturnPct, p.DeltaPct, p.EfficiencyPct)
	fa := r.FalseAlarms
	fmt.Fprintf(w, "Alerts: %d  true: %d (%.0f%%)  false: %d (%.0f%%)  insurance cost: %.2f%%\n",
		fa.TotalAlerts, fa.TrueAlerts, fa.TrueAlertRate, fa.FalseAlarms, fa.FalseAlarmRate, fa.InsuranceCostPct)

	dd := r.Drawdowns
	fmt.Fprintf(w, "Drawdowns: protected %d  late %d  missed %d  (protection rate %.0f%%)\n",
		dd.Protected, dd.Late, dd.Missed, dd.ProtectionRate)
	if len(dd.Events) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TROUGH\tDRAWDOWN\tPRIOR EXP\tTROUGH EXP\tSTATUS")
	for _, e := range dd.Events {
		fmt.Fprintf(tw, "%s\t%.1f%%\t%.0f%%\t%.0f%%\t%s\n",
			e.Date.Format(models.DateLayout), e.DrawdownPct, e.PriorExposurePct, e.TroughExposurePct, strings.ToUpper(string(e.Status)))
	}
	_ = tw.Flush()
}

func printPortfolio(w io.Writer, r *models.PortfolioReport) {
	st := r.State
	fmt.Fprintf(w, "PORTFOLIO RISK  (as of %s, %s)\n", st.Date.Format(models.DateLayout), r.Period)
	fmt.Fprintf(w, "Criticality: %.1f/100 %s  Regime: %s (raw %s)\n",
		st.Criticality, criticalityLabel(st.Criticality), st.Regime, st.RawRegime)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tWEIGHT\tCRITICALITY\tREGIME\tPHASE")
	for _, a := range r.Assets {
		fmt.Fprintf(tw, "%s\t%.1f%%\t%.1f\t%s\t%s\n", a.Symbol, a.Weight*100, a.State.Criticality, a.State.Regime, a.State.Phase)
	}
	_ = tw.Flush()

	if len(st.TopContributors) > 0 {
		fmt.Fprintln(w, "Top risk contributors:")
		for _, c := range st.TopContributors {
			fmt.Fprintf(w, "  %-8s %5.1f%% of risk\n", c.Symbol, c.ContributionPct)
		}
	}
}
