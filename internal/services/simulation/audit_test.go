package simulation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seismograph/internal/domain/models"
	"seismograph/internal/testutil"
)

// stressResult is 30 calm days, a 10 day slide from 98 to 80 spent at 20%
// exposure, then a 20 day recovery fully invested.
func stressResult() *models.SimulationResult {
	closes := testutil.Concat(testutil.Flat(100, 30), testutil.Linear(98, 80, 10), testutil.Linear(80.5, 90, 20))
	daily := make([]models.SimulationState, len(closes))
	for i, c := range closes {
		exposure := 1.0
		strat := 10000.0
		if i >= 30 && i < 40 {
			exposure = 0.2
			strat = 10000 - (100-c)*20
		} else if i >= 40 {
			strat = 9600 * c / 80
		}
		daily[i] = models.SimulationState{
			Date:              testutil.Start.AddDate(0, 0, i),
			Close:             c,
			SMA:               50,
			RealizedExposure:  exposure,
			TargetExposure:    exposure,
			StrategyValue:     strat,
			BenchmarkValue:    c * 100,
			BenchmarkDrawdown: c/100 - 1,
		}
	}
	return &models.SimulationResult{
		Summary: models.SimulationSummary{StrategyName: ProfileDefensive},
		Daily:   daily,
	}
}

func TestAuditStressEpisode(t *testing.T) {
	rep, err := Audit(stressResult())
	require.NoError(t, err)

	assert.Equal(t, 60, rep.TotalDays)
	assert.Equal(t, ProfileDefensive, rep.StrategyName)

	assert.Equal(t, 10, rep.Defensive.DefensiveDays)
	assert.Equal(t, 0, rep.Defensive.CashDays)
	assert.Equal(t, 10, rep.Defensive.CriticalDays)
	assert.Equal(t, 1, rep.Defensive.Phases)
	assert.Equal(t, 10, rep.Defensive.MaxPhaseDuration)
	assert.InDelta(t, 100.0/6, rep.Defensive.PctTimeDefensive, 1e-9)

	assert.InDelta(t, -20, rep.Protection.BenchmarkReturnPct, 1e-9)
	assert.InDelta(t, -4, rep.Protection.StrategyReturnPct, 1e-9)
	assert.InDelta(t, 80, rep.Protection.EfficiencyPct, 1e-6)

	require.Len(t, rep.Drawdowns.Events, 1)
	ev := rep.Drawdowns.Events[0]
	assert.Equal(t, testutil.Start.AddDate(0, 0, 39), ev.Date)
	assert.Equal(t, models.DrawdownProtected, ev.Status)
	assert.InDelta(t, 20, ev.TroughExposurePct, 1e-9)
	assert.Equal(t, 100.0, rep.Drawdowns.ProtectionRate)

	assert.Equal(t, 1, rep.FalseAlarms.TotalAlerts)
	assert.Equal(t, 1, rep.FalseAlarms.TrueAlerts)
	assert.Equal(t, 0.0, rep.FalseAlarms.FalseAlarmRate)
	assert.Equal(t, 0.0, rep.FalseAlarms.InsuranceCostPct)
}

func TestAuditFalseAlarmOnRisingPhase(t *testing.T) {
	res := stressResult()
	for i := 30; i < 40; i++ {
		res.Daily[i].Close = 100 + float64(i-29)
	}
	rep, err := Audit(res)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.FalseAlarms.FalseAlarms)
	assert.Equal(t, 100.0, rep.FalseAlarms.FalseAlarmRate)
	assert.InDelta(t, 9/101.0*100, rep.FalseAlarms.InsuranceCostPct, 1e-9)
}

func TestAuditNeedsThirtyRows(t *testing.T) {
	res := stressResult()
	res.Daily = res.Daily[:29]
	_, err := Audit(res)
	assert.True(t, errors.Is(err, models.ErrInsufficientHistory))

	_, err = Audit(nil)
	assert.True(t, errors.Is(err, models.ErrInsufficientHistory))
}
