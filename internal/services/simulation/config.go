package simulation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"seismograph/internal/domain/models"
)

const (
	ProfileDefensive  = "defensive"
	ProfileAggressive = "aggressive"
)

// TradeEpsilon is the smallest exposure change that counts as a trade.
const TradeEpsilon = 0.001

var profiles = map[string]models.StrategyConfig{
	ProfileDefensive: {
		Name:                 ProfileDefensive,
		HighStressExposure:   0.2,
		MediumStressExposure: 0.5,
		BearMarketExposure:   0.0,
		TradingFeePct:        0.001,
		InterestRateAnnual:   0.04,
		InitialCapital:       10000,
	},
	ProfileAggressive: {
		Name:                 ProfileAggressive,
		HighStressExposure:   0.5,
		MediumStressExposure: 1.0,
		BearMarketExposure:   0.0,
		TradingFeePct:        0.001,
		InterestRateAnnual:   0.04,
		InitialCapital:       10000,
	},
}

// ProfileNames lists the predefined strategies.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Profile returns a predefined strategy by name.
func Profile(name string) (models.StrategyConfig, error) {
	cfg, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return models.StrategyConfig{}, &models.ConfigError{
			Field:  "strategy",
			Reason: fmt.Sprintf("unknown profile %q (want one of %s)", name, strings.Join(ProfileNames(), ", ")),
		}
	}
	return cfg, nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks exposure fractions, friction and capital.
func Validate(cfg models.StrategyConfig) error {
	err := getValidator().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &models.ConfigError{
			Field:  toSnake(fe.Field()),
			Reason: fmt.Sprintf("failed %s=%s, got %v", fe.Tag(), fe.Param(), fe.Value()),
		}
	}
	return &models.ConfigError{Reason: err.Error()}
}

// ParseStrategyConfig applies named overrides on top of base.
func ParseStrategyConfig(base models.StrategyConfig, overrides map[string]float64) (models.StrategyConfig, error) {
	cfg := base
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := overrides[k]
		switch k {
		case "high_stress_exposure":
			cfg.HighStressExposure = v
		case "medium_stress_exposure":
			cfg.MediumStressExposure = v
		case "bear_market_exposure":
			cfg.BearMarketExposure = v
		case "trading_fee_pct":
			cfg.TradingFeePct = v
		case "interest_rate_annual":
			cfg.InterestRateAnnual = v
		case "initial_capital":
			cfg.InitialCapital = v
		default:
			return models.StrategyConfig{}, &models.ConfigError{Field: k, Reason: "unknown strategy key"}
		}
	}
	if err := Validate(cfg); err != nil {
		return models.StrategyConfig{}, err
	}
	return cfg, nil
}

// ExposureFor maps a market state to the target invested fraction.
func ExposureFor(state models.MarketState, cfg models.StrategyConfig) float64 {
	if state.Trend == models.TrendDown {
		return cfg.BearMarketExposure
	}
	switch state.Regime {
	case models.RegimeRed:
		return cfg.HighStressExposure
	case models.RegimeYellow:
		return cfg.MediumStressExposure
	default:
		return 1.0
	}
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Resolve looks up a predefined profile and applies overrides. An empty name
// selects the defensive profile.
func Resolve(name string, overrides map[string]float64) (models.StrategyConfig, error) {
	if strings.TrimSpace(name) == "" {
		name = ProfileDefensive
	}
	base, err := Profile(name)
	if err != nil {
		return models.StrategyConfig{}, err
	}
	return ParseStrategyConfig(base, overrides)
}
