package models

import "time"

// PortfolioAsset is one weighted holding with its computed state.
type PortfolioAsset struct {
	Symbol string      `json:"symbol"`
	Weight float64     `json:"weight"`
	State  MarketState `json:"state"`
}

// RiskContributor is one asset's share of portfolio criticality.
type RiskContributor struct {
	Symbol          string  `json:"symbol"`
	Weight          float64 `json:"weight"`
	Criticality     float64 `json:"criticality"`
	Contribution    float64 `json:"contribution"`
	ContributionPct float64 `json:"contribution_pct"`
}

// PortfolioState is the aggregated risk state of a portfolio at one date.
type PortfolioState struct {
	Date            time.Time         `json:"date"`
	Criticality     float64           `json:"criticality"`
	RawRegime       Regime            `json:"raw_regime"`
	Regime          Regime            `json:"regime"`
	TopContributors []RiskContributor `json:"top_contributors"`
}

// PortfolioReport is a portfolio's current smoothed state with its inputs.
type PortfolioReport struct {
	Period  string           `json:"period"`
	State   PortfolioState   `json:"state"`
	Assets  []PortfolioAsset `json:"assets"`
	History []PortfolioState `json:"history,omitempty"`
}
