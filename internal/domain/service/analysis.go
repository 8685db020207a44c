package service

import (
	"seismograph/internal/domain/models"
)

// StateEngine classifies a bar history into a causal state stream.
type StateEngine interface {
	StateAt(bars []models.PriceBar, i int) (models.MarketState, error)
	States(bars []models.PriceBar) ([]models.MarketState, error)
	MinLookback() int
}
