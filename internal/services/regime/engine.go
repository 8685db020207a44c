package regime

import (
	"fmt"

	"seismograph/internal/domain/models"
	domsvc "seismograph/internal/domain/service"
	"seismograph/internal/services/features"
)

// Engine turns a bar history into a causal stream of market states.
type Engine struct {
	pipeline   *features.Pipeline
	classifier *Classifier
}

var _ domsvc.StateEngine = (*Engine)(nil)

// NewEngine pairs a feature pipeline with a classifier.
func NewEngine(pipeline *features.Pipeline, classifier *Classifier) *Engine {
	return &Engine{pipeline: pipeline, classifier: classifier}
}

// NewDefaultEngine builds an engine with production windows and calibration.
func NewDefaultEngine() (*Engine, error) {
	p, err := features.NewPipeline()
	if err != nil {
		return nil, err
	}
	c, err := NewClassifier(DefaultConfig())
	if err != nil {
		return nil, err
	}
	return NewEngine(p, c), nil
}

// MinLookback is the smallest history that yields a state.
func (e *Engine) MinLookback() int { return e.pipeline.MinLookback() }

// Floor is the index of the first classifiable bar.
func (e *Engine) Floor() int { return e.pipeline.MinLookback() - 1 }

// Classifier exposes the calibration in use.
func (e *Engine) Classifier() *Classifier { return e.classifier }

// StateAt classifies bar i from bars[0..i].
func (e *Engine) StateAt(bars []models.PriceBar, i int) (models.MarketState, error) {
	row, err := e.pipeline.Compute(bars, i)
	if err != nil {
		return models.MarketState{}, fmt.Errorf("state at %d: %w", i, err)
	}
	return e.classifier.Classify(row), nil
}

// States classifies every bar from the floor to the end. States[k] belongs to
// bar Floor()+k and equals StateAt(bars, Floor()+k).
func (e *Engine) States(bars []models.PriceBar) ([]models.MarketState, error) {
	rows, err := e.pipeline.ComputeAll(bars)
	if err != nil {
		return nil, fmt.Errorf("state stream: %w", err)
	}
	out := make([]models.MarketState, len(rows))
	for k, row := range rows {
		out[k] = e.classifier.Classify(row)
	}
	return out, nil
}
