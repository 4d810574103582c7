// Package risk classifies transactions against a user's spending profile.
package risk

import (
	"sync"

	apperr "featurestore/internal/errors"

	"github.com/shopspring/decimal"
)

type Decision string

const (
	DecisionApprove   Decision = "Approve"
	DecisionChallenge Decision = "Challenge"
)

// Thresholds parameterise the challenge rule: an amount is challenged when
// it exceeds both Multiplier times the historical average and Floor.
type Thresholds struct {
	Multiplier decimal.Decimal `json:"multiplier"`
	Floor      decimal.Decimal `json:"floor"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Multiplier: decimal.NewFromInt(5),
		Floor:      decimal.NewFromInt(300),
	}
}

func (t Thresholds) Validate() error {
	if !t.Multiplier.IsPositive() {
		return apperr.Newf(apperr.ErrValidation, "multiplier must be greater than zero")
	}
	if !t.Floor.IsPositive() {
		return apperr.Newf(apperr.ErrValidation, "floor must be greater than zero")
	}
	return nil
}

// Classify applies the challenge rule. Both comparisons are strict, so an
// amount equal to the floor is never challenged.
func Classify(amount, historicalAvg decimal.Decimal, t Thresholds) Decision {
	if amount.GreaterThan(historicalAvg.Mul(t.Multiplier)) && amount.GreaterThan(t.Floor) {
		return DecisionChallenge
	}
	return DecisionApprove
}

// Evaluator holds the live thresholds. They can be replaced at runtime
// while classifications are in flight.
type Evaluator struct {
	mu         sync.RWMutex
	thresholds Thresholds
}

func NewEvaluator(t Thresholds) (*Evaluator, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{thresholds: t}, nil
}

func (e *Evaluator) Classify(amount, historicalAvg decimal.Decimal) Decision {
	return Classify(amount, historicalAvg, e.Thresholds())
}

func (e *Evaluator) Thresholds() Thresholds {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.thresholds
}

func (e *Evaluator) SetThresholds(t Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	e.thresholds = t
	e.mu.Unlock()
	return nil
}
