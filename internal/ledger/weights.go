package ledger

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/verte-zerg/gradebook/internal/model"
)

// ValidationReason names the weight constraint that failed.
type ValidationReason int

const (
	// ReasonOutOfRange means a single weight fell outside [0,1].
	ReasonOutOfRange ValidationReason = iota + 1
	// ReasonSumMismatch means the weights did not add up to exactly 1.
	ReasonSumMismatch
)

// ValidationError reports a rejected weight update.
type ValidationError struct {
	Reason ValidationReason
	Weight string
	Value  decimal.Decimal
	Sum    decimal.Decimal

	// Raw is set instead of Value when the input had no decimal form (NaN, Inf).
	Raw string
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonOutOfRange:
		value := e.Value.String()
		if e.Raw != "" {
			value = e.Raw
		}
		return fmt.Sprintf("%s weight %s must be between 0 and 1", e.Weight, value)
	case ReasonSumMismatch:
		return fmt.Sprintf("weights sum to %s, must sum to 1", e.Sum)
	default:
		return "invalid weights"
	}
}

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

// Validate checks that every weight is within [0,1] and the three sum to exactly 1.
func Validate(w model.Weights) error {
	named := []struct {
		name  string
		value decimal.Decimal
	}{
		{"regular", w.Regular},
		{"midterm", w.Midterm},
		{"final", w.Final},
	}
	for _, n := range named {
		if n.value.LessThan(zero) || n.value.GreaterThan(one) {
			return &ValidationError{Reason: ReasonOutOfRange, Weight: n.name, Value: n.value}
		}
	}
	if sum := w.Sum(); !sum.Equal(one) {
		return &ValidationError{Reason: ReasonSumMismatch, Sum: sum}
	}
	return nil
}

// FromFloat converts float weights, rejecting NaN and infinities with a
// ReasonOutOfRange error. The result still needs Validate.
func FromFloat(regular, midterm, final float64) (model.Weights, error) {
	named := []struct {
		name  string
		value float64
	}{
		{"regular", regular},
		{"midterm", midterm},
		{"final", final},
	}
	for _, n := range named {
		if math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			return model.Weights{}, &ValidationError{
				Reason: ReasonOutOfRange,
				Weight: n.name,
				Raw:    strconv.FormatFloat(n.value, 'g', -1, 64),
			}
		}
	}
	return model.WeightsFromFloat(regular, midterm, final), nil
}

// WeightPolicy holds the weights used by ComputeTotals.
type WeightPolicy struct {
	mu      sync.Mutex
	weights model.Weights
}

// NewWeightPolicy returns a policy initialized with the default weights.
func NewWeightPolicy() *WeightPolicy {
	return &WeightPolicy{weights: model.DefaultWeights()}
}

// Update replaces the weights when they pass Validate. Rejected weights leave
// the current ones untouched.
func (p *WeightPolicy) Update(w model.Weights) error {
	if err := Validate(w); err != nil {
		return err
	}
	p.mu.Lock()
	p.weights = w
	p.mu.Unlock()
	return nil
}

// UpdateFloat is Update for float inputs.
func (p *WeightPolicy) UpdateFloat(regular, midterm, final float64) error {
	w, err := FromFloat(regular, midterm, final)
	if err != nil {
		return err
	}
	return p.Update(w)
}

// Current returns a snapshot of the weights.
func (p *WeightPolicy) Current() model.Weights {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.weights
}
