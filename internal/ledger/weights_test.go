package ledger

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/gradebook/internal/model"
)

func TestDefaultWeightsValid(t *testing.T) {
	p := NewWeightPolicy()
	w := p.Current()
	assert.NoError(t, Validate(w))
	assert.Equal(t, "0.1/0.2/0.7", w.String())
}

func TestWeightUpdate(t *testing.T) {
	tests := []struct {
		name   string
		w      [3]float64
		reason ValidationReason
	}{
		{"sum below one", [3]float64{0.3, 0.3, 0.3}, ReasonSumMismatch},
		{"valid", [3]float64{0.3, 0.3, 0.4}, 0},
		{"negative", [3]float64{-0.1, 0.5, 0.6}, ReasonOutOfRange},
		{"above one", [3]float64{1.5, -0.5, 0}, ReasonOutOfRange},
		{"decimal defaults", [3]float64{0.1, 0.2, 0.7}, 0},
		{"all on final", [3]float64{0, 0, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewWeightPolicy()
			before := p.Current()
			err := p.UpdateFloat(tt.w[0], tt.w[1], tt.w[2])
			if tt.reason == 0 {
				require.NoError(t, err)
				assert.Equal(t, model.WeightsFromFloat(tt.w[0], tt.w[1], tt.w[2]), p.Current())
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.reason, verr.Reason)
			assert.Equal(t, before, p.Current())
		})
	}
}

func TestValidationErrorMessages(t *testing.T) {
	err := Validate(model.WeightsFromFloat(-0.1, 0.5, 0.6))
	assert.EqualError(t, err, "regular weight -0.1 must be between 0 and 1")

	err = Validate(model.WeightsFromFloat(0.3, 0.3, 0.3))
	assert.EqualError(t, err, "weights sum to 0.9, must sum to 1")
}

func TestWeightUpdateRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name   string
		w      [3]float64
		weight string
		raw    string
	}{
		{"nan regular", [3]float64{math.NaN(), 0.2, 0.7}, "regular", "NaN"},
		{"inf final", [3]float64{0.1, 0.2, math.Inf(1)}, "final", "+Inf"},
		{"negative inf midterm", [3]float64{0.1, math.Inf(-1), 0.7}, "midterm", "-Inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewWeightPolicy()
			before := p.Current()
			var err error
			require.NotPanics(t, func() { err = p.UpdateFloat(tt.w[0], tt.w[1], tt.w[2]) })
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, ReasonOutOfRange, verr.Reason)
			assert.Equal(t, tt.weight, verr.Weight)
			assert.EqualError(t, err, tt.weight+" weight "+tt.raw+" must be between 0 and 1")
			assert.Equal(t, before, p.Current())
		})
	}
}
