package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/gradebook/internal/model"
)

func TestComputeTotalsDefaultWeights(t *testing.T) {
	l := New()
	l.Load([]model.Record{{ID: "19001", Name: "John", Regular: "94", Midterm: "78", Final: "89"}})

	lenient := l.ComputeTotals()
	assert.Empty(t, lenient)
	assert.Equal(t, "87", l.Records()[0].Total)
}

func TestComputeTotalsLenientCells(t *testing.T) {
	l := New()
	l.Load([]model.Record{
		{ID: "1", Regular: "abc", Midterm: "100", Final: "100"},
		{ID: "2", Regular: "", Midterm: " 50 ", Final: ""},
	})
	bad, _ := l.HandleAt(0)

	lenient := l.ComputeTotals()
	require.Equal(t, []Handle{bad}, lenient)

	records := l.Records()
	assert.Equal(t, "90", records[0].Total)
	assert.Equal(t, "10", records[1].Total)
}

func TestComputeTotalsRoundsHalfToEven(t *testing.T) {
	l := New()
	require.NoError(t, l.Policy().UpdateFloat(0.5, 0.5, 0))
	l.Load([]model.Record{
		{ID: "a", Regular: "87", Midterm: "88"},
		{ID: "b", Regular: "86", Midterm: "87"},
	})
	l.ComputeTotals()

	records := l.Records()
	assert.Equal(t, "88", records[0].Total)
	assert.Equal(t, "86", records[1].Total)
}

func TestComputeTotalsUsesUpdatedWeights(t *testing.T) {
	l := New()
	l.Load([]model.Record{{ID: "1", Regular: "100", Midterm: "0", Final: "50"}})
	require.NoError(t, l.Policy().UpdateFloat(0.3, 0.3, 0.4))

	l.ComputeTotals()
	assert.Equal(t, "50", l.Records()[0].Total)
}

func TestTotalsGoStaleUntilRecomputed(t *testing.T) {
	l := New()
	l.Load([]model.Record{{ID: "1", Regular: "94", Midterm: "78", Final: "89"}})
	l.ComputeTotals()
	h, _ := l.HandleAt(0)

	require.NoError(t, l.SetField(h, model.ColumnFinal, "0"))
	assert.Equal(t, "87", l.Records()[0].Total)

	l.ComputeTotals()
	assert.Equal(t, "25", l.Records()[0].Total)
}
