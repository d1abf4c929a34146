package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFromFieldsPadsAndTruncates(t *testing.T) {
	short := RecordFromFields([]string{"19001", "John", "94", "78", "89"})
	assert.Equal(t, "89", short.Final)
	assert.Empty(t, short.Total)

	long := RecordFromFields([]string{"1", "a", "2", "3", "4", "5", "extra"})
	got := long.Fields()
	require.Len(t, got, FieldCount)
	assert.Equal(t, "5", got[5])
}

func TestParseColumn(t *testing.T) {
	col, err := ParseColumn("midterm")
	require.NoError(t, err)
	assert.Equal(t, ColumnMidterm, col)

	_, err = ParseColumn("grade")
	assert.Error(t, err)
}

func TestColumnIsScore(t *testing.T) {
	assert.False(t, ColumnID.IsScore())
	assert.False(t, ColumnName.IsScore())
	for _, col := range []Column{ColumnRegular, ColumnMidterm, ColumnFinal, ColumnTotal} {
		assert.True(t, col.IsScore(), "expected %s to be a score column", col)
	}
}

func TestWithFieldRoundTrip(t *testing.T) {
	var r Record
	for i, col := range Columns() {
		r = r.WithField(col, string(rune('a'+i)))
	}
	for i, col := range Columns() {
		assert.Equal(t, string(rune('a'+i)), r.Field(col), "column %s", col)
	}
}

func TestWeightsFromFloatSumsExactly(t *testing.T) {
	w := WeightsFromFloat(0.1, 0.2, 0.7)
	assert.True(t, w.Sum().Equal(DefaultWeights().Sum()), "expected sum %s, got %s", DefaultWeights().Sum(), w.Sum())
	assert.Equal(t, "0.1/0.2/0.7", w.String())
}
