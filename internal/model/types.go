// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FieldCount is the number of fields every record carries.
const FieldCount = 6

// Column identifies one roster column.
type Column int

// Roster columns in persisted order.
const (
	ColumnID Column = iota
	ColumnName
	ColumnRegular
	ColumnMidterm
	ColumnFinal
	ColumnTotal
)

var columnNames = [FieldCount]string{"ID", "Name", "Regular", "Midterm", "Final", "Total"}

// Columns returns all columns in persisted order.
func Columns() []Column {
	return []Column{ColumnID, ColumnName, ColumnRegular, ColumnMidterm, ColumnFinal, ColumnTotal}
}

// String returns the header label of the column.
func (c Column) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Column(%d)", int(c))
	}
	return columnNames[c]
}

// Valid reports whether c names one of the six roster columns.
func (c Column) Valid() bool {
	return c >= ColumnID && c <= ColumnTotal
}

// IsScore reports whether the column holds a numeric score.
func (c Column) IsScore() bool {
	switch c {
	case ColumnRegular, ColumnMidterm, ColumnFinal, ColumnTotal:
		return true
	default:
		return false
	}
}

// ParseColumn resolves a header label (case-insensitive) to a Column.
func ParseColumn(name string) (Column, error) {
	name = strings.TrimSpace(name)
	for i, label := range columnNames {
		if strings.EqualFold(label, name) {
			return Column(i), nil
		}
	}
	return 0, fmt.Errorf("unknown column %q (use one of %s)", name, strings.Join(columnNames[:], ", "))
}

// Record is one roster row. All fields are kept as text.
type Record struct {
	ID      string
	Name    string
	Regular string
	Midterm string
	Final   string
	Total   string
}

// RecordFromFields builds a record, padding missing trailing fields with
// empty strings and dropping anything past the sixth field.
func RecordFromFields(fields []string) Record {
	var padded [FieldCount]string
	copy(padded[:], fields)
	return Record{
		ID:      padded[0],
		Name:    padded[1],
		Regular: padded[2],
		Midterm: padded[3],
		Final:   padded[4],
		Total:   padded[5],
	}
}

// Fields returns the six fields in persisted order.
func (r Record) Fields() []string {
	return []string{r.ID, r.Name, r.Regular, r.Midterm, r.Final, r.Total}
}

// Field returns the value stored in the given column.
func (r Record) Field(col Column) string {
	switch col {
	case ColumnID:
		return r.ID
	case ColumnName:
		return r.Name
	case ColumnRegular:
		return r.Regular
	case ColumnMidterm:
		return r.Midterm
	case ColumnFinal:
		return r.Final
	case ColumnTotal:
		return r.Total
	default:
		return ""
	}
}

// WithField returns a copy of r with one column overwritten.
func (r Record) WithField(col Column, value string) Record {
	switch col {
	case ColumnID:
		r.ID = value
	case ColumnName:
		r.Name = value
	case ColumnRegular:
		r.Regular = value
	case ColumnMidterm:
		r.Midterm = value
	case ColumnFinal:
		r.Final = value
	case ColumnTotal:
		r.Total = value
	}
	return r
}

// Weights holds the scoring weights for the three components.
type Weights struct {
	Regular decimal.Decimal
	Midterm decimal.Decimal
	Final   decimal.Decimal
}

// DefaultWeights returns the stock 0.1 / 0.2 / 0.7 split.
func DefaultWeights() Weights {
	return Weights{
		Regular: decimal.RequireFromString("0.1"),
		Midterm: decimal.RequireFromString("0.2"),
		Final:   decimal.RequireFromString("0.7"),
	}
}

// WeightsFromFloat converts float weights using their shortest decimal form,
// so 0.1 becomes exactly 0.1. The values must be finite.
func WeightsFromFloat(regular, midterm, final float64) Weights {
	return Weights{
		Regular: decimal.NewFromFloat(regular),
		Midterm: decimal.NewFromFloat(midterm),
		Final:   decimal.NewFromFloat(final),
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() decimal.Decimal {
	return w.Regular.Add(w.Midterm).Add(w.Final)
}

// Floats returns the weights as float64 values.
func (w Weights) Floats() (regular, midterm, final float64) {
	return w.Regular.InexactFloat64(), w.Midterm.InexactFloat64(), w.Final.InexactFloat64()
}

// String renders the weights as "regular/midterm/final".
func (w Weights) String() string {
	return w.Regular.String() + "/" + w.Midterm.String() + "/" + w.Final.String()
}

// SaveInfo describes a roster save recorded in the journal.
type SaveInfo struct {
	Path    string
	SavedAt time.Time
	Weights Weights
}

// SaveSummary summarizes a journaled save for listing.
type SaveSummary struct {
	SaveID  int64
	Path    string
	SavedAt time.Time
	Rows    int
	Weights Weights
}

// HistoryFilter narrows journal listings.
type HistoryFilter struct {
	Path string
	Last int
}
