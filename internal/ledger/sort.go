package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/verte-zerg/gradebook/internal/model"
)

type sortKey struct {
	numeric bool
	num     decimal.Decimal
	text    string
}

func keyFor(col model.Column, value string) sortKey {
	if col.IsScore() {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			if d, err := decimal.NewFromString(trimmed); err == nil {
				return sortKey{numeric: true, num: d}
			}
		}
	}
	return sortKey{text: value}
}

// compareKeys orders numeric keys before text keys; numbers compare by value
// and text compares bytewise.
func compareKeys(a, b sortKey) int {
	switch {
	case a.numeric && b.numeric:
		return a.num.Cmp(b.num)
	case a.numeric:
		return -1
	case b.numeric:
		return 1
	default:
		return strings.Compare(a.text, b.text)
	}
}

// SortBy reorders the roster by col. Score columns sort numerically where the
// cell parses and fall back to text otherwise; ID and Name always sort as
// text. Rows with equal keys keep their relative order in both directions.
func (l *Ledger) SortBy(col model.Column, descending bool) error {
	if !col.Valid() {
		return fmt.Errorf("failed to sort: invalid column %d", int(col))
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	type keyed struct {
		entry Entry
		key   sortKey
	}
	items := make([]keyed, len(l.entries))
	for i, e := range l.entries {
		items[i] = keyed{entry: e, key: keyFor(col, e.Record.Field(col))}
	}
	sort.SliceStable(items, func(i, j int) bool {
		c := compareKeys(items[i].key, items[j].key)
		if descending {
			return c > 0
		}
		return c < 0
	})
	for i, item := range items {
		l.entries[i] = item.entry
	}
	return nil
}
