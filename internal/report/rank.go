package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/verte-zerg/gradebook/internal/model"
)

// Ranked is one student in a ranking.
type Ranked struct {
	ID    string  `yaml:"id"`
	Name  string  `yaml:"name"`
	Total float64 `yaml:"total"`
}

type rankItem struct {
	rec   model.Record
	total decimal.Decimal
}

// TopByTotal returns the n students with the highest Total. Rows whose Total
// is blank or not a number are skipped; ties break by ID.
func TopByTotal(records []model.Record, n int) []Ranked {
	return rankByTotal(records, n, func(a, b decimal.Decimal) bool { return a.GreaterThan(b) })
}

// LowestByTotal returns the n students with the lowest Total.
func LowestByTotal(records []model.Record, n int) []Ranked {
	return rankByTotal(records, n, func(a, b decimal.Decimal) bool { return a.LessThan(b) })
}

func rankByTotal(records []model.Record, n int, before func(a, b decimal.Decimal) bool) []Ranked {
	if n <= 0 || len(records) == 0 {
		return nil
	}
	items := make([]rankItem, 0, len(records))
	for _, rec := range records {
		value := strings.TrimSpace(rec.Total)
		if value == "" {
			continue
		}
		d, err := decimal.NewFromString(value)
		if err != nil {
			continue
		}
		items = append(items, rankItem{rec: rec, total: d})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].total.Equal(items[j].total) {
			return items[i].rec.ID < items[j].rec.ID
		}
		return before(items[i].total, items[j].total)
	})
	if n > len(items) {
		n = len(items)
	}
	out := make([]Ranked, 0, n)
	for _, it := range items[:n] {
		out = append(out, Ranked{
			ID:    it.rec.ID,
			Name:  it.rec.Name,
			Total: it.total.InexactFloat64(),
		})
	}
	return out
}
