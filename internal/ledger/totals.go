package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseScore parses a score cell. Blank cells parse as zero; anything that is
// not a plain decimal number reports ok=false.
func parseScore(value string) (decimal.Decimal, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ComputeTotals writes the weighted total of every row into its Total field,
// rounded half-to-even to an integer. Unparsable scores count as zero; the
// handles of rows that had any are returned so callers can flag them.
func (l *Ledger) ComputeTotals() []Handle {
	w := l.policy.Current()

	l.mu.Lock()
	defer l.mu.Unlock()
	var lenient []Handle
	for i := range l.entries {
		rec := &l.entries[i].Record
		regular, okR := parseScore(rec.Regular)
		midterm, okM := parseScore(rec.Midterm)
		final, okF := parseScore(rec.Final)
		if !okR || !okM || !okF {
			lenient = append(lenient, l.entries[i].Handle)
		}
		total := regular.Mul(w.Regular).
			Add(midterm.Mul(w.Midterm)).
			Add(final.Mul(w.Final))
		rec.Total = total.RoundBank(0).String()
	}
	return lenient
}
