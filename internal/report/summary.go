package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/gradebook/internal/model"
)

// Stat aggregates one numeric column.
type Stat struct {
	Count int     `yaml:"count"`
	Mean  float64 `yaml:"mean"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
}

// Summary describes a roster.
type Summary struct {
	Rows    int    `yaml:"rows"`
	Weights string `yaml:"weights,omitempty"`
	Regular Stat   `yaml:"regular"`
	Midterm Stat   `yaml:"midterm"`
	Final   Stat   `yaml:"final"`
	Total   Stat   `yaml:"total"`
	// Unparsable counts non-blank score cells that are not numbers.
	Unparsable int      `yaml:"unparsable"`
	Top        []Ranked `yaml:"top,omitempty"`
	Lowest     []Ranked `yaml:"lowest,omitempty"`
}

type accumulator struct {
	count    int
	sum      decimal.Decimal
	min, max decimal.Decimal
}

func (a *accumulator) add(d decimal.Decimal) {
	if a.count == 0 {
		a.min, a.max = d, d
	} else {
		a.min = decimal.Min(a.min, d)
		a.max = decimal.Max(a.max, d)
	}
	a.sum = a.sum.Add(d)
	a.count++
}

func (a *accumulator) stat() Stat {
	if a.count == 0 {
		return Stat{}
	}
	mean := a.sum.Div(decimal.NewFromInt(int64(a.count))).Round(2)
	return Stat{
		Count: a.count,
		Mean:  mean.InexactFloat64(),
		Min:   a.min.InexactFloat64(),
		Max:   a.max.InexactFloat64(),
	}
}

// BuildSummary aggregates every score column. Blank cells are skipped. When
// rank is positive the summary also lists the rank highest and lowest totals.
func BuildSummary(records []model.Record, weights model.Weights, rank int) Summary {
	accs := map[model.Column]*accumulator{
		model.ColumnRegular: {},
		model.ColumnMidterm: {},
		model.ColumnFinal:   {},
		model.ColumnTotal:   {},
	}
	summary := Summary{Rows: len(records), Weights: weights.String()}
	for _, rec := range records {
		for col, acc := range accs {
			value := strings.TrimSpace(rec.Field(col))
			if value == "" {
				continue
			}
			d, err := decimal.NewFromString(value)
			if err != nil {
				summary.Unparsable++
				continue
			}
			acc.add(d)
		}
	}
	summary.Regular = accs[model.ColumnRegular].stat()
	summary.Midterm = accs[model.ColumnMidterm].stat()
	summary.Final = accs[model.ColumnFinal].stat()
	summary.Total = accs[model.ColumnTotal].stat()
	summary.Top = TopByTotal(records, rank)
	summary.Lowest = LowestByTotal(records, rank)
	return summary
}

// RenderSummary prints the summary as an aligned table.
func RenderSummary(w io.Writer, s Summary) error {
	if _, err := fmt.Fprintf(w, "Rows: %d  Weights: %s\n", s.Rows, s.Weights); err != nil {
		return err
	}
	headers := []string{"Column", "Count", "Mean", "Min", "Max"}
	named := []struct {
		name string
		stat Stat
	}{
		{model.ColumnRegular.String(), s.Regular},
		{model.ColumnMidterm.String(), s.Midterm},
		{model.ColumnFinal.String(), s.Final},
		{model.ColumnTotal.String(), s.Total},
	}
	rows := make([][]string, 0, len(named))
	for _, n := range named {
		rows = append(rows, []string{
			n.name,
			fmt.Sprintf("%d", n.stat.Count),
			fmt.Sprintf("%.2f", n.stat.Mean),
			fmt.Sprintf("%g", n.stat.Min),
			fmt.Sprintf("%g", n.stat.Max),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, rows, rightAlign, 0) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if err := renderRanking(w, "Top", s.Top); err != nil {
		return err
	}
	if err := renderRanking(w, "Lowest", s.Lowest); err != nil {
		return err
	}
	if s.Unparsable > 0 {
		if _, err := fmt.Fprintf(w, "Unparsable score cells: %d (counted as 0 in totals)\n", s.Unparsable); err != nil {
			return err
		}
	}
	return nil
}

func renderRanking(w io.Writer, title string, ranked []Ranked) error {
	if len(ranked) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "\n%s %d by Total:\n", title, len(ranked)); err != nil {
		return err
	}
	rows := make([][]string, 0, len(ranked))
	for i, r := range ranked {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			r.ID,
			r.Name,
			fmt.Sprintf("%g", r.Total),
		})
	}
	headers := []string{"#", "ID", "Name", "Total"}
	for _, line := range formatTable(headers, rows, map[int]bool{0: true, 3: true}, 0) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteYAML encodes the summary as YAML.
func WriteYAML(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return nil
}
