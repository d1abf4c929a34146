// Package sample builds randomized demo rosters.
package sample

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/verte-zerg/gradebook/internal/model"
)

// FirstID is the student ID given to the first generated row.
const FirstID = 19001

var defaultNames = []string{
	"John", "Alice", "Bob", "Carol", "Dave", "Erin", "Frank", "Grace",
	"Heidi", "Ivan", "Judy", "Mallory", "Niaj", "Olivia", "Peggy", "Rupert",
	"Sybil", "Trent", "Victor", "Walter",
}

// Generator produces randomized rosters.
type Generator struct {
	rnd   *rand.Rand
	names []string
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed)), names: defaultNames}
}

// WithNames replaces the built-in name list. An empty list is ignored.
func (g *Generator) WithNames(names []string) *Generator {
	if len(names) > 0 {
		g.names = names
	}
	return g
}

// Generate returns count rows with sequential IDs and scores in [lo, 100].
// Totals are left blank.
func (g *Generator) Generate(count, lo int) []model.Record {
	if lo < 0 {
		lo = 0
	}
	if lo > 100 {
		lo = 100
	}
	records := make([]model.Record, 0, count)
	for i := 0; i < count; i++ {
		records = append(records, model.Record{
			ID:      strconv.Itoa(FirstID + i),
			Name:    g.names[g.rnd.Intn(len(g.names))],
			Regular: g.score(lo),
			Midterm: g.score(lo),
			Final:   g.score(lo),
		})
	}
	return records
}

func (g *Generator) score(lo int) string {
	return strconv.Itoa(lo + g.rnd.Intn(100-lo+1))
}
