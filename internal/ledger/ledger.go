// Package ledger holds the in-memory roster and every operation that mutates it.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/verte-zerg/gradebook/internal/model"
)

// NewRecordID is the ID given to blank rows.
const NewRecordID = "New"

// ErrNotFound is returned when a handle no longer refers to a row.
var ErrNotFound = errors.New("record not found")

// Handle is a stable reference to one row, independent of its position.
// The zero Handle refers to nothing.
type Handle struct {
	id uuid.UUID
}

func newHandle() Handle {
	return Handle{id: uuid.New()}
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.id == uuid.Nil
}

// String returns the handle identifier.
func (h Handle) String() string {
	return h.id.String()
}

// Entry pairs a row with its handle.
type Entry struct {
	Handle Handle
	Record model.Record
}

// Ledger is the ordered roster. All methods are safe for concurrent use; each
// mutation is applied under a single lock.
type Ledger struct {
	mu      sync.Mutex
	entries []Entry
	policy  *WeightPolicy
}

// New returns an empty ledger with default weights.
func New() *Ledger {
	return &Ledger{policy: NewWeightPolicy()}
}

// Policy returns the weight policy owned by the ledger.
func (l *Ledger) Policy() *WeightPolicy {
	return l.policy
}

// Load replaces the whole roster. Every row gets a fresh handle.
func (l *Ledger) Load(records []model.Record) {
	entries := make([]Entry, len(records))
	for i, rec := range records {
		entries[i] = Entry{Handle: newHandle(), Record: rec}
	}
	l.mu.Lock()
	l.entries = entries
	l.mu.Unlock()
}

// Clear removes every row.
func (l *Ledger) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}

// Len returns the number of rows.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Records returns a copy of the rows in order.
func (l *Ledger) Records() []model.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Record, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Record
	}
	return out
}

// Entries returns a copy of the rows with their handles, in order.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Get returns the row referenced by h.
func (l *Ledger) Get(h Handle) (model.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.indexLocked(h)
	if idx < 0 {
		return model.Record{}, fmt.Errorf("failed to get %s: %w", h, ErrNotFound)
	}
	return l.entries[idx].Record, nil
}

// IndexOf returns the current position of h, or -1.
func (l *Ledger) IndexOf(h Handle) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.indexLocked(h)
}

// HandleAt returns the handle at position idx.
func (l *Ledger) HandleAt(idx int) (Handle, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx < 0 || idx >= len(l.entries) {
		return Handle{}, false
	}
	return l.entries[idx].Handle, true
}

// InsertBlank inserts a blank row at pos and returns its handle. Positions
// below zero insert at the start; positions past the end append.
func (l *Ledger) InsertBlank(pos int) Handle {
	entry := Entry{Handle: newHandle(), Record: model.Record{ID: NewRecordID}}
	l.mu.Lock()
	defer l.mu.Unlock()
	if pos < 0 {
		pos = 0
	}
	if pos > len(l.entries) {
		pos = len(l.entries)
	}
	l.entries = append(l.entries, Entry{})
	copy(l.entries[pos+1:], l.entries[pos:])
	l.entries[pos] = entry
	return entry.Handle
}

// Delete removes the row referenced by h.
func (l *Ledger) Delete(h Handle) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.indexLocked(h)
	if idx < 0 {
		return fmt.Errorf("failed to delete %s: %w", h, ErrNotFound)
	}
	l.entries = append(l.entries[:idx], l.entries[idx+1:]...)
	return nil
}

// SetField overwrites one field of one row. The value is stored verbatim.
func (l *Ledger) SetField(h Handle, col model.Column, value string) error {
	if !col.Valid() {
		return fmt.Errorf("failed to set field: invalid column %d", int(col))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.indexLocked(h)
	if idx < 0 {
		return fmt.Errorf("failed to set %s of %s: %w", col, h, ErrNotFound)
	}
	l.entries[idx].Record = l.entries[idx].Record.WithField(col, value)
	return nil
}

func (l *Ledger) indexLocked(h Handle) int {
	if h.IsZero() {
		return -1
	}
	for i, e := range l.entries {
		if e.Handle == h {
			return i
		}
	}
	return -1
}
