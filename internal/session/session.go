// Package session holds the state a presentation layer keeps around the
// ledger (current file, selected row, sort toggles) and maps user intents to
// ledger and codec calls through a dispatch table.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/verte-zerg/gradebook/internal/csvcodec"
	"github.com/verte-zerg/gradebook/internal/ledger"
	"github.com/verte-zerg/gradebook/internal/model"
)

// ErrNoPath is returned by IntentSave when no file is associated yet.
var ErrNoPath = errors.New("no file path")

// Intent names a user action.
type Intent int

// Supported intents.
const (
	IntentNew Intent = iota + 1
	IntentOpen
	IntentSave
	IntentSaveAs
	IntentAdd
	IntentInsert
	IntentDelete
	IntentEdit
	IntentSort
	IntentTotals
	IntentWeights
	IntentSelect
)

var intentNames = map[Intent]string{
	IntentNew:     "new",
	IntentOpen:    "open",
	IntentSave:    "save",
	IntentSaveAs:  "save-as",
	IntentAdd:     "add",
	IntentInsert:  "insert",
	IntentDelete:  "delete",
	IntentEdit:    "edit",
	IntentSort:    "sort",
	IntentTotals:  "totals",
	IntentWeights: "weights",
	IntentSelect:  "select",
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return fmt.Sprintf("Intent(%d)", int(i))
}

// Command is one intent with its arguments. Unused fields are ignored.
type Command struct {
	Intent  Intent
	Path    string
	Column  model.Column
	Value   string
	Weights model.Weights
	// Handle targets a row explicitly; the zero Handle means the selected row.
	Handle ledger.Handle
}

// Result reports what a dispatched command did.
type Result struct {
	Message string
	// Lenient lists rows whose unparsable scores were counted as zero.
	Lenient []ledger.Handle
}

// Journal records saved rosters.
type Journal interface {
	InsertSave(ctx context.Context, info model.SaveInfo, records []model.Record) (int64, error)
	PruneSaves(ctx context.Context, path string, keep int) (int64, error)
}

// Options configures a Session.
type Options struct {
	// Journal is optional; nil disables save history.
	Journal Journal
	// HistoryLimit caps journal entries per file; zero keeps everything.
	HistoryLimit int
	Logger       *log.Logger
	Now          func() time.Time
}

// SortState describes the most recent sort.
type SortState struct {
	Column     model.Column
	Descending bool
	Active     bool
}

type handler func(ctx context.Context, cmd Command) (Result, error)

// Session owns the presentation state around one ledger.
type Session struct {
	ledger   *ledger.Ledger
	journal  Journal
	limit    int
	logger   *log.Logger
	now      func() time.Time
	handlers map[Intent]handler

	path     string
	selected ledger.Handle
	dirty    bool
	nextDesc map[model.Column]bool
	lastSort SortState
}

// New wraps l in a Session.
func New(l *ledger.Ledger, opts Options) *Session {
	s := &Session{
		ledger:   l,
		journal:  opts.Journal,
		limit:    opts.HistoryLimit,
		logger:   opts.Logger,
		now:      opts.Now,
		nextDesc: map[model.Column]bool{},
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.handlers = map[Intent]handler{
		IntentNew:     s.newFile,
		IntentOpen:    s.open,
		IntentSave:    s.save,
		IntentSaveAs:  s.saveAs,
		IntentAdd:     s.add,
		IntentInsert:  s.insert,
		IntentDelete:  s.delete,
		IntentEdit:    s.edit,
		IntentSort:    s.sort,
		IntentTotals:  s.totals,
		IntentWeights: s.weights,
		IntentSelect:  s.selectRow,
	}
	return s
}

// Dispatch runs one command.
func (s *Session) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	h, ok := s.handlers[cmd.Intent]
	if !ok {
		return Result{}, fmt.Errorf("unknown intent %s", cmd.Intent)
	}
	s.logger.Debug("dispatch", "intent", cmd.Intent, "column", cmd.Column, "path", cmd.Path)
	res, err := h(ctx, cmd)
	if err != nil {
		s.logger.Debug("intent failed", "intent", cmd.Intent, "err", err)
	}
	return res, err
}

// Ledger returns the wrapped ledger.
func (s *Session) Ledger() *ledger.Ledger {
	return s.ledger
}

// Path returns the file the roster was opened from or last saved to.
func (s *Session) Path() string {
	return s.path
}

// Selected returns the selected row, or the zero Handle.
func (s *Session) Selected() ledger.Handle {
	return s.selected
}

// Dirty reports whether the roster changed since it was loaded or saved.
func (s *Session) Dirty() bool {
	return s.dirty
}

// LastSort returns the most recent sort applied.
func (s *Session) LastSort() SortState {
	return s.lastSort
}

func (s *Session) target(cmd Command) ledger.Handle {
	if !cmd.Handle.IsZero() {
		return cmd.Handle
	}
	return s.selected
}

func (s *Session) resetView() {
	s.selected = ledger.Handle{}
	s.dirty = false
	s.nextDesc = map[model.Column]bool{}
	s.lastSort = SortState{}
}

func (s *Session) newFile(_ context.Context, _ Command) (Result, error) {
	s.ledger.Clear()
	s.path = ""
	s.resetView()
	return Result{Message: "New roster"}, nil
}

func (s *Session) open(_ context.Context, cmd Command) (Result, error) {
	if cmd.Path == "" {
		return Result{}, fmt.Errorf("failed to open roster: %w", ErrNoPath)
	}
	records, err := csvcodec.ReadFile(cmd.Path)
	if err != nil {
		return Result{}, err
	}
	s.ledger.Load(records)
	s.path = cmd.Path
	s.resetView()
	s.logger.Info("opened roster", "path", cmd.Path, "rows", len(records))
	return Result{Message: fmt.Sprintf("Loaded %d records from %s", len(records), cmd.Path)}, nil
}

func (s *Session) save(ctx context.Context, _ Command) (Result, error) {
	if s.path == "" {
		return Result{}, ErrNoPath
	}
	return s.writeTo(ctx, s.path)
}

func (s *Session) saveAs(ctx context.Context, cmd Command) (Result, error) {
	if cmd.Path == "" {
		return Result{}, fmt.Errorf("failed to save roster: %w", ErrNoPath)
	}
	res, err := s.writeTo(ctx, cmd.Path)
	if err != nil {
		return Result{}, err
	}
	s.path = cmd.Path
	return res, nil
}

func (s *Session) writeTo(ctx context.Context, path string) (Result, error) {
	records := s.ledger.Records()
	if err := csvcodec.WriteFile(path, records); err != nil {
		return Result{}, err
	}
	s.dirty = false
	s.logger.Info("saved roster", "path", path, "rows", len(records))
	s.journalSave(ctx, path, records)
	return Result{Message: fmt.Sprintf("Data saved to: %s", path)}, nil
}

// journalSave records the save; journal failures never fail the save itself.
func (s *Session) journalSave(ctx context.Context, path string, records []model.Record) {
	if s.journal == nil {
		return
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	info := model.SaveInfo{
		Path:    path,
		SavedAt: s.now(),
		Weights: s.ledger.Policy().Current(),
	}
	id, err := s.journal.InsertSave(ctx, info, records)
	if err != nil {
		s.logger.Warn("failed to journal save", "path", path, "err", err)
		return
	}
	s.logger.Debug("journaled save", "id", id, "path", path)
	if s.limit <= 0 {
		return
	}
	if removed, err := s.journal.PruneSaves(ctx, path, s.limit); err != nil {
		s.logger.Warn("failed to prune save history", "path", path, "err", err)
	} else if removed > 0 {
		s.logger.Debug("pruned save history", "path", path, "removed", removed)
	}
}

func (s *Session) add(_ context.Context, _ Command) (Result, error) {
	s.selected = s.ledger.InsertBlank(0)
	s.dirty = true
	return Result{Message: "Added record"}, nil
}

func (s *Session) insert(_ context.Context, cmd Command) (Result, error) {
	pos := 0
	if anchor := s.target(cmd); !anchor.IsZero() {
		if idx := s.ledger.IndexOf(anchor); idx > 0 {
			pos = idx
		}
	}
	s.selected = s.ledger.InsertBlank(pos)
	s.dirty = true
	return Result{Message: fmt.Sprintf("Inserted record at row %d", pos+1)}, nil
}

func (s *Session) delete(_ context.Context, cmd Command) (Result, error) {
	h := s.target(cmd)
	if h.IsZero() {
		return Result{}, nil
	}
	idx := s.ledger.IndexOf(h)
	if err := s.ledger.Delete(h); err != nil {
		return Result{}, err
	}
	s.dirty = true
	s.selected = ledger.Handle{}
	if n := s.ledger.Len(); n > 0 && idx >= 0 {
		if idx >= n {
			idx = n - 1
		}
		s.selected, _ = s.ledger.HandleAt(idx)
	}
	return Result{Message: "Deleted record"}, nil
}

func (s *Session) edit(_ context.Context, cmd Command) (Result, error) {
	h := s.target(cmd)
	if h.IsZero() {
		return Result{}, nil
	}
	if err := s.ledger.SetField(h, cmd.Column, cmd.Value); err != nil {
		return Result{}, err
	}
	s.dirty = true
	return Result{}, nil
}

func (s *Session) sort(_ context.Context, cmd Command) (Result, error) {
	desc := s.nextDesc[cmd.Column]
	if err := s.ledger.SortBy(cmd.Column, desc); err != nil {
		return Result{}, err
	}
	s.nextDesc[cmd.Column] = !desc
	s.lastSort = SortState{Column: cmd.Column, Descending: desc, Active: true}
	s.dirty = true
	direction := "ascending"
	if desc {
		direction = "descending"
	}
	return Result{Message: fmt.Sprintf("Sorted by %s (%s)", cmd.Column, direction)}, nil
}

func (s *Session) totals(_ context.Context, _ Command) (Result, error) {
	lenient := s.ledger.ComputeTotals()
	s.dirty = true
	if len(lenient) > 0 {
		s.logger.Warn("unparsable scores counted as zero", "rows", len(lenient))
		return Result{
			Message: fmt.Sprintf("Totals computed; %d row(s) had unparsable scores counted as 0", len(lenient)),
			Lenient: lenient,
		}, nil
	}
	return Result{Message: "Totals computed"}, nil
}

func (s *Session) weights(_ context.Context, cmd Command) (Result, error) {
	if err := s.ledger.Policy().Update(cmd.Weights); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("Weights set to %s", cmd.Weights)}, nil
}

func (s *Session) selectRow(_ context.Context, cmd Command) (Result, error) {
	if cmd.Handle.IsZero() {
		s.selected = ledger.Handle{}
		return Result{}, nil
	}
	if s.ledger.IndexOf(cmd.Handle) < 0 {
		return Result{}, fmt.Errorf("failed to select %s: %w", cmd.Handle, ledger.ErrNotFound)
	}
	s.selected = cmd.Handle
	return Result{}, nil
}
