// Package store handles SQLite persistence of the save journal.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/verte-zerg/gradebook/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// savedAtLayout is fixed-width so saved_at sorts correctly as text.
const savedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrSaveNotFound is returned when a journal entry does not exist.
var ErrSaveNotFound = errors.New("save not found")

// Store wraps SQLite access for journaled saves.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS saves (
			id INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			saved_at TEXT NOT NULL,
			weight_regular TEXT NOT NULL,
			weight_midterm TEXT NOT NULL,
			weight_final TEXT NOT NULL,
			row_count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS save_records (
			save_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			student_id TEXT NOT NULL,
			name TEXT NOT NULL,
			regular TEXT NOT NULL,
			midterm TEXT NOT NULL,
			final TEXT NOT NULL,
			total TEXT NOT NULL,
			PRIMARY KEY (save_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_saves_saved_at ON saves(saved_at);`,
		`CREATE INDEX IF NOT EXISTS idx_saves_path ON saves(path);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSave stores a roster snapshot and returns its journal id.
func (s *Store) InsertSave(ctx context.Context, info model.SaveInfo, records []model.Record) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO saves (path, saved_at, weight_regular, weight_midterm, weight_final, row_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		info.Path,
		info.SavedAt.UTC().Format(savedAtLayout),
		info.Weights.Regular.String(),
		info.Weights.Midterm.String(),
		info.Weights.Final.String(),
		len(records),
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(records) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO save_records (save_id, position, student_id, name, regular, midterm, final, total)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, rec := range records {
			if _, err := stmt.ExecContext(ctx, id, i, rec.ID, rec.Name, rec.Regular, rec.Midterm, rec.Final, rec.Total); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListSaves returns journal entries, newest first.
func (s *Store) ListSaves(ctx context.Context, filter model.HistoryFilter) ([]model.SaveSummary, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Path != "" {
		clauses = append(clauses, "path = ?")
		args = append(args, filter.Path)
	}
	query := fmt.Sprintf(`SELECT id, path, saved_at, weight_regular, weight_midterm, weight_final, row_count
		FROM saves
		WHERE %s
		ORDER BY saved_at DESC, id DESC`, strings.Join(clauses, " AND "))
	if filter.Last > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Last)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var saves []model.SaveSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		saves = append(saves, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return saves, nil
}

// LoadSave returns a journaled snapshot and its rows in saved order.
func (s *Store) LoadSave(ctx context.Context, id int64) (model.SaveSummary, []model.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, path, saved_at, weight_regular, weight_midterm, weight_final, row_count
		 FROM saves WHERE id = ?`, id)
	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SaveSummary{}, nil, fmt.Errorf("save %d: %w", id, ErrSaveNotFound)
	}
	if err != nil {
		return model.SaveSummary{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT student_id, name, regular, midterm, final, total
		 FROM save_records
		 WHERE save_id = ?
		 ORDER BY position ASC`, id)
	if err != nil {
		return model.SaveSummary{}, nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	records := make([]model.Record, 0, summary.Rows)
	for rows.Next() {
		var rec model.Record
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Regular, &rec.Midterm, &rec.Final, &rec.Total); err != nil {
			return model.SaveSummary{}, nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return model.SaveSummary{}, nil, err
	}
	return summary, records, nil
}

// PruneSaves keeps the newest keep journal entries for path and deletes the rest.
func (s *Store) PruneSaves(ctx context.Context, path string, keep int) (removed int64, err error) {
	if keep <= 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stale := `SELECT id FROM saves WHERE path = ?
		ORDER BY saved_at DESC, id DESC
		LIMIT -1 OFFSET ?`
	if _, err = tx.ExecContext(ctx, `DELETE FROM save_records WHERE save_id IN (`+stale+`)`, path, keep); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM saves WHERE id IN (`+stale+`)`, path, keep)
	if err != nil {
		return 0, err
	}
	removed, err = res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (model.SaveSummary, error) {
	var summary model.SaveSummary
	var savedAt, regular, midterm, final string
	if err := row.Scan(&summary.SaveID, &summary.Path, &savedAt, &regular, &midterm, &final, &summary.Rows); err != nil {
		return model.SaveSummary{}, err
	}
	parsed, err := time.Parse(savedAtLayout, savedAt)
	if err != nil {
		return model.SaveSummary{}, err
	}
	summary.SavedAt = parsed
	weights, err := parseWeights(regular, midterm, final)
	if err != nil {
		return model.SaveSummary{}, err
	}
	summary.Weights = weights
	return summary, nil
}

func parseWeights(regular, midterm, final string) (model.Weights, error) {
	var w model.Weights
	var err error
	if w.Regular, err = decimal.NewFromString(regular); err != nil {
		return model.Weights{}, fmt.Errorf("failed to parse regular weight: %w", err)
	}
	if w.Midterm, err = decimal.NewFromString(midterm); err != nil {
		return model.Weights{}, fmt.Errorf("failed to parse midterm weight: %w", err)
	}
	if w.Final, err = decimal.NewFromString(final); err != nil {
		return model.Weights{}, fmt.Errorf("failed to parse final weight: %w", err)
	}
	return w, nil
}
