// Package runs persists solver reports so past runs can be listed and compared.
package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/robalobadob/cubes/internal/game"
	"github.com/robalobadob/cubes/internal/solver"
)

// ErrNotFound is returned by Get for unknown run ids.
var ErrNotFound = errors.New("run not found")

// Record is one stored run.
type Record struct {
	ID        int64            `json:"id"`
	Owner     string           `json:"owner"`  // token subject, or "cli"
	Source    string           `json:"source"` // free-form label: "stdin", "example", "http"
	Limits    game.Limits      `json:"limits"`
	Lines     int              `json:"lines"`
	Games     int              `json:"games"`
	Possible  int              `json:"possible"`
	IDSum     uint64           `json:"idSum"`
	PowerSum  string           `json:"powerSum"` // decimal, may exceed 64 bits
	Failures  []solver.Failure `json:"failures"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Store wraps the run history database.
type Store struct{ db *sql.DB }

// Open opens the SQLite database at dsn and brings its schema up to date.
func Open(dsn string) (*Store, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// NewRecord builds a Record from a solver report.
func NewRecord(owner, source string, rep *solver.Report) Record {
	power := "0"
	if rep.PowerSum != nil {
		power = rep.PowerSum.String()
	}
	return Record{
		Owner:    owner,
		Source:   source,
		Limits:   rep.Limits,
		Lines:    rep.Lines,
		Games:    rep.Games,
		Possible: rep.Possible,
		IDSum:    rep.IDSum,
		PowerSum: power,
		Failures: rep.Failures,
	}
}

// Insert stores r and its failures atomically and returns the new run id.
func (s *Store) Insert(ctx context.Context, r Record) (int64, error) {
	if _, ok := new(big.Int).SetString(r.PowerSum, 10); !ok {
		return 0, fmt.Errorf("power sum %q is not a decimal integer", r.PowerSum)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
        INSERT INTO runs
            (owner, source, max_red, max_green, max_blue, lines, games, possible, failures, id_sum, power_sum)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Owner, r.Source, r.Limits.Red, r.Limits.Green, r.Limits.Blue,
		r.Lines, r.Games, r.Possible, len(r.Failures), int64(r.IDSum), r.PowerSum,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, f := range r.Failures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_failures (run_id, line, kind, byte_offset) VALUES (?, ?, ?, ?)`,
			id, f.Line, f.Kind, f.Offset,
		); err != nil {
			return 0, fmt.Errorf("insert failure: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

const selectRun = `
    SELECT id, owner, source, max_red, max_green, max_blue, lines, games, possible, id_sum, power_sum, created_at
    FROM runs`

// Get loads a run with its failures, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (Record, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, selectRun+` WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT line, kind, byte_offset FROM run_failures WHERE run_id=? ORDER BY line`, id)
	if err != nil {
		return Record{}, err
	}
	defer rows.Close()
	r.Failures = []solver.Failure{}
	for rows.Next() {
		var f solver.Failure
		if err := rows.Scan(&f.Line, &f.Kind, &f.Offset); err != nil {
			return Record{}, err
		}
		r.Failures = append(r.Failures, f)
	}
	return r, rows.Err()
}

// Recent lists the newest runs first, without failure details.
// Default limit is 20 if not specified.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectRun+` ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanRun(row scanner) (Record, error) {
	var (
		r       Record
		idSum   int64
		created string
	)
	if err := row.Scan(&r.ID, &r.Owner, &r.Source, &r.Limits.Red, &r.Limits.Green, &r.Limits.Blue,
		&r.Lines, &r.Games, &r.Possible, &idSum, &r.PowerSum, &created); err != nil {
		return Record{}, err
	}
	r.IDSum = uint64(idSum)
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return Record{}, fmt.Errorf("run %d: created_at: %w", r.ID, err)
	}
	r.CreatedAt = t
	return r, nil
}
