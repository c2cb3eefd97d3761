package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/domino14/mnk/board"
	"github.com/domino14/mnk/solver"
)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	fingerprint INTEGER NOT NULL,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	k INTEGER NOT NULL,
	occupied INTEGER NOT NULL,
	current INTEGER NOT NULL,
	moves INTEGER NOT NULL,
	scores_json TEXT NOT NULL,
	nodes INTEGER NOT NULL,
	duration_ns INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS analyses_fingerprint ON analyses (fingerprint);
`

// Record is one archived analysis of a position.
type Record struct {
	ID       int64
	State    board.GameState
	Scores   []solver.MoveScore
	Nodes    uint64
	Duration time.Duration
	Created  time.Time
}

// Store is a SQLite archive of analyses. Nothing in it is ever fed back into
// a search.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema in %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("opened-store")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save archives r and returns its id.
func (s *Store) Save(ctx context.Context, r Record) (int64, error) {
	data, err := json.Marshal(r.Scores)
	if err != nil {
		return 0, err
	}
	created := r.Created
	if created.IsZero() {
		created = time.Now()
	}
	shape := r.State.Shape()
	// sqlite integers are signed; the bitboards and fingerprint are stored
	// with their bits reinterpreted.
	res, err := s.db.ExecContext(ctx, `INSERT INTO analyses
		(fingerprint, width, height, k, occupied, current, moves, scores_json, nodes, duration_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(r.State.Fingerprint()), shape.Width, shape.Height, shape.K,
		int64(r.State.Occupied()), int64(r.State.CurrentStones()), r.State.MoveCount(),
		string(data), int64(r.Nodes), r.Duration.Nanoseconds(), created.UnixNano())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, width, height, k, occupied, current, moves, scores_json, nodes, duration_ns, created_at
		FROM analyses ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ByFingerprint returns every record of the position with the given
// fingerprint, oldest first.
func (s *Store) ByFingerprint(ctx context.Context, fp uint64) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, width, height, k, occupied, current, moves, scores_json, nodes, duration_ns, created_at
		FROM analyses WHERE fingerprint = ? ORDER BY id`, int64(fp))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var (
			r                         Record
			w, h, k, moves            int
			occupied, current, nodes  int64
			data                      string
			durationNs, createdUnixNs int64
		)
		if err := rows.Scan(&r.ID, &w, &h, &k, &occupied, &current, &moves, &data,
			&nodes, &durationNs, &createdUnixNs); err != nil {
			return nil, err
		}
		shape, err := board.NewShape(w, h, k)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", r.ID, err)
		}
		r.State, err = board.FromBitboards(shape, uint64(occupied), uint64(current), moves)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(data), &r.Scores); err != nil {
			return nil, fmt.Errorf("record %d: %w", r.ID, err)
		}
		r.Nodes = uint64(nodes)
		r.Duration = time.Duration(durationNs)
		r.Created = time.Unix(0, createdUnixNs)
		records = append(records, r)
	}
	return records, rows.Err()
}
