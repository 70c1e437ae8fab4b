package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	started_at    TEXT NOT NULL,
	ended_at      TEXT,
	seed_weight   REAL NOT NULL,
	final_weight  REAL,
	attempts      INTEGER NOT NULL DEFAULT 1,
	redo_count    INTEGER NOT NULL DEFAULT 0,
	status        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tick_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	timestamp     REAL NOT NULL,
	attempt       INTEGER NOT NULL,
	weight        REAL NOT NULL,
	predictive    REAL NOT NULL,
	reflexive     REAL NOT NULL,
	derivative    REAL NOT NULL,
	o_neural      REAL NOT NULL,
	o_speed       REAL NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_tick_log_run ON tick_log(run_id);
`
// #endregion schema

// #region store-struct
// Store manages run history and per-tick learning records in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an already-open database. The caller owns migrations.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by tools (inspect, export).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region begin-run
// BeginRun inserts a new run row seeded with the given weight.
func (s *Store) BeginRun(seedWeight float64) (RunRecord, error) {
	rec := RunRecord{
		RunID:      uuid.New().String(),
		StartedAt:  time.Now().UTC(),
		SeedWeight: seedWeight,
		Attempts:   1,
		Status:     StatusRunning,
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, started_at, seed_weight, attempts, redo_count, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.StartedAt.Format(time.RFC3339Nano), rec.SeedWeight, rec.Attempts, 0, string(rec.Status),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}
	return rec, nil
}
// #endregion begin-run

// #region append-tick
// AppendTick writes one learning record for the run.
func (s *Store) AppendTick(runID string, rec LogRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO tick_log (run_id, timestamp, attempt, weight, predictive, reflexive, derivative, o_neural, o_speed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rec.Timestamp, rec.Attempt, rec.Weight, rec.Predictive, rec.Reflexive,
		rec.Derivative, rec.Neural, rec.Speed,
	)
	if err != nil {
		return fmt.Errorf("append tick: %w", err)
	}
	return nil
}
// #endregion append-tick

// #region finish-run
// FinishRun records the final control state and status of a run.
func (s *Store) FinishRun(runID string, final ControlState, status RunStatus) error {
	res, err := s.db.Exec(
		`UPDATE runs SET ended_at = ?, final_weight = ?, attempts = ?, redo_count = ?, status = ?
		 WHERE run_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), final.Weight, final.Attempt, final.RedoCount,
		string(status), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}
// #endregion finish-run

// #region last-weight
// LastWeight returns the weight of the most recent tick across all runs.
// ok is false when no tick has ever been recorded.
func (s *Store) LastWeight() (weight float64, ok bool, err error) {
	err = s.db.QueryRow(`SELECT weight FROM tick_log ORDER BY id DESC LIMIT 1`).Scan(&weight)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("last weight: %w", err)
	}
	return weight, true, nil
}
// #endregion last-weight

// #region get-run
// GetRun retrieves a run by ID, including its tick count.
func (s *Store) GetRun(runID string) (RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT r.run_id, r.started_at, r.ended_at, r.seed_weight, r.final_weight, r.attempts,
		        r.redo_count, r.status, (SELECT COUNT(*) FROM tick_log t WHERE t.run_id = r.run_id)
		 FROM runs r WHERE r.run_id = ?`, runID,
	)
	rec, err := scanRun(row)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return rec, nil
}
// #endregion get-run

// #region list-runs
// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT r.run_id, r.started_at, r.ended_at, r.seed_weight, r.final_weight, r.attempts,
		        r.redo_count, r.status, (SELECT COUNT(*) FROM tick_log t WHERE t.run_id = r.run_id)
		 FROM runs r ORDER BY r.rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}
// #endregion list-runs

// #region list-ticks
// ListTicks returns every learning record of a run in write order.
func (s *Store) ListTicks(runID string) ([]LogRecord, error) {
	rows, err := s.db.Query(
		`SELECT timestamp, attempt, weight, predictive, reflexive, derivative, o_neural, o_speed
		 FROM tick_log WHERE run_id = ? ORDER BY id ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ticks: %w", err)
	}
	defer rows.Close()

	var ticks []LogRecord
	for rows.Next() {
		var r LogRecord
		if err := rows.Scan(&r.Timestamp, &r.Attempt, &r.Weight, &r.Predictive, &r.Reflexive,
			&r.Derivative, &r.Neural, &r.Speed); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		ticks = append(ticks, r)
	}
	return ticks, rows.Err()
}
// #endregion list-ticks

// #region scan-helpers
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var rec RunRecord
	var startedStr, status string
	var endedStr sql.NullString
	var finalWeight sql.NullFloat64

	if err := row.Scan(&rec.RunID, &startedStr, &endedStr, &rec.SeedWeight, &finalWeight,
		&rec.Attempts, &rec.RedoCount, &status, &rec.TickCount); err != nil {
		return RunRecord{}, err
	}
	rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
	if endedStr.Valid {
		rec.EndedAt, _ = time.Parse(time.RFC3339Nano, endedStr.String)
	}
	if finalWeight.Valid {
		rec.FinalWeight = finalWeight.Float64
	}
	rec.Status = RunStatus(status)
	return rec, nil
}
// #endregion scan-helpers
