// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package audit persists run results in a per-track SQLite database:
// transfer outcomes, batch resume points, and the upload log used to
// reconcile dangling uploads.
package audit

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sigchi/proceedings-engine/pkg/types"
)

// Store manages the audit SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the configured audit database, creating the schema
// if it does not exist.
func Open(cfg types.AuditConfig) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			track TEXT NOT NULL,
			started TEXT NOT NULL,
			finished TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			paper_id TEXT NOT NULL,
			file_type TEXT,
			status TEXT NOT NULL,
			detail TEXT,
			dangling INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id)`,
		`CREATE TABLE IF NOT EXISTS resume_points (
			track TEXT PRIMARY KEY,
			next_index INTEGER NOT NULL,
			updated TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS uploads (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			paper_id TEXT NOT NULL,
			file_name TEXT NOT NULL,
			location TEXT,
			committed INTEGER NOT NULL DEFAULT 0,
			at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_uploads_run ON uploads(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// BeginRun records the start of a pipeline run and returns its identifier.
func (s *Store) BeginRun(kind, track string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (kind, track, started) VALUES (?, ?, ?)`,
		kind, track, now(),
	)
	if err != nil {
		return 0, fmt.Errorf("recording run start: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun records the end of a run.
func (s *Store) FinishRun(runID int64) error {
	if _, err := s.db.Exec(
		`UPDATE runs SET finished = ? WHERE id = ?`, now(), runID,
	); err != nil {
		return fmt.Errorf("recording run finish: %w", err)
	}
	return nil
}

// Outcome is one audited transfer result.
type Outcome struct {
	PaperID  string
	FileType string
	Status   string
	Detail   string
	Dangling bool
}

// RecordOutcome appends one transfer outcome to a run.
func (s *Store) RecordOutcome(runID int64, o Outcome) error {
	if _, err := s.db.Exec(
		`INSERT INTO outcomes (run_id, paper_id, file_type, status, detail, dangling)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, o.PaperID, o.FileType, o.Status, o.Detail, o.Dangling,
	); err != nil {
		return fmt.Errorf("recording outcome: %w", err)
	}
	return nil
}

// RecordOutcomes appends outcomes in a single transaction.
func (s *Store) RecordOutcomes(runID int64, outcomes []Outcome) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO outcomes (run_id, paper_id, file_type, status, detail, dangling)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range outcomes {
		if _, err := stmt.Exec(runID, o.PaperID, o.FileType, o.Status, o.Detail, o.Dangling); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording outcome for %s: %w", o.PaperID, err)
		}
	}
	return tx.Commit()
}

// SaveResumePoint persists the registry index a restarted batch should
// begin at.
func (s *Store) SaveResumePoint(track string, nextIndex int) error {
	if _, err := s.db.Exec(
		`INSERT INTO resume_points (track, next_index, updated) VALUES (?, ?, ?)
		 ON CONFLICT(track) DO UPDATE SET next_index = excluded.next_index, updated = excluded.updated`,
		track, nextIndex, now(),
	); err != nil {
		return fmt.Errorf("saving resume point: %w", err)
	}
	return nil
}

// LoadResumePoint returns the saved resume index for track, if any.
func (s *Store) LoadResumePoint(track string) (int, bool, error) {
	var idx int
	err := s.db.QueryRow(
		`SELECT next_index FROM resume_points WHERE track = ?`, track,
	).Scan(&idx)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("loading resume point: %w", err)
	}
	return idx, true, nil
}

// ClearResumePoint removes the resume point after a completed batch.
func (s *Store) ClearResumePoint(track string) error {
	if _, err := s.db.Exec(
		`DELETE FROM resume_points WHERE track = ?`, track,
	); err != nil {
		return fmt.Errorf("clearing resume point: %w", err)
	}
	return nil
}

// RecordUpload logs one upload attempt. Committed false with a non-empty
// location marks a dangling upload.
func (s *Store) RecordUpload(runID int64, paperID, fileName, location string, committed bool) error {
	if _, err := s.db.Exec(
		`INSERT INTO uploads (run_id, paper_id, file_name, location, committed, at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, paperID, fileName, location, committed, now(),
	); err != nil {
		return fmt.Errorf("recording upload: %w", err)
	}
	return nil
}

// UploadRow is one row of the upload log.
type UploadRow struct {
	RunID     int64
	PaperID   string
	FileName  string
	Location  string
	Committed bool
	At        string
}

// Danglings returns uploads whose bytes reached the portal but whose
// commit never succeeded. These blobs are invisible on the portal listing
// and need manual reconciliation.
func (s *Store) Danglings() ([]UploadRow, error) {
	rows, err := s.db.Query(
		`SELECT run_id, paper_id, file_name, location, committed, at
		 FROM uploads WHERE committed = 0 AND location != '' ORDER BY at`)
	if err != nil {
		return nil, fmt.Errorf("querying danglings: %w", err)
	}
	defer rows.Close()

	var danglings []UploadRow
	for rows.Next() {
		var u UploadRow
		if err := rows.Scan(&u.RunID, &u.PaperID, &u.FileName, &u.Location, &u.Committed, &u.At); err != nil {
			return nil, fmt.Errorf("scanning upload row: %w", err)
		}
		danglings = append(danglings, u)
	}
	return danglings, rows.Err()
}

// Summary returns per-status outcome counts for a run.
func (s *Store) Summary(runID int64) (map[string]int, error) {
	rows, err := s.db.Query(
		`SELECT status, count(*) FROM outcomes WHERE run_id = ? GROUP BY status`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying summary: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
