package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dialcoach/dialcoach/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements CallStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed call store.
func NewSQLite(dbPath string) (CallStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode keeps readers off the writers' backs during call-end bursts.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS call_records (
		call_id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		scenario_id TEXT NOT NULL,
		scenario_name TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL,
		duration_sec REAL NOT NULL,
		status TEXT,
		disconnection_reason TEXT,
		transcript_raw TEXT,
		transcript_json TEXT,
		analysis_json TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_call_records_ended ON call_records(ended_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveCall inserts or replaces the record for a completed call.
func (s *SQLiteStore) SaveCall(ctx context.Context, rec *domain.CallRecord) error {
	query := `
		INSERT INTO call_records (
			call_id, agent_id, scenario_id, scenario_name,
			started_at, ended_at, duration_sec, status, disconnection_reason,
			transcript_raw, transcript_json, analysis_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(call_id) DO UPDATE SET
			ended_at = excluded.ended_at,
			duration_sec = excluded.duration_sec,
			status = excluded.status,
			disconnection_reason = excluded.disconnection_reason,
			transcript_raw = excluded.transcript_raw,
			transcript_json = excluded.transcript_json`

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	args := []any{
		rec.CallID, rec.AgentID, rec.ScenarioID, rec.ScenarioName,
		rec.StartedAt.Unix(), rec.EndedAt.Unix(), rec.DurationSec,
		rec.Status, rec.DisconnectionReason,
		rec.TranscriptRaw, rec.TranscriptJSON, rec.AnalysisJSON,
		createdAt.Unix(),
	}
	_, err := s.db.ExecContext(ctx, query, args...)
	if isConflict(err) {
		time.Sleep(100 * time.Millisecond)
		_, err = s.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return fmt.Errorf("save call record: %w", err)
	}
	return nil
}

// GetCall retrieves one record by call ID.
func (s *SQLiteStore) GetCall(ctx context.Context, callID string) (*domain.CallRecord, error) {
	query := `
		SELECT call_id, agent_id, scenario_id, scenario_name,
		       started_at, ended_at, duration_sec, status, disconnection_reason,
		       transcript_raw, transcript_json, analysis_json, created_at
		FROM call_records WHERE call_id = ?`

	rec, err := scanCallRecord(s.db.QueryRowContext(ctx, query, callID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan call record: %w", err)
	}
	return rec, nil
}

// ListRecent returns up to limit records, newest first.
func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]*domain.CallRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT call_id, agent_id, scenario_id, scenario_name,
		       started_at, ended_at, duration_sec, status, disconnection_reason,
		       transcript_raw, transcript_json, analysis_json, created_at
		FROM call_records ORDER BY ended_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list call records: %w", err)
	}
	defer rows.Close()

	var records []*domain.CallRecord
	for rows.Next() {
		rec, err := scanCallRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan call record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// AttachAnalysis stores the coaching scorecard JSON for a call.
func (s *SQLiteStore) AttachAnalysis(ctx context.Context, callID, analysisJSON string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE call_records SET analysis_json = ? WHERE call_id = ?`,
		analysisJSON, callID)
	if err != nil {
		return fmt.Errorf("attach analysis: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("call %s: %w", callID, domain.ErrNotFound)
	}
	return nil
}

// DeleteBefore removes records that ended before cutoff.
func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM call_records WHERE ended_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete old call records: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCallRecord(row rowScanner) (*domain.CallRecord, error) {
	var rec domain.CallRecord
	var status, reason, transcriptRaw, transcriptJSON, analysisJSON sql.NullString
	var startedAt, endedAt, createdAt int64

	err := row.Scan(
		&rec.CallID, &rec.AgentID, &rec.ScenarioID, &rec.ScenarioName,
		&startedAt, &endedAt, &rec.DurationSec, &status, &reason,
		&transcriptRaw, &transcriptJSON, &analysisJSON, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = status.String
	rec.DisconnectionReason = reason.String
	rec.TranscriptRaw = transcriptRaw.String
	rec.TranscriptJSON = transcriptJSON.String
	rec.AnalysisJSON = analysisJSON.String
	rec.StartedAt = time.Unix(startedAt, 0)
	rec.EndedAt = time.Unix(endedAt, 0)
	rec.CreatedAt = time.Unix(createdAt, 0)
	return &rec, nil
}
