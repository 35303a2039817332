package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ohmyhungrygod/gameclient/internal/game"
)

// SQLiteStore implements SessionStore on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the history database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// WAL keeps writers from blocking the status reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			room_id TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			score INTEGER NOT NULL DEFAULT 0,
			total_orders INTEGER NOT NULL DEFAULT 0,
			success_count INTEGER NOT NULL DEFAULT 0,
			fail_count INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL,
			ended_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS session_counters (
			session_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (session_id, kind),
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveSession writes one finished session and its per-kind counters.
func (s *SQLiteStore) SaveSession(rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save session: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (
			id, mode, room_id, outcome, score, total_orders,
			success_count, fail_count, started_at, ended_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.Mode, rec.RoomID, rec.Outcome, rec.Score,
		rec.TotalOrders, rec.SuccessCount, rec.FailCount,
		rec.StartedAt.UTC(), rec.EndedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for kind, count := range rec.Counters {
		if _, err := tx.Exec(
			`INSERT INTO session_counters (session_id, kind, count) VALUES (?, ?, ?)`,
			rec.ID.String(), string(kind), count,
		); err != nil {
			return fmt.Errorf("insert session counter: %w", err)
		}
	}

	return tx.Commit()
}

// ListSessions returns the most recent sessions, newest first.
func (s *SQLiteStore) ListSessions(limit int) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT id, mode, room_id, outcome, score, total_orders,
			success_count, fail_count, started_at, ended_at
		FROM sessions ORDER BY ended_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var id string
		var startedAt, endedAt time.Time
		if err := rows.Scan(
			&id, &rec.Mode, &rec.RoomID, &rec.Outcome, &rec.Score,
			&rec.TotalOrders, &rec.SuccessCount, &rec.FailCount,
			&startedAt, &endedAt,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		rec.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse session id: %w", err)
		}
		rec.StartedAt = startedAt
		rec.EndedAt = endedAt
		rec.Counters, err = s.loadCounters(rec.ID)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SQLiteStore) loadCounters(sessionID uuid.UUID) (map[game.ItemKind]int, error) {
	rows, err := s.db.Query(
		`SELECT kind, count FROM session_counters WHERE session_id = ?`,
		sessionID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query session counters: %w", err)
	}
	defer rows.Close()

	counters := make(map[game.ItemKind]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scan session counter: %w", err)
		}
		counters[game.ItemKind(kind)] = count
	}
	return counters, rows.Err()
}
