package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/docforge/docforge/domain"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS generations (
			generation_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			artifact TEXT NOT NULL,
			model TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_generations_session ON generations(session_id, started_at)`,
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			generation_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			type TEXT NOT NULL,
			payload TEXT,
			FOREIGN KEY (generation_id) REFERENCES generations(generation_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_generation ON events(generation_id, ts)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateGeneration creates a new generation record.
func (s *SQLiteStore) CreateGeneration(ctx context.Context, gen *domain.Generation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generations (generation_id, session_id, artifact, model, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		gen.GenerationID, gen.SessionID, string(gen.Artifact), gen.Model, string(gen.Status), gen.StartedAt)
	return err
}

// GetGeneration retrieves a generation by ID.
func (s *SQLiteStore) GetGeneration(ctx context.Context, generationID string) (*domain.Generation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT generation_id, session_id, artifact, model, status, started_at, ended_at, error FROM generations WHERE generation_id = ?`,
		generationID)
	gen, err := scanGeneration(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return gen, nil
}

// UpdateGenerationCompleted marks a generation as finished.
func (s *SQLiteStore) UpdateGenerationCompleted(ctx context.Context, generationID string, status domain.GenerationStatus, errMsg string) error {
	var errVal sql.NullString
	if errMsg != "" {
		errVal = sql.NullString{String: errMsg, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE generations SET status = ?, ended_at = ?, error = ? WHERE generation_id = ?`,
		string(status), time.Now(), errVal, generationID)
	return err
}

// ListGenerations retrieves the most recent generations.
func (s *SQLiteStore) ListGenerations(ctx context.Context, limit int) ([]domain.Generation, error) {
	query := `SELECT generation_id, session_id, artifact, model, status, started_at, ended_at, error FROM generations ORDER BY started_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gens []domain.Generation
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		gens = append(gens, *gen)
	}
	return gens, rows.Err()
}

// CreateEvent creates a new event.
func (s *SQLiteStore) CreateEvent(ctx context.Context, event *domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (event_id, generation_id, ts, type, payload) VALUES (?, ?, ?, ?, ?)`,
		event.EventID, event.GenerationID, event.Ts, string(event.Type), string(event.Payload))
	return err
}

// GetEvents retrieves events for a generation.
func (s *SQLiteStore) GetEvents(ctx context.Context, generationID string, afterTs int64, types []string, limit int) ([]domain.Event, error) {
	query := `SELECT event_id, generation_id, ts, type, payload FROM events WHERE generation_id = ? AND ts > ?`
	args := []interface{}{generationID, afterTs}

	if len(types) > 0 {
		placeholders := strings.Repeat("?,", len(types))
		query += ` AND type IN (` + placeholders[:len(placeholders)-1] + `)`
		for _, t := range types {
			args = append(args, t)
		}
	}

	query += ` ORDER BY ts ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var ev domain.Event
		var payload sql.NullString
		if err := rows.Scan(&ev.EventID, &ev.GenerationID, &ev.Ts, &ev.Type, &payload); err != nil {
			return nil, err
		}
		if payload.Valid {
			ev.Payload = []byte(payload.String)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanGeneration.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGeneration(row rowScanner) (*domain.Generation, error) {
	var gen domain.Generation
	var artifact, status string
	var endedAt sql.NullTime
	var errMsg sql.NullString

	if err := row.Scan(&gen.GenerationID, &gen.SessionID, &artifact, &gen.Model, &status, &gen.StartedAt, &endedAt, &errMsg); err != nil {
		return nil, err
	}
	gen.Artifact = domain.ArtifactType(artifact)
	gen.Status = domain.GenerationStatus(status)
	if endedAt.Valid {
		gen.EndedAt = &endedAt.Time
	}
	if errMsg.Valid {
		gen.Error = errMsg.String
	}
	return &gen, nil
}
