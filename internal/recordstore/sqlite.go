// Package recordstore provides a local, sqlite-backed reference
// implementation of the external Record Store capability, for standalone
// CLI use and for the test suite when no external store is configured.
package recordstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gitgovernance/audit/internal/waiver"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	// schemaVersionV1 is the initial feedback-table layout.
	schemaVersionV1  = 1
	schemaChecksumV1 = "ga-v1-feedback-table"

	schemaVersionLatest  = schemaVersionV1
	schemaChecksumLatest = schemaChecksumV1
)

// SQLite is a modernc.org/sqlite-backed RecordStore.
type SQLite struct {
	db *sql.DB
}

// Open opens (creating if absent) a sqlite database at path and applies
// any pending schema migrations.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_meta (
			version   INTEGER NOT NULL,
			checksum  TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema_meta: %w", err)
	}

	var current int
	row := s.db.QueryRow(`SELECT version FROM schema_meta ORDER BY version DESC LIMIT 1`)
	_ = row.Scan(&current) // no rows yet => current stays 0

	if current >= schemaVersionV1 {
		return nil
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS feedback (
			id          TEXT PRIMARY KEY,
			type        TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id   TEXT NOT NULL,
			status      TEXT NOT NULL,
			content     TEXT NOT NULL,
			metadata    TEXT NOT NULL,
			actor_id    TEXT NOT NULL,
			created_at  TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create feedback table (schema v%d): %w", schemaVersionV1, err)
	}
	if _, err := s.db.Exec(
		`INSERT INTO schema_meta (version, checksum) VALUES (?, ?)`,
		schemaVersionV1, schemaChecksumV1,
	); err != nil {
		return fmt.Errorf("record schema v%d: %w", schemaVersionV1, err)
	}
	return nil
}

// ListAllFeedback returns every stored feedback record.
func (s *SQLite) ListAllFeedback() ([]waiver.Feedback, error) {
	rows, err := s.db.Query(`SELECT id, type, entity_type, entity_id, status, content, metadata FROM feedback`)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()
	return scanFeedback(rows)
}

// ListFeedbackByEntity returns feedback records for a single entity.
func (s *SQLite) ListFeedbackByEntity(entityID string) ([]waiver.Feedback, error) {
	rows, err := s.db.Query(
		`SELECT id, type, entity_type, entity_id, status, content, metadata FROM feedback WHERE entity_id = ?`,
		entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list feedback by entity: %w", err)
	}
	defer rows.Close()
	return scanFeedback(rows)
}

func scanFeedback(rows *sql.Rows) ([]waiver.Feedback, error) {
	var out []waiver.Feedback
	for rows.Next() {
		var rec waiver.Feedback
		var metaJSON string
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.EntityType, &rec.EntityID, &rec.Status, &rec.Content, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		rec.Metadata = map[string]any{}
		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("decode feedback metadata: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CreateFeedback persists one signed-in-appearance approval record.
func (s *SQLite) CreateFeedback(payload waiver.CreatePayload, actorID string) (waiver.Feedback, error) {
	metaJSON, err := json.Marshal(payload.Metadata)
	if err != nil {
		return waiver.Feedback{}, fmt.Errorf("encode feedback metadata: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO feedback (id, type, entity_type, entity_id, status, content, metadata, actor_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, payload.Type, payload.EntityType, payload.EntityID, payload.Status, payload.Content, string(metaJSON), actorID, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return waiver.Feedback{}, fmt.Errorf("insert feedback: %w", err)
	}
	return waiver.Feedback{
		ID: id, Type: payload.Type, EntityType: payload.EntityType, EntityID: payload.EntityID,
		Status: payload.Status, Content: payload.Content, Metadata: payload.Metadata,
	}, nil
}
