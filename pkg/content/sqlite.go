package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jwebster45206/scene-engine/pkg/scene"
)

const sourcesSchema = `CREATE TABLE IF NOT EXISTS sources (
	id         TEXT PRIMARY KEY,
	format     TEXT NOT NULL,
	payload    BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore keeps source payloads in a SQLite database.
type SQLiteStore struct {
	sqlDB *sql.DB
}

var _ Loader = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) a SQLite content store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sourcesSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create sources table: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping checks the database handle.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Put stores a payload under id after checking that it decodes.
func (s *SQLiteStore) Put(ctx context.Context, id string, format Format, payload []byte) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("source id is required")
	}
	if _, err := Decode(id, payload, format); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO sources (id, format, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET format = excluded.format, payload = excluded.payload, updated_at = excluded.updated_at`,
		id, string(format), payload, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put source %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, sourceID string) (*scene.Source, error) {
	var (
		format  string
		payload []byte
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT format, payload FROM sources WHERE id = ?`, sourceID,
	).Scan(&format, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s: not in store", scene.ErrSourceUnavailable, sourceID)
		}
		return nil, fmt.Errorf("%w: %s: %v", scene.ErrSourceUnavailable, sourceID, err)
	}
	return Decode(sourceID, payload, Format(format))
}

// List returns all stored source ids in order.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id FROM sources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan source id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return ids, nil
}
