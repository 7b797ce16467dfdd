package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteLogPrefix = "memory:sqlite"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS interactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	module TEXT NOT NULL,
	intent TEXT NOT NULL DEFAULT '',
	request_json TEXT NOT NULL,
	response_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id, id);
`

// SQLiteStore is the local embedded backend. Writes are serialized with a
// mutex; the single-file store does not tolerate concurrent writers.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (creating if needed) the SQLite store at path and
// ensures the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%s - failed to create data dir: %w", sqliteLogPrefix, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to open %s: %w", sqliteLogPrefix, path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s - failed to ensure schema: %w", sqliteLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Opened interaction store at %s", sqliteLogPrefix, path))
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// StoreInteraction appends one interaction record.
func (s *SQLiteStore) StoreInteraction(ctx context.Context, userID string, requestData, responseData map[string]any) error {
	reqJSON, err := json.Marshal(requestData)
	if err != nil {
		return fmt.Errorf("%s - failed to encode request: %w", sqliteLogPrefix, err)
	}
	respJSON, err := json.Marshal(responseData)
	if err != nil {
		return fmt.Errorf("%s - failed to encode response: %w", sqliteLogPrefix, err)
	}

	module, intent := requestFields(requestData)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO interactions (user_id, timestamp, module, intent, request_json, response_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, time.Now().UTC().Format(time.RFC3339Nano), module, intent, string(reqJSON), string(respJSON))
	if err != nil {
		return fmt.Errorf("%s - insert failed: %w", sqliteLogPrefix, err)
	}
	return nil
}

// GetUserHistory returns the full history for a user, most recent first.
func (s *SQLiteStore) GetUserHistory(ctx context.Context, userID string) ([]Interaction, error) {
	return s.query(ctx, userID, 0)
}

// GetContext returns at most limit recent interactions, most recent first.
func (s *SQLiteStore) GetContext(ctx context.Context, userID string, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = DefaultContextLimit
	}
	return s.query(ctx, userID, limit)
}

func (s *SQLiteStore) query(ctx context.Context, userID string, limit int) ([]Interaction, error) {
	q := `SELECT id, user_id, timestamp, module, intent, request_json, response_json
	      FROM interactions WHERE user_id = ? ORDER BY id DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s - query failed: %w", sqliteLogPrefix, err)
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var (
			it       Interaction
			ts       string
			reqJSON  string
			respJSON string
		)
		if err := rows.Scan(&it.ID, &it.UserID, &ts, &it.Module, &it.Intent, &reqJSON, &respJSON); err != nil {
			return nil, fmt.Errorf("%s - scan failed: %w", sqliteLogPrefix, err)
		}
		it.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		if err := json.Unmarshal([]byte(reqJSON), &it.Request); err != nil {
			it.Request = map[string]any{}
		}
		if err := json.Unmarshal([]byte(respJSON), &it.Response); err != nil {
			it.Response = map[string]any{}
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - rows failed: %w", sqliteLogPrefix, err)
	}
	return out, nil
}

// requestFields pulls module and intent out of the stored request mapping.
func requestFields(requestData map[string]any) (string, string) {
	module, _ := requestData["module"].(string)
	intent, _ := requestData["intent"].(string)
	return module, intent
}
