package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const docStoreLogPrefix = "memory:docstore"

// DocStore is the Postgres-backed document store. Request and response
// payloads are kept as JSONB documents.
type DocStore struct {
	pool *pgxpool.Pool
}

// NewDocStore connects a pgx pool to databaseURL and verifies connectivity.
// Any failure here is expected to be handled by the caller's fallback to the
// local embedded store.
func NewDocStore(ctx context.Context, databaseURL string) (*DocStore, error) {
	slog.Info(fmt.Sprintf("%s - Connecting to document store", docStoreLogPrefix))

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to parse database URL: %w", docStoreLogPrefix, err)
	}
	config.MaxConns = 20
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create pool: %w", docStoreLogPrefix, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s - failed to ping database: %w", docStoreLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Document store connection established", docStoreLogPrefix))
	return &DocStore{pool: pool}, nil
}

// Pool exposes the underlying pool for health checks and migrations.
func (s *DocStore) Pool() *pgxpool.Pool { return s.pool }

// Close releases the connection pool.
func (s *DocStore) Close() { s.pool.Close() }

// StoreInteraction appends one interaction document.
func (s *DocStore) StoreInteraction(ctx context.Context, userID string, requestData, responseData map[string]any) error {
	reqJSON, err := json.Marshal(requestData)
	if err != nil {
		return fmt.Errorf("%s - failed to encode request: %w", docStoreLogPrefix, err)
	}
	respJSON, err := json.Marshal(responseData)
	if err != nil {
		return fmt.Errorf("%s - failed to encode response: %w", docStoreLogPrefix, err)
	}

	module, intent := requestFields(requestData)

	_, err = s.pool.Exec(ctx,
		`INSERT INTO interactions (user_id, timestamp, module, intent, request_json, response_json)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, time.Now().UTC(), module, intent, reqJSON, respJSON)
	if err != nil {
		return fmt.Errorf("%s - insert failed: %w", docStoreLogPrefix, err)
	}
	return nil
}

// GetUserHistory returns the full history for a user, most recent first.
func (s *DocStore) GetUserHistory(ctx context.Context, userID string) ([]Interaction, error) {
	return s.query(ctx, userID, 0)
}

// GetContext returns at most limit recent interactions, most recent first.
func (s *DocStore) GetContext(ctx context.Context, userID string, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = DefaultContextLimit
	}
	return s.query(ctx, userID, limit)
}

func (s *DocStore) query(ctx context.Context, userID string, limit int) ([]Interaction, error) {
	q := `SELECT id, user_id, timestamp, module, intent, request_json, response_json
	      FROM interactions WHERE user_id = $1 ORDER BY id DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s - query failed: %w", docStoreLogPrefix, err)
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var (
			it       Interaction
			reqJSON  []byte
			respJSON []byte
		)
		if err := rows.Scan(&it.ID, &it.UserID, &it.Timestamp, &it.Module, &it.Intent, &reqJSON, &respJSON); err != nil {
			return nil, fmt.Errorf("%s - scan failed: %w", docStoreLogPrefix, err)
		}
		if err := json.Unmarshal(reqJSON, &it.Request); err != nil {
			it.Request = map[string]any{}
		}
		if err := json.Unmarshal(respJSON, &it.Response); err != nil {
			it.Response = map[string]any{}
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - rows failed: %w", docStoreLogPrefix, err)
	}
	return out, nil
}
