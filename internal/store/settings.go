package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const createSettingsTable = `
CREATE TABLE IF NOT EXISTS mailblast_settings (
    key        TEXT PRIMARY KEY,
    value      JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const getSetting = `
SELECT value, updated_at FROM mailblast_settings WHERE key = $1`

const upsertSetting = `
INSERT INTO mailblast_settings (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

// Migrate creates the settings table if it does not exist.
func (q *Queries) Migrate(ctx context.Context) error {
	if _, err := q.db.Exec(ctx, createSettingsTable); err != nil {
		return fmt.Errorf("create settings table: %w", err)
	}
	return nil
}

func (q *Queries) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var (
		value     []byte
		updatedAt time.Time
	)
	err := q.db.QueryRow(ctx, getSetting, key).Scan(&value, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get setting %q: %w", key, err)
	}
	return json.RawMessage(value), nil
}

func (q *Queries) Put(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return errors.New("store: value is not valid JSON")
	}
	if _, err := q.db.Exec(ctx, upsertSetting, key, []byte(value)); err != nil {
		return fmt.Errorf("put setting %q: %w", key, err)
	}
	return nil
}
