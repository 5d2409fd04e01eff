package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cookieshop/backend/internal/domain/settings"
)

const (
	getSettingsSQL = `SELECT document FROM settings WHERE id = 1`

	upsertSettingsSQL = `INSERT INTO settings (id, document, updated_at) VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = now()`
)

var _ settings.Repository = (*SettingsRepository)(nil)

// SettingsRepository stores the singleton settings document as JSONB.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository returns a SettingsRepository that uses the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Get reads the settings document, creating and persisting the defaults when
// the store is empty.
func (r *SettingsRepository) Get(ctx context.Context) (*settings.Settings, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, getSettingsSQL).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			def := settings.Defaults()
			if err := r.Upsert(ctx, &def); err != nil {
				return nil, fmt.Errorf("persisting default settings: %w", err)
			}
			return &def, nil
		}
		return nil, fmt.Errorf("getting settings: %w", err)
	}

	var s settings.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decoding settings document: %w", err)
	}
	return &s, nil
}

// Upsert replaces the stored settings document.
func (r *SettingsRepository) Upsert(ctx context.Context, s *settings.Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling settings document: %w", err)
	}
	if _, err := r.pool.Exec(ctx, upsertSettingsSQL, raw); err != nil {
		return fmt.Errorf("upserting settings: %w", err)
	}
	return nil
}
