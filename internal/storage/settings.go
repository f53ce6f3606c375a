package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fiscus/internal/core"
)

func (r *SQLiteRepository) GetSetting(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", core.ErrEmptySettingKey
	}
	s, err := r.queries.GetSetting(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%q: %w", key, core.ErrSettingNotFound)
	}
	if err != nil {
		return "", core.NewStorageError("get setting", err)
	}
	return s.Value, nil
}

// SetSetting inserts or replaces the value stored under key.
func (r *SQLiteRepository) SetSetting(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return core.ErrEmptySettingKey
	}
	err := r.queries.UpsertSetting(ctx, UpsertSettingParams{
		Key:       key,
		Value:     value,
		UpdatedAt: formatTime(r.now()),
	})
	if err != nil {
		return core.NewStorageError("upsert setting", err)
	}
	return nil
}

func (r *SQLiteRepository) ListSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.queries.ListSettings(ctx)
	if err != nil {
		return nil, core.NewStorageError("list settings", err)
	}
	out := make(map[string]string, len(rows))
	for _, s := range rows {
		out[s.Key] = s.Value
	}
	return out, nil
}
