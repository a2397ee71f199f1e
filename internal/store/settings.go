package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Setting reads a persisted module setting. ok is false when the key has
// never been set.
func (s *Store) Setting(ctx context.Context, module, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE module = ? AND key = ?`,
		module, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read setting %s/%s: %w", module, key, err)
	}
	return value, true, nil
}

// SetSetting persists a module setting, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, module, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (module, key, value) VALUES (?, ?, ?)
		ON CONFLICT(module, key) DO UPDATE SET value = excluded.value
	`, module, key, value)
	if err != nil {
		return fmt.Errorf("write setting %s/%s: %w", module, key, err)
	}
	return nil
}
