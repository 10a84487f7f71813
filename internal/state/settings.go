package state

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jxwalker/mdcsync/internal/api"
)

func (db *DB) InitSettingsTable() error {
	if db == nil || db.SQL == nil {
		return errors.New("nil db")
	}
	_, err := db.SQL.Exec(`CREATE TABLE IF NOT EXISTS settings (
		name TEXT PRIMARY KEY,
		id INTEGER,
		value TEXT,
		display_name TEXT,
		description TEXT,
		updated_at INTEGER NOT NULL
	);`)
	return err
}

// SetSetting upserts one setting by name.
func (db *DB) SetSetting(ctx context.Context, s api.Setting) error {
	if db == nil || db.SQL == nil {
		return errors.New("nil db")
	}
	return upsertSetting(ctx, db.SQL, s)
}

// SetSettings upserts a batch of settings in one transaction.
func (db *DB) SetSettings(ctx context.Context, settings []api.Setting) error {
	if db == nil || db.SQL == nil {
		return errors.New("nil db")
	}
	tx, err := db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, s := range settings {
		if err := upsertSetting(ctx, tx, s); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertSetting(ctx context.Context, ex execer, s api.Setting) error {
	if s.Name == "" {
		return errors.New("setting name required")
	}
	_, err := ex.ExecContext(ctx, `INSERT INTO settings(name, id, value, display_name, description, updated_at)
		VALUES(?,?,?,?,?,strftime('%s','now'))
		ON CONFLICT(name) DO UPDATE SET id=excluded.id, value=excluded.value, display_name=excluded.display_name, description=excluded.description, updated_at=strftime('%s','now')`,
		s.Name, s.ID, string(s.Value), s.DisplayName, s.Description)
	return err
}

// Setting returns the cached setting with the given name.
func (db *DB) Setting(ctx context.Context, name string) (api.Setting, bool, error) {
	if db == nil || db.SQL == nil {
		return api.Setting{}, false, errors.New("nil db")
	}
	var s api.Setting
	var value string
	row := db.SQL.QueryRowContext(ctx, `SELECT name, COALESCE(id, 0), COALESCE(value, ''), COALESCE(display_name, ''), COALESCE(description, '') FROM settings WHERE name=?`, name)
	switch err := row.Scan(&s.Name, &s.ID, &value, &s.DisplayName, &s.Description); err {
	case sql.ErrNoRows:
		return api.Setting{}, false, nil
	case nil:
		if value != "" {
			s.Value = []byte(value)
		}
		return s, true, nil
	default:
		return api.Setting{}, false, err
	}
}

// ListSettings returns all cached settings ordered by name.
func (db *DB) ListSettings(ctx context.Context) ([]api.Setting, error) {
	if db == nil || db.SQL == nil {
		return nil, errors.New("nil db")
	}
	rows, err := db.SQL.QueryContext(ctx, `SELECT name, COALESCE(id, 0), COALESCE(value, ''), COALESCE(display_name, ''), COALESCE(description, '') FROM settings ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []api.Setting
	for rows.Next() {
		var s api.Setting
		var value string
		if err := rows.Scan(&s.Name, &s.ID, &value, &s.DisplayName, &s.Description); err != nil {
			return nil, err
		}
		if value != "" {
			s.Value = []byte(value)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ClearSettings deletes every cached setting.
func (db *DB) ClearSettings(ctx context.Context) error {
	if db == nil || db.SQL == nil {
		return errors.New("nil db")
	}
	_, err := db.SQL.ExecContext(ctx, `DELETE FROM settings`)
	return err
}
