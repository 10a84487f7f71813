package state

import (
	"context"
	"errors"
	"time"
)

// ActionRow is one completed dependency action as shown by `mdcsync status --history`.
type ActionRow struct {
	Action    string
	Target    string // list name, empty for install/check
	Outcome   string // success | warning | error
	Message   string
	CreatedAt int64
}

func (db *DB) InitActionsTable() error {
	if db == nil || db.SQL == nil {
		return errors.New("nil db")
	}
	_, err := db.SQL.Exec(`CREATE TABLE IF NOT EXISTS actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		target TEXT,
		outcome TEXT NOT NULL,
		message TEXT,
		created_at INTEGER NOT NULL
	);`)
	return err
}

// RecordAction appends a row to the action history.
func (db *DB) RecordAction(ctx context.Context, row ActionRow) error {
	if db == nil || db.SQL == nil {
		return errors.New("nil db")
	}
	if row.CreatedAt == 0 {
		row.CreatedAt = time.Now().Unix()
	}
	_, err := db.SQL.ExecContext(ctx, `INSERT INTO actions(action, target, outcome, message, created_at) VALUES(?,?,?,?,?)`,
		row.Action, row.Target, row.Outcome, row.Message, row.CreatedAt)
	return err
}

// ListActions returns the most recent actions first. limit <= 0 means all.
func (db *DB) ListActions(ctx context.Context, limit int) ([]ActionRow, error) {
	if db == nil || db.SQL == nil {
		return nil, errors.New("nil db")
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.SQL.QueryContext(ctx, `SELECT action, COALESCE(target, ''), outcome, COALESCE(message, ''), created_at
		FROM actions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []ActionRow
	for rows.Next() {
		var r ActionRow
		if err := rows.Scan(&r.Action, &r.Target, &r.Outcome, &r.Message, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClearActions deletes the action history.
func (db *DB) ClearActions(ctx context.Context) error {
	if db == nil || db.SQL == nil {
		return errors.New("nil db")
	}
	_, err := db.SQL.ExecContext(ctx, `DELETE FROM actions`)
	return err
}
