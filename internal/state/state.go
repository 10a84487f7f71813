package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/glebarez/sqlite"

	"github.com/jxwalker/mdcsync/internal/config"
)

// DB is the sqlite-backed settings store and action history.
type DB struct {
	SQL  *sql.DB
	Path string
}

func Open(cfg *config.Config) (*DB, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if cfg.General.DataRoot == "" {
		return nil, errors.New("general.data_root required")
	}
	if err := os.MkdirAll(cfg.General.DataRoot, 0o755); err != nil {
		return nil, err
	}
	return NewDB(cfg.StatePath())
}

// NewDB opens (creating if needed) the database at path.
func NewDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout=5000&_pragma=journal_mode(WAL)", path)
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db := &DB{SQL: sqldb, Path: path}
	if err := db.InitSettingsTable(); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	if err := db.InitActionsTable(); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying database.
func (db *DB) Close() error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Close()
}
