package sqlite

import (
	"context"
	"embed"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // sqlite database/sql driver
)

const (
	driverName    = "sqlite"
	migrationsDir = "sqlite"
)

type DB struct {
	// DSN is a file path or "file::memory:" style URI; pragmas are appended.
	DSN string `yaml:"dsn" envconfig:"SQLITE_DSN" default:"library.db"`
}

func (cfg *DB) dataSource() string {
	return cfg.DSN + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

// NewSQLiteDB opens an embedded database. Writers are serialised on a single
// connection, which is what makes the conditional inventory update atomic
// across goroutines.
func NewSQLiteDB(ctx context.Context, cfg *DB, migrationFiles embed.FS) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driverName, cfg.dataSource())
	if err != nil {
		return nil, errors.Wrap(err, "sqlx.Connect")
	}
	db.SetMaxOpenConns(1)

	if err := MigrateUp(db, migrationFiles); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

func MigrateUp(db *sqlx.DB, migrationFiles embed.FS) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return errors.Wrap(err, "goose.SetDialect")
	}
	if err := goose.Up(db.DB, migrationsDir); err != nil {
		return errors.Wrap(err, "goose.Up")
	}
	return nil
}
