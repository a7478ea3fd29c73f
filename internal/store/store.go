package store

import (
	"context"
	"database/sql"
	"embed"
	stderrors "errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"studycore/internal/errors"
	"studycore/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB is the embedded local store. One writer, WAL journal, versioned
// additive migrations.
type DB struct {
	*sql.DB
	log    *logger.Logger
	memory bool
}

// Open opens (creating or upgrading as needed) the store at path.
// It returns a STORAGE_UNAVAILABLE error when the host environment cannot
// provide persistent storage; callers degrade to OpenMemory.
func Open(path string) (*DB, error) {
	log := logger.Default().WithPrefix("store")

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL", path)
	log.Info("opening store: %s", path)

	db, err := open(dsn, log)
	if err != nil {
		log.Error("failed to open store: %v", err)
		return nil, errors.NewStorageUnavailableError(err)
	}
	log.Info("store ready")
	return db, nil
}

// OpenMemory opens a non-durable in-memory store. Used when persistent
// storage is unavailable and by tests.
func OpenMemory() (*DB, error) {
	log := logger.Default().WithPrefix("store")
	db, err := open("file::memory:?_foreign_keys=on", log)
	if err != nil {
		return nil, errors.NewStorageUnavailableError(err)
	}
	db.memory = true
	return db, nil
}

func open(dsn string, log *logger.Logger) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1) // SQLite best practice for single writer

	// sql.Open is lazy; force the connection so a broken path fails here.
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	db := &DB{DB: sqlDB, log: log}
	if err := db.applyMigrations(context.Background()); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Memory reports whether this store is a non-durable in-memory fallback.
func (db *DB) Memory() bool {
	return db.memory
}

// applyMigrations runs every embedded migration not yet recorded in
// schema_migrations, in lexical order. Migrations are additive only: a new
// version may add tables and indexes but never drops columns still read by
// older code.
func (db *DB) applyMigrations(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at DATETIME DEFAULT CURRENT_TIMESTAMP)`); err != nil {
		return err
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return err
	}

	for _, entry := range entries {
		version := entry.Name()
		applied, err := db.isMigrationApplied(ctx, version)
		if err != nil {
			return err
		}
		if applied {
			db.log.Debug("migration %s already applied, skipping", version)
			continue
		}
		sqlBytes, err := migrationsFS.ReadFile("migrations/" + version)
		if err != nil {
			return err
		}
		db.log.Info("applying migration: %s", version)
		if _, err := db.ExecContext(ctx, string(sqlBytes)); err != nil {
			db.log.Error("migration %s failed: %v", version, err)
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	var v string
	err := db.QueryRowContext(ctx, `SELECT version FROM schema_migrations WHERE version = ?`, version).Scan(&v)
	if stderrors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Tx runs fn inside a transaction, rolling back on error.
func (db *DB) Tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		db.log.Error("failed to begin transaction: %v", err)
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		db.log.Error("failed to commit transaction: %v", err)
		return err
	}
	return nil
}
