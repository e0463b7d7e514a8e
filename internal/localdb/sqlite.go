// Package localdb is the on-device SQLite store of record. All reads the
// application serves come from here; the remote mirror only feeds writes
// back in through the same store interfaces.
package localdb

import (
	"database/sql"
	"fmt"

	"syncwell/internal/localdb/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DB owns the SQLite connection and the per-entity stores.
type DB struct {
	db   *sql.DB
	path string

	tasks      *TaskStore
	medicines  *MedicineStore
	wellness   *WellnessStore
	operations *SyncOperationStore
}

// New opens (and migrates) a SQLite database at path.
// path can be a file path or ":memory:" for an in-memory database.
func New(path string) (*DB, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &DB{
		db:         db,
		path:       path,
		tasks:      NewTaskStore(db),
		medicines:  NewMedicineStore(db),
		wellness:   NewWellnessStore(db),
		operations: NewSyncOperationStore(db),
	}, nil
}

// OpenConnection opens and configures a SQLite connection with the
// appropriate PRAGMAs. Exported for tools and tests that need a properly
// configured connection without the store wiring.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Foreign key constraints are OFF by default in SQLite.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Wait up to 5s for locks instead of failing immediately; the mirroring
	// goroutines write concurrently with the CLI.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

func (d *DB) Tasks() *TaskStore               { return d.tasks }
func (d *DB) Medicines() *MedicineStore       { return d.medicines }
func (d *DB) Wellness() *WellnessStore        { return d.wellness }
func (d *DB) Operations() *SyncOperationStore { return d.operations }

// Path returns the database file path (or ":memory:").
func (d *DB) Path() string { return d.path }

// CheckMigrations verifies the database schema is up-to-date.
func (d *DB) CheckMigrations() error {
	return migrations.CheckStatus(d.db)
}

// BackupTo creates a complete copy of the database at destPath using
// VACUUM INTO.
func (d *DB) BackupTo(destPath string) error {
	if _, err := d.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
