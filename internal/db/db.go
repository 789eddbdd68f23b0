package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/vacay/internal/config"
	_ "modernc.org/sqlite"
)

// FileName is the database file created inside the base directory.
const FileName = "vacay.db"

// pragmas are applied to every pooled connection through the DSN.
var pragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
}

// migrations are applied in order; migrations[i] moves user_version from i to i+1.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS slots (
	  name       TEXT PRIMARY KEY,
	  value      BLOB NOT NULL,
	  updated_at INTEGER NOT NULL
	);`,
}

// CurrentSchemaVersion is the schema version Init migrates to.
var CurrentSchemaVersion = len(migrations)

// Init opens (creating if needed) baseDir/vacay.db and brings its schema up to date.
// Tests pass t.TempDir() as baseDir.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	path := filepath.Join(baseDir, FileName)
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := setup(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(path, 0600)
	return db, nil
}

func dsn(path string) string {
	params := make([]string, len(pragmas))
	for i, p := range pragmas {
		params[i] = "_pragma=" + p
	}
	return path + "?" + strings.Join(params, "&")
}

func setup(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return migrate(db)
}

// ConfigurePool applies the configured pool limits. Zero values keep the driver defaults.
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, CurrentSchemaVersion)
	}

	for v := version; v < CurrentSchemaVersion; v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version=%d", v+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
	}
	return nil
}

// GetUserVersion reads the user_version pragma.
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion writes the user_version pragma.
func SetUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
