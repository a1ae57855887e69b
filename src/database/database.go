package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/username/folioledger/backend/src/logger"
	"github.com/username/folioledger/backend/src/models"
	_ "modernc.org/sqlite"
)

// Open opens the sqlite database and returns the handle. The handle is
// threaded explicitly into every store and processor so tests can run
// against isolated instances; there is no package-level connection.
func Open(databasePath string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)", databasePath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", databasePath, err)
	}

	// Limit open connections to 1 for SQLite to avoid locking issues
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.L.Info("Database connection established with WAL mode, busy_timeout, and foreign_keys enabled.")
	return db, nil
}

// RunMigrations applies the file-based migrations in db/migrations.
func RunMigrations(db *sql.DB, databasePath string) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create sqlite migration driver: %w", err)
	}

	migrationsSourceURL := os.Getenv("MIGRATIONS_URL")
	if migrationsSourceURL == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current working directory: %w", err)
		}
		localMigrationsPath := filepath.Join(cwd, "db", "migrations")
		migrationsSourceURL = fmt.Sprintf("file://%s", filepath.ToSlash(localMigrationsPath))
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsSourceURL, databasePath, driver)
	if err != nil {
		return fmt.Errorf("migration instance creation failed (source %s): %w", migrationsSourceURL, err)
	}

	logger.L.Info("Applying database migrations...", "source", migrationsSourceURL)
	err = m.Up()
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.L.Info("No new database migrations to apply.")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	logger.L.Info("Database migrations applied successfully.")
	return nil
}

// EnsureBaseCurrency verifies at startup that the configured base currency
// matches the ledger's base currency and is present in the currencies
// table. The base currency is baked into every stored amount, so a
// mismatched configuration must fail fast rather than be silently ignored.
func EnsureBaseCurrency(db *sql.DB, code string) error {
	if code != models.BaseCurrencyCode {
		return fmt.Errorf("configured base currency %q does not match the ledger base currency %q", code, models.BaseCurrencyCode)
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM currencies WHERE code = ?", code).Scan(&count); err != nil {
		return fmt.Errorf("failed to look up base currency: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("base currency %q is not present in the currencies table", code)
	}
	return nil
}
