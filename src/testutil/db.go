// Package testutil provides isolated in-memory database fixtures for
// engine tests.
package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/username/folioledger/backend/src/logger"
)

var loggerOnce sync.Once

// SetupTestDB opens a fresh in-memory sqlite database with the full
// migration schema applied. Every call returns an isolated instance.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	loggerOnce.Do(func() { logger.InitLogger("error") })

	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(on)")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile(migrationPath(t))
	if err != nil {
		t.Fatalf("failed to read migration schema: %v", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("failed to apply migration schema: %v", err)
	}
	return db
}

// migrationPath locates db/migrations relative to this source file so
// tests work regardless of the package they run from.
func migrationPath(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to locate testutil source file")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "db", "migrations", "000001_init.up.sql")
}

// CreateUser inserts a user and returns its id.
func CreateUser(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	res, err := db.Exec("INSERT INTO users (name) VALUES (?)", name)
	if err != nil {
		t.Fatalf("failed to insert user: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

// CreateCurrency inserts a currency and returns its id. The base currency
// GBP is seeded by the migration; use CurrencyID to look it up.
func CreateCurrency(t *testing.T, db *sql.DB, code, description string) int64 {
	t.Helper()
	res, err := db.Exec("INSERT INTO currencies (code, description) VALUES (?, ?)", code, description)
	if err != nil {
		t.Fatalf("failed to insert currency %s: %v", code, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// CurrencyID returns the id of an existing currency by code.
func CurrencyID(t *testing.T, db *sql.DB, code string) int64 {
	t.Helper()
	var id int64
	if err := db.QueryRow("SELECT id FROM currencies WHERE code = ?", code).Scan(&id); err != nil {
		t.Fatalf("failed to look up currency %s: %v", code, err)
	}
	return id
}

// CreateInvestment inserts an investment (type: Share) and returns its id.
func CreateInvestment(t *testing.T, db *sql.DB, currencyID int64, description string) int64 {
	t.Helper()
	res, err := db.Exec(`
		INSERT INTO investments (currency_id, type_id, description)
		VALUES (?, (SELECT id FROM investment_types WHERE description = 'Share'), ?)`,
		currencyID, description)
	if err != nil {
		t.Fatalf("failed to insert investment %s: %v", description, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// CreateAccount inserts an account with a scaled cash balance and returns
// its id.
func CreateAccount(t *testing.T, db *sql.DB, userID int64, accountType string, cashBalance, warnCash int64) int64 {
	t.Helper()
	res, err := db.Exec(`
		INSERT INTO accounts (user_id, account_type, account_ref, cash_balance, warn_cash)
		VALUES (?, ?, '', ?, ?)`, userID, accountType, cashBalance, warnCash)
	if err != nil {
		t.Fatalf("failed to insert account: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

// CreateHolding inserts a holding with scaled quantity and average cost
// and returns its id.
func CreateHolding(t *testing.T, db *sql.DB, accountID, investmentID, quantity, averageCost int64) int64 {
	t.Helper()
	res, err := db.Exec(`
		INSERT INTO holdings (account_id, investment_id, quantity, average_cost)
		VALUES (?, ?, ?, ?)`, accountID, investmentID, quantity, averageCost)
	if err != nil {
		t.Fatalf("failed to insert holding: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}
