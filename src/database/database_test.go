package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/folioledger/backend/src/models"
	"github.com/username/folioledger/backend/src/testutil"
)

func TestEnsureBaseCurrency(t *testing.T) {
	db := testutil.SetupTestDB(t)

	require.NoError(t, EnsureBaseCurrency(db, models.BaseCurrencyCode))

	err := EnsureBaseCurrency(db, "EUR")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match the ledger base currency")
}

func TestEnsureBaseCurrencyMissingRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, err := db.Exec("DELETE FROM currencies WHERE code = ?", models.BaseCurrencyCode)
	require.NoError(t, err)

	err = EnsureBaseCurrency(db, models.BaseCurrencyCode)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not present in the currencies table")
}
