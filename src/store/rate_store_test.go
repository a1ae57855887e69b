package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/folioledger/backend/src/apperrors"
	"github.com/username/folioledger/backend/src/models"
	"github.com/username/folioledger/backend/src/testutil"
)

func TestRateUpsertLastWriteWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	usd := testutil.CreateCurrency(t, db, "USD", "US Dollar")
	s := NewRateStore(db)

	require.NoError(t, s.Upsert(usd, models.UpsertRateRequest{Date: "2026-05-01", Rate: scaledPtr(12_650)}))
	require.NoError(t, s.Upsert(usd, models.UpsertRateRequest{Date: "2026-05-01", Rate: scaledPtr(12_700)}))

	latest, err := s.Latest(usd)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, models.Scaled(12_700), latest.Rate)

	history, err := s.History(usd)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestRateBaseCurrencyRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gbp := testutil.CurrencyID(t, db, models.BaseCurrencyCode)
	s := NewRateStore(db)

	err := s.Upsert(gbp, models.UpsertRateRequest{Date: "2026-05-01", Rate: scaledPtr(10_000)})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestRateAbsenceIsNilNotError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	usd := testutil.CreateCurrency(t, db, "USD", "US Dollar")
	s := NewRateStore(db)

	latest, err := s.Latest(usd)
	require.NoError(t, err)
	assert.Nil(t, latest)

	onDate, err := s.OnDate(usd, "2026-05-01")
	require.NoError(t, err)
	assert.Nil(t, onDate)
}

func TestRateUnknownCurrency(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := NewRateStore(db)

	err := s.Upsert(9999, models.UpsertRateRequest{Date: "2026-05-01", Rate: scaledPtr(12_650)})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
