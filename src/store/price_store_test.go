package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/folioledger/backend/src/apperrors"
	"github.com/username/folioledger/backend/src/models"
	"github.com/username/folioledger/backend/src/testutil"
)

func scaledPtr(n int64) *models.Scaled {
	s := models.Scaled(n)
	return &s
}

func TestPriceUpsertLastWriteWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gbp := testutil.CurrencyID(t, db, "GBP")
	invID := testutil.CreateInvestment(t, db, gbp, "Alpha Growth Fund")
	s := NewPriceStore(db)

	require.NoError(t, s.Upsert(invID, models.UpsertPriceRequest{Date: "2026-05-01", Price: scaledPtr(61_200)}))
	require.NoError(t, s.Upsert(invID, models.UpsertPriceRequest{Date: "2026-05-01", Price: scaledPtr(61_450)}))

	latest, err := s.Latest(invID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2026-05-01", latest.Date)
	assert.Equal(t, models.Scaled(61_450), latest.Price)

	history, err := s.History(invID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "same-date upsert must replace, not append")
}

func TestPriceLatestPicksNewestDate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gbp := testutil.CurrencyID(t, db, "GBP")
	invID := testutil.CreateInvestment(t, db, gbp, "Alpha Growth Fund")
	s := NewPriceStore(db)

	require.NoError(t, s.Upsert(invID, models.UpsertPriceRequest{Date: "2026-05-02", Price: scaledPtr(61_300)}))
	require.NoError(t, s.Upsert(invID, models.UpsertPriceRequest{Date: "2026-04-30", Price: scaledPtr(61_100)}))

	latest, err := s.Latest(invID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2026-05-02", latest.Date)
}

func TestPriceAbsenceIsNilNotError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gbp := testutil.CurrencyID(t, db, "GBP")
	invID := testutil.CreateInvestment(t, db, gbp, "Alpha Growth Fund")
	s := NewPriceStore(db)

	latest, err := s.Latest(invID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	onDate, err := s.OnDate(invID, "2026-05-01")
	require.NoError(t, err)
	assert.Nil(t, onDate)
}

func TestPriceUpsertValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gbp := testutil.CurrencyID(t, db, "GBP")
	invID := testutil.CreateInvestment(t, db, gbp, "Alpha Growth Fund")
	s := NewPriceStore(db)

	err := s.Upsert(invID, models.UpsertPriceRequest{Date: "01/05/2026", Price: scaledPtr(61_200)})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	err = s.Upsert(invID, models.UpsertPriceRequest{Date: "2026-05-01"})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	err = s.Upsert(9999, models.UpsertPriceRequest{Date: "2026-05-01", Price: scaledPtr(61_200)})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
