package processors

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/folioledger/backend/src/apperrors"
	"github.com/username/folioledger/backend/src/models"
	"github.com/username/folioledger/backend/src/testutil"
)

func cashFixture(t *testing.T, balance int64) (*sql.DB, int64) {
	db := testutil.SetupTestDB(t)
	userID := testutil.CreateUser(t, db, "alice")
	accountID := testutil.CreateAccount(t, db, userID, models.AccountTrading, balance, 0)
	return db, accountID
}

func TestRecordSignedEffects(t *testing.T) {
	tests := []struct {
		name        string
		txType      string
		amount      float64
		wantAmount  models.Scaled
		wantBalance models.Scaled
	}{
		{"deposit credits", models.CashDeposit, 250, 2_500_000, 12_500_000},
		{"withdrawal debits", models.CashWithdrawal, 250, -2_500_000, 7_500_000},
		{"drawdown credits", models.CashDrawdown, 250, 2_500_000, 12_500_000},
		{"positive adjustment credits", models.CashAdjustment, 12.5, 125_000, 10_125_000},
		{"negative adjustment debits", models.CashAdjustment, -12.5, -125_000, 9_875_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, accountID := cashFixture(t, 10_000_000) // 1000

			result, err := NewCashLedger(db).Record(models.CashTransactionRequest{
				AccountID:       accountID,
				TransactionType: tt.txType,
				TransactionDate: "2026-04-01",
				Amount:          scaled(tt.amount),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantAmount, result.Transaction.Amount)
			assert.Equal(t, tt.wantBalance, result.Transaction.BalanceAfter)
			assert.Equal(t, tt.wantBalance, result.Account.CashBalance)

			var cash int64
			require.NoError(t, db.QueryRow("SELECT cash_balance FROM accounts WHERE id = ?", accountID).Scan(&cash))
			assert.Equal(t, int64(tt.wantBalance), cash)
		})
	}
}

func TestRecordInsufficientFunds(t *testing.T) {
	db, accountID := cashFixture(t, 10_000_000)
	ledger := NewCashLedger(db)

	_, err := ledger.Record(models.CashTransactionRequest{
		AccountID:       accountID,
		TransactionType: models.CashWithdrawal,
		TransactionDate: "2026-04-01",
		Amount:          scaled(1000.0001),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInsufficientFunds, apperrors.KindOf(err))
	assert.Equal(t, "Insufficient funds", apperrors.Message(err))

	var cash, rows int64
	require.NoError(t, db.QueryRow("SELECT cash_balance FROM accounts WHERE id = ?", accountID).Scan(&cash))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM cash_transactions WHERE account_id = ?", accountID).Scan(&rows))
	assert.Equal(t, int64(10_000_000), cash)
	assert.Equal(t, int64(0), rows)
}

// Withdrawing the exact balance is allowed; the account just ends at zero.
func TestRecordWithdrawToZero(t *testing.T) {
	db, accountID := cashFixture(t, 10_000_000)

	result, err := NewCashLedger(db).Record(models.CashTransactionRequest{
		AccountID:       accountID,
		TransactionType: models.CashWithdrawal,
		TransactionDate: "2026-04-01",
		Amount:          scaled(1000),
	})
	require.NoError(t, err)
	assert.Equal(t, models.Scaled(0), result.Account.CashBalance)
}

func TestRecordValidation(t *testing.T) {
	db, accountID := cashFixture(t, 10_000_000)
	ledger := NewCashLedger(db)

	tests := []struct {
		name    string
		req     models.CashTransactionRequest
		message string
	}{
		{"missing type", models.CashTransactionRequest{AccountID: accountID}, "Transaction type is required"},
		{"bad type", models.CashTransactionRequest{AccountID: accountID, TransactionType: "transfer"}, "Transaction type must be one of deposit, withdrawal, drawdown, adjustment"},
		{"missing date", models.CashTransactionRequest{AccountID: accountID, TransactionType: models.CashDeposit}, "Transaction date is required"},
		{"bad date", models.CashTransactionRequest{AccountID: accountID, TransactionType: models.CashDeposit, TransactionDate: "01-04-2026"}, "Transaction date must be in YYYY-MM-DD format"},
		{"missing amount", models.CashTransactionRequest{AccountID: accountID, TransactionType: models.CashDeposit, TransactionDate: "2026-04-01"}, "Amount is required"},
		{"zero deposit", models.CashTransactionRequest{AccountID: accountID, TransactionType: models.CashDeposit, TransactionDate: "2026-04-01", Amount: scaled(0)}, "Amount must be greater than zero"},
		{"negative withdrawal", models.CashTransactionRequest{AccountID: accountID, TransactionType: models.CashWithdrawal, TransactionDate: "2026-04-01", Amount: scaled(-5)}, "Amount must be greater than zero"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.Record(tt.req)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
			assert.Equal(t, tt.message, apperrors.Message(err))
		})
	}
}

func TestRecordUnknownAccount(t *testing.T) {
	db, _ := cashFixture(t, 10_000_000)
	_, err := NewCashLedger(db).Record(models.CashTransactionRequest{
		AccountID:       9999,
		TransactionType: models.CashDeposit,
		TransactionDate: "2026-04-01",
		Amount:          scaled(10),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestHistoryNewestFirstWithBalanceSnapshots(t *testing.T) {
	db, accountID := cashFixture(t, 10_000_000)
	ledger := NewCashLedger(db)

	steps := []struct {
		txType string
		date   string
		amount float64
	}{
		{models.CashDeposit, "2026-04-01", 100},
		{models.CashWithdrawal, "2026-04-02", 300},
		{models.CashDeposit, "2026-04-03", 50},
	}
	for _, s := range steps {
		_, err := ledger.Record(models.CashTransactionRequest{
			AccountID:       accountID,
			TransactionType: s.txType,
			TransactionDate: s.date,
			Amount:          scaled(s.amount),
		})
		require.NoError(t, err)
	}

	history, err := ledger.History(accountID, 0, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "2026-04-03", history[0].TransactionDate)
	assert.Equal(t, models.Scaled(8_500_000), history[0].BalanceAfter)
	assert.Equal(t, "2026-04-02", history[1].TransactionDate)
	assert.Equal(t, models.Scaled(8_000_000), history[1].BalanceAfter)
	assert.Equal(t, "2026-04-01", history[2].TransactionDate)
	assert.Equal(t, models.Scaled(11_000_000), history[2].BalanceAfter)
}

func TestHistoryPagination(t *testing.T) {
	db, accountID := cashFixture(t, 10_000_000)
	ledger := NewCashLedger(db)

	for _, date := range []string{"2026-04-01", "2026-04-02", "2026-04-03"} {
		_, err := ledger.Record(models.CashTransactionRequest{
			AccountID:       accountID,
			TransactionType: models.CashDeposit,
			TransactionDate: date,
			Amount:          scaled(10),
		})
		require.NoError(t, err)
	}

	page, err := ledger.History(accountID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "2026-04-03", page[0].TransactionDate)

	page, err = ledger.History(accountID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "2026-04-01", page[0].TransactionDate)
}

func TestReverseCashTransaction(t *testing.T) {
	db, accountID := cashFixture(t, 10_000_000)
	ledger := NewCashLedger(db)

	result, err := ledger.Record(models.CashTransactionRequest{
		AccountID:       accountID,
		TransactionType: models.CashWithdrawal,
		TransactionDate: "2026-04-01",
		Amount:          scaled(400),
	})
	require.NoError(t, err)

	require.NoError(t, ledger.Reverse(result.Transaction.ID))

	var cash, rows int64
	require.NoError(t, db.QueryRow("SELECT cash_balance FROM accounts WHERE id = ?", accountID).Scan(&cash))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM cash_transactions WHERE account_id = ?", accountID).Scan(&rows))
	assert.Equal(t, int64(10_000_000), cash)
	assert.Equal(t, int64(0), rows)
}

// A deposit that has since been spent cannot be reversed below zero.
func TestReverseDepositGuardsBalance(t *testing.T) {
	db, accountID := cashFixture(t, 0)
	ledger := NewCashLedger(db)

	deposit, err := ledger.Record(models.CashTransactionRequest{
		AccountID:       accountID,
		TransactionType: models.CashDeposit,
		TransactionDate: "2026-04-01",
		Amount:          scaled(100),
	})
	require.NoError(t, err)
	_, err = ledger.Record(models.CashTransactionRequest{
		AccountID:       accountID,
		TransactionType: models.CashWithdrawal,
		TransactionDate: "2026-04-02",
		Amount:          scaled(80),
	})
	require.NoError(t, err)

	err = ledger.Reverse(deposit.Transaction.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInsufficientFunds, apperrors.KindOf(err))
}

func TestReverseUnknownCashTransaction(t *testing.T) {
	db, _ := cashFixture(t, 0)
	err := NewCashLedger(db).Reverse(42)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
