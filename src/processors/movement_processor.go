// Package processors contains the mutating engine operations. Each
// multi-row effect (holding + account + audit row, or account + ledger row)
// runs inside a single database transaction: it either fully applies or
// leaves the ledger exactly as it was.
package processors

import (
	"database/sql"
	"time"

	"github.com/username/folioledger/backend/src/apperrors"
	"github.com/username/folioledger/backend/src/fixedpoint"
	"github.com/username/folioledger/backend/src/logger"
	"github.com/username/folioledger/backend/src/models"
	"github.com/username/folioledger/backend/src/store"
)

// MovementProcessor applies buys and sells to a holding, recomputing the
// weighted-average cost and moving the owning account's cash in the same
// transaction, then appends the immutable movement record.
type MovementProcessor struct {
	db *sql.DB
}

func NewMovementProcessor(db *sql.DB) *MovementProcessor {
	return &MovementProcessor{db: db}
}

// MovementResult carries the post-commit state back to the caller so
// derived views can refresh without a second read. Another writer may have
// committed in between; callers needing strong freshness must re-read.
type MovementResult struct {
	Holding  *models.Holding         `json:"holding"`
	Account  *models.Account         `json:"account"`
	Movement *models.HoldingMovement `json:"movement"`
}

// validate applies the structural checks, in order, each with a distinct
// user-facing message. Domain checks (cash, quantity) happen later, inside
// the transaction, against committed state.
func validate(req models.MovementRequest) error {
	if req.MovementType == "" {
		return apperrors.New(apperrors.KindValidation, "Movement type is required")
	}
	if req.MovementType != models.MovementBuy && req.MovementType != models.MovementSell {
		return apperrors.New(apperrors.KindValidation, "Movement type must be 'buy' or 'sell'")
	}
	if req.MovementDate == "" {
		return apperrors.New(apperrors.KindValidation, "Movement date is required")
	}
	if !models.IsValidDate(req.MovementDate) {
		return apperrors.New(apperrors.KindValidation, "Movement date must be in YYYY-MM-DD format")
	}
	if req.Quantity == nil {
		return apperrors.New(apperrors.KindValidation, "Quantity is required")
	}
	if *req.Quantity <= 0 {
		return apperrors.New(apperrors.KindValidation, "Quantity must be greater than zero")
	}
	if req.MovementValue == nil {
		return apperrors.New(apperrors.KindValidation, "Movement value is required")
	}
	if *req.MovementValue < 0 {
		return apperrors.New(apperrors.KindValidation, "Movement value cannot be negative")
	}
	if req.DeductibleCosts < 0 {
		return apperrors.New(apperrors.KindValidation, "Deductible costs cannot be negative")
	}
	if req.DeductibleCosts > *req.MovementValue {
		return apperrors.New(apperrors.KindValidation, "Deductible costs cannot exceed the movement value")
	}
	return nil
}

// Apply validates and executes a buy or sell. The holding update, account
// cash update and movement insert commit as one unit; the domain checks
// run inside the transaction so a racing movement on the same holding is
// validated against the first one's committed result.
func (p *MovementProcessor) Apply(req models.MovementRequest) (result *MovementResult, err error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	tx, err := p.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	holding, err := store.GetHolding(tx, req.HoldingID)
	if err != nil {
		return nil, err
	}
	account, err := store.GetAccount(tx, holding.AccountID)
	if err != nil {
		return nil, err
	}

	quantity := int64(*req.Quantity)
	value := int64(*req.MovementValue)
	deductible := int64(req.DeductibleCosts)

	var movement *models.HoldingMovement
	switch req.MovementType {
	case models.MovementBuy:
		movement, err = p.applyBuy(tx, holding, account, req, quantity, value, deductible)
	case models.MovementSell:
		movement, err = p.applySell(tx, holding, account, req, quantity, value, deductible)
	}
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	logger.L.Info("Movement applied",
		"holdingID", holding.ID, "accountID", account.ID, "type", req.MovementType,
		"date", req.MovementDate, "quantity", req.Quantity.Float(), "value", req.MovementValue.Float())

	return &MovementResult{Holding: holding, Account: account, Movement: movement}, nil
}

// applyBuy adds the book cost (gross consideration minus deductible
// transaction costs) to the cost basis and recomputes the weighted-average
// cost. The average is evaluated in the unscaled decimal domain and
// re-scaled once, so repeated buys cannot accumulate integer drift.
func (p *MovementProcessor) applyBuy(tx *sql.Tx, holding *models.Holding, account *models.Account,
	req models.MovementRequest, quantity, value, deductible int64) (*models.HoldingMovement, error) {

	bookCost := value - deductible
	if value > int64(account.CashBalance) {
		return nil, apperrors.New(apperrors.KindInsufficientFunds, "Insufficient cash")
	}

	newQuantity := int64(holding.Quantity) + quantity
	newAverageCost := fixedpoint.Scale(
		fixedpoint.Unscale(int64(holding.AverageCost)).
			Mul(fixedpoint.Unscale(int64(holding.Quantity))).
			Add(fixedpoint.Unscale(bookCost)).
			Div(fixedpoint.Unscale(newQuantity)))

	if err := updateHolding(tx, holding.ID, newQuantity, newAverageCost); err != nil {
		return nil, err
	}
	newBalance := int64(account.CashBalance) - value
	if err := updateAccountBalance(tx, account.ID, newBalance); err != nil {
		return nil, err
	}
	prior := holding.AverageCost
	revised := models.Scaled(newAverageCost)
	movement := &models.HoldingMovement{
		HoldingID:       holding.ID,
		MovementType:    models.MovementBuy,
		MovementDate:    req.MovementDate,
		Quantity:        models.Scaled(quantity),
		MovementValue:   models.Scaled(value),
		DeductibleCosts: models.Scaled(deductible),
		BookCost:        models.Scaled(bookCost),
		PriorAvgCost:    &prior,
		RevisedAvgCost:  &revised,
		Notes:           req.Notes,
	}
	if err := insertMovement(tx, movement); err != nil {
		return nil, err
	}

	holding.Quantity = models.Scaled(newQuantity)
	holding.AverageCost = models.Scaled(newAverageCost)
	account.CashBalance = models.Scaled(newBalance)
	return movement, nil
}

// applySell reduces quantity and credits net proceeds. The average cost is
// left unchanged: disposing of units does not change the cost basis per
// remaining unit.
func (p *MovementProcessor) applySell(tx *sql.Tx, holding *models.Holding, account *models.Account,
	req models.MovementRequest, quantity, value, deductible int64) (*models.HoldingMovement, error) {

	if quantity > int64(holding.Quantity) {
		return nil, apperrors.New(apperrors.KindInsufficientQuantity, "Insufficient quantity")
	}

	newQuantity := int64(holding.Quantity) - quantity
	netProceeds := value - deductible

	if err := updateHolding(tx, holding.ID, newQuantity, int64(holding.AverageCost)); err != nil {
		return nil, err
	}
	newBalance := int64(account.CashBalance) + netProceeds
	if err := updateAccountBalance(tx, account.ID, newBalance); err != nil {
		return nil, err
	}
	movement := &models.HoldingMovement{
		HoldingID:       holding.ID,
		MovementType:    models.MovementSell,
		MovementDate:    req.MovementDate,
		Quantity:        models.Scaled(quantity),
		MovementValue:   models.Scaled(value),
		DeductibleCosts: models.Scaled(deductible),
		BookCost:        models.Scaled(netProceeds),
		Notes:           req.Notes,
	}
	if err := insertMovement(tx, movement); err != nil {
		return nil, err
	}

	holding.Quantity = models.Scaled(newQuantity)
	account.CashBalance = models.Scaled(newBalance)
	return movement, nil
}

// ListByHolding returns a holding's movement history, newest first.
func (p *MovementProcessor) ListByHolding(holdingID int64) ([]models.HoldingMovement, error) {
	if _, err := store.GetHolding(p.db, holdingID); err != nil {
		return nil, err
	}
	rows, err := p.db.Query(`
		SELECT id, holding_id, movement_type, movement_date, quantity, movement_value,
		       deductible_costs, book_cost, prior_avg_cost, revised_avg_cost, notes, created_at
		FROM holding_movements
		WHERE holding_id = ?
		ORDER BY movement_date DESC, id DESC`, holdingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	movements := []models.HoldingMovement{}
	for rows.Next() {
		var m models.HoldingMovement
		var prior, revised sql.NullInt64
		if err := rows.Scan(&m.ID, &m.HoldingID, &m.MovementType, &m.MovementDate, &m.Quantity,
			&m.MovementValue, &m.DeductibleCosts, &m.BookCost, &prior, &revised, &m.Notes, &m.CreatedAt); err != nil {
			return nil, err
		}
		if prior.Valid {
			pc := models.Scaled(prior.Int64)
			m.PriorAvgCost = &pc
		}
		if revised.Valid {
			r := models.Scaled(revised.Int64)
			m.RevisedAvgCost = &r
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// Reverse deletes a movement as a deliberate correction. Movement rows are
// the audit trail and are never casually removed; a reversal must also
// undo the quantity, average-cost and cash effects the movement produced,
// all in one transaction.
func (p *MovementProcessor) Reverse(movementID int64) (err error) {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	var m models.HoldingMovement
	var prior sql.NullInt64
	err = tx.QueryRow(`
		SELECT id, holding_id, movement_type, movement_date, quantity, movement_value,
		       deductible_costs, book_cost, prior_avg_cost
		FROM holding_movements WHERE id = ?`, movementID).
		Scan(&m.ID, &m.HoldingID, &m.MovementType, &m.MovementDate, &m.Quantity,
			&m.MovementValue, &m.DeductibleCosts, &m.BookCost, &prior)
	if err == sql.ErrNoRows {
		err = apperrors.New(apperrors.KindNotFound, "Movement not found")
		return err
	}
	if err != nil {
		return err
	}
	if m.MovementType != models.MovementBuy && m.MovementType != models.MovementSell {
		err = apperrors.New(apperrors.KindValidation, "Only buy and sell movements can be reversed")
		return err
	}

	holding, err := store.GetHolding(tx, m.HoldingID)
	if err != nil {
		return err
	}
	account, err := store.GetAccount(tx, holding.AccountID)
	if err != nil {
		return err
	}

	switch m.MovementType {
	case models.MovementBuy:
		// Undo the quantity and cash, and restore the average cost the
		// movement row snapshotted before this buy applied. Re-deriving it
		// from the rounded revised average would drift by a rounding unit.
		if int64(m.Quantity) > int64(holding.Quantity) {
			err = apperrors.New(apperrors.KindInsufficientQuantity, "Insufficient quantity to reverse this buy")
			return err
		}
		if !prior.Valid {
			err = apperrors.New(apperrors.KindIntegrity, "Buy movement is missing its prior average cost snapshot")
			return err
		}
		prevQuantity := int64(holding.Quantity) - int64(m.Quantity)
		if err = updateHolding(tx, holding.ID, prevQuantity, prior.Int64); err != nil {
			return err
		}
		if err = updateAccountBalance(tx, account.ID, int64(account.CashBalance)+int64(m.MovementValue)); err != nil {
			return err
		}
	case models.MovementSell:
		netProceeds := int64(m.MovementValue) - int64(m.DeductibleCosts)
		if netProceeds > int64(account.CashBalance) {
			err = apperrors.New(apperrors.KindInsufficientFunds, "Insufficient cash to reverse this sell")
			return err
		}
		if err = updateHolding(tx, holding.ID, int64(holding.Quantity)+int64(m.Quantity), int64(holding.AverageCost)); err != nil {
			return err
		}
		if err = updateAccountBalance(tx, account.ID, int64(account.CashBalance)-netProceeds); err != nil {
			return err
		}
	}

	if _, err = tx.Exec("DELETE FROM holding_movements WHERE id = ?", movementID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	logger.L.Warn("Movement reversed",
		"movementID", movementID, "holdingID", m.HoldingID, "type", m.MovementType, "date", m.MovementDate)
	return nil
}

func updateHolding(tx *sql.Tx, id, quantity, averageCost int64) error {
	_, err := tx.Exec("UPDATE holdings SET quantity = ?, average_cost = ? WHERE id = ?", quantity, averageCost, id)
	if err != nil {
		return apperrors.Wrap(apperrors.KindIntegrity, "the database rejected the holding update", err)
	}
	return nil
}

func updateAccountBalance(tx *sql.Tx, id, balance int64) error {
	_, err := tx.Exec("UPDATE accounts SET cash_balance = ? WHERE id = ?", balance, id)
	if err != nil {
		return apperrors.Wrap(apperrors.KindIntegrity, "the database rejected the account update", err)
	}
	return nil
}

func insertMovement(tx *sql.Tx, m *models.HoldingMovement) error {
	var prior, revised any
	if m.PriorAvgCost != nil {
		prior = int64(*m.PriorAvgCost)
	}
	if m.RevisedAvgCost != nil {
		revised = int64(*m.RevisedAvgCost)
	}
	res, err := tx.Exec(`
		INSERT INTO holding_movements
			(holding_id, movement_type, movement_date, quantity, movement_value, deductible_costs, book_cost, prior_avg_cost, revised_avg_cost, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.HoldingID, m.MovementType, m.MovementDate, int64(m.Quantity), int64(m.MovementValue),
		int64(m.DeductibleCosts), int64(m.BookCost), prior, revised, m.Notes)
	if err != nil {
		return apperrors.Wrap(apperrors.KindIntegrity, "the database rejected the movement insert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = id
	m.CreatedAt = time.Now().UTC()
	return nil
}
