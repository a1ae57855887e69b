package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/username/folioledger/backend/src/models"
	"github.com/username/folioledger/backend/src/processors"
	"github.com/username/folioledger/backend/src/services"
	"github.com/username/folioledger/backend/src/store"
)

type AccountHandler struct {
	accounts   *store.AccountStore
	holdings   *store.HoldingStore
	cash       *processors.CashLedger
	valuations *services.ValuationService
}

func NewAccountHandler(accounts *store.AccountStore, holdings *store.HoldingStore,
	cash *processors.CashLedger, valuations *services.ValuationService) *AccountHandler {
	return &AccountHandler{accounts: accounts, holdings: holdings, cash: cash, valuations: valuations}
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	account, err := h.accounts.Create(req)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	account, err := h.accounts.GetByID(id)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid user id", http.StatusBadRequest)
		return
	}
	accounts, err := h.accounts.ListByUser(userID)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	var req models.UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	account, err := h.accounts.Update(id, req)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	h.valuations.InvalidateCache()
	sendJSON(w, http.StatusOK, account)
}

// Delete removes the account with its holdings, movement history and cash
// history. An explicit, audited destructive operation.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	if err := h.accounts.Delete(id); err != nil {
		sendEngineError(w, err)
		return
	}
	h.valuations.InvalidateCache()
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) ListHoldings(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	if _, err := h.accounts.GetByID(id); err != nil {
		sendEngineError(w, err)
		return
	}
	holdings, err := h.holdings.ListByAccount(id)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, holdings)
}

func (h *AccountHandler) RecordCashTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	var req models.CashTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.AccountID = id
	result, err := h.cash.Record(req)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	h.valuations.InvalidateCache()
	sendJSON(w, http.StatusCreated, result)
}

func (h *AccountHandler) CashHistory(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	history, err := h.cash.History(id, limit, offset)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, history)
}

func (h *AccountHandler) ReverseCashTransaction(w http.ResponseWriter, r *http.Request) {
	txID, err := urlID(r, "txID")
	if err != nil {
		sendJSONError(w, "Invalid transaction id", http.StatusBadRequest)
		return
	}
	if err := h.cash.Reverse(txID); err != nil {
		sendEngineError(w, err)
		return
	}
	h.valuations.InvalidateCache()
	w.WriteHeader(http.StatusNoContent)
}

// Valuation returns the account's holdings and cash valued in the base
// currency.
func (h *AccountHandler) Valuation(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	valuation, err := h.valuations.ForAccount(id)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, valuation)
}
