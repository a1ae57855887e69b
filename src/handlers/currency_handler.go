package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/folioledger/backend/src/models"
	"github.com/username/folioledger/backend/src/services"
	"github.com/username/folioledger/backend/src/store"
)

type CurrencyHandler struct {
	currencies *store.CurrencyStore
	rates      *store.RateStore
	valuations *services.ValuationService
}

func NewCurrencyHandler(currencies *store.CurrencyStore, rates *store.RateStore, valuations *services.ValuationService) *CurrencyHandler {
	return &CurrencyHandler{currencies: currencies, rates: rates, valuations: valuations}
}

func (h *CurrencyHandler) List(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.currencies.List()
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, currencies)
}

func (h *CurrencyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	currency, err := h.currencies.Create(req)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, currency)
}

func (h *CurrencyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid currency id", http.StatusBadRequest)
		return
	}
	var req models.UpdateCurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	currency, err := h.currencies.Update(id, req)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, currency)
}

func (h *CurrencyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid currency id", http.StatusBadRequest)
		return
	}
	if err := h.currencies.Delete(id); err != nil {
		sendEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpsertRate records an exchange rate observation; the external rate
// scraper and manual entry both come through here.
func (h *CurrencyHandler) UpsertRate(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid currency id", http.StatusBadRequest)
		return
	}
	var req models.UpsertRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.rates.Upsert(id, req); err != nil {
		sendEngineError(w, err)
		return
	}
	h.valuations.InvalidateCache()
	w.WriteHeader(http.StatusNoContent)
}

func (h *CurrencyHandler) RateHistory(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid currency id", http.StatusBadRequest)
		return
	}
	if _, err := h.currencies.GetByID(id); err != nil {
		sendEngineError(w, err)
		return
	}
	points, err := h.rates.History(id)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, points)
}

func (h *CurrencyHandler) LatestRate(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid currency id", http.StatusBadRequest)
		return
	}
	if _, err := h.currencies.GetByID(id); err != nil {
		sendEngineError(w, err)
		return
	}
	point, err := h.rates.Latest(id)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	if point == nil {
		sendJSONError(w, "No rate recorded for this currency", http.StatusNotFound)
		return
	}
	sendJSON(w, http.StatusOK, point)
}
