package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/folioledger/backend/src/models"
	"github.com/username/folioledger/backend/src/services"
	"github.com/username/folioledger/backend/src/store"
)

type InvestmentHandler struct {
	investments *store.InvestmentStore
	prices      *store.PriceStore
	valuations  *services.ValuationService
}

func NewInvestmentHandler(investments *store.InvestmentStore, prices *store.PriceStore, valuations *services.ValuationService) *InvestmentHandler {
	return &InvestmentHandler{investments: investments, prices: prices, valuations: valuations}
}

func (h *InvestmentHandler) List(w http.ResponseWriter, r *http.Request) {
	investments, err := h.investments.List()
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, investments)
}

func (h *InvestmentHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.investments.ListTypes()
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, types)
}

func (h *InvestmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateInvestmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	investment, err := h.investments.Create(req)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, investment)
}

func (h *InvestmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid investment id", http.StatusBadRequest)
		return
	}
	investment, err := h.investments.GetByID(id)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, investment)
}

func (h *InvestmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid investment id", http.StatusBadRequest)
		return
	}
	var req models.CreateInvestmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	investment, err := h.investments.Update(id, req)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, investment)
}

func (h *InvestmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid investment id", http.StatusBadRequest)
		return
	}
	if err := h.investments.Delete(id); err != nil {
		sendEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpsertPrice records a price observation; the external price scraper,
// backfill and manual entry all write through this last-write-wins path.
func (h *InvestmentHandler) UpsertPrice(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid investment id", http.StatusBadRequest)
		return
	}
	var req models.UpsertPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.prices.Upsert(id, req); err != nil {
		sendEngineError(w, err)
		return
	}
	h.valuations.InvalidateCache()
	w.WriteHeader(http.StatusNoContent)
}

func (h *InvestmentHandler) PriceHistory(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid investment id", http.StatusBadRequest)
		return
	}
	if _, err := h.investments.GetByID(id); err != nil {
		sendEngineError(w, err)
		return
	}
	points, err := h.prices.History(id)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, points)
}

func (h *InvestmentHandler) LatestPrice(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid investment id", http.StatusBadRequest)
		return
	}
	if _, err := h.investments.GetByID(id); err != nil {
		sendEngineError(w, err)
		return
	}
	point, err := h.prices.Latest(id)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	if point == nil {
		sendJSONError(w, "No price recorded for this investment", http.StatusNotFound)
		return
	}
	sendJSON(w, http.StatusOK, point)
}
