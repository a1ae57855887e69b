package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/folioledger/backend/src/models"
	"github.com/username/folioledger/backend/src/processors"
	"github.com/username/folioledger/backend/src/services"
	"github.com/username/folioledger/backend/src/store"
)

type HoldingHandler struct {
	holdings   *store.HoldingStore
	movements  *processors.MovementProcessor
	valuations *services.ValuationService
}

func NewHoldingHandler(holdings *store.HoldingStore, movements *processors.MovementProcessor,
	valuations *services.ValuationService) *HoldingHandler {
	return &HoldingHandler{holdings: holdings, movements: movements, valuations: valuations}
}

func (h *HoldingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateHoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	holding, err := h.holdings.Create(req)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	h.valuations.InvalidateCache()
	sendJSON(w, http.StatusCreated, holding)
}

func (h *HoldingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid holding id", http.StatusBadRequest)
		return
	}
	holding, err := h.holdings.GetByID(id)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, holding)
}

// Update is the manual correction path, overwriting quantity and average
// cost directly. Buys and sells go through ApplyMovement.
func (h *HoldingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid holding id", http.StatusBadRequest)
		return
	}
	var req models.UpdateHoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	holding, err := h.holdings.Update(id, req)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	h.valuations.InvalidateCache()
	sendJSON(w, http.StatusOK, holding)
}

func (h *HoldingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid holding id", http.StatusBadRequest)
		return
	}
	if err := h.holdings.Delete(id); err != nil {
		sendEngineError(w, err)
		return
	}
	h.valuations.InvalidateCache()
	w.WriteHeader(http.StatusNoContent)
}

// ApplyMovement runs a buy or sell through the movement processor and
// returns the updated holding and account alongside the created movement.
func (h *HoldingHandler) ApplyMovement(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid holding id", http.StatusBadRequest)
		return
	}
	var req models.MovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.HoldingID = id
	result, err := h.movements.Apply(req)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	h.valuations.InvalidateCache()
	sendJSON(w, http.StatusCreated, result)
}

func (h *HoldingHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid holding id", http.StatusBadRequest)
		return
	}
	movements, err := h.movements.ListByHolding(id)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, movements)
}

func (h *HoldingHandler) ReverseMovement(w http.ResponseWriter, r *http.Request) {
	movementID, err := urlID(r, "movementID")
	if err != nil {
		sendJSONError(w, "Invalid movement id", http.StatusBadRequest)
		return
	}
	if err := h.movements.Reverse(movementID); err != nil {
		sendEngineError(w, err)
		return
	}
	h.valuations.InvalidateCache()
	w.WriteHeader(http.StatusNoContent)
}
