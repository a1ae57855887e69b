package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/folioledger/backend/src/models"
	"github.com/username/folioledger/backend/src/services"
	"github.com/username/folioledger/backend/src/store"
)

type UserHandler struct {
	users      *store.UserStore
	valuations *services.ValuationService
}

func NewUserHandler(users *store.UserStore, valuations *services.ValuationService) *UserHandler {
	return &UserHandler{users: users, valuations: valuations}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	user, err := h.users.Create(req.Name)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid user id", http.StatusBadRequest)
		return
	}
	user, err := h.users.GetByID(id)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, user)
}

// Valuation returns the user's accounts valued in the base currency.
func (h *UserHandler) Valuation(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid user id", http.StatusBadRequest)
		return
	}
	if _, err := h.users.GetByID(id); err != nil {
		sendEngineError(w, err)
		return
	}
	valuation, err := h.valuations.ForUser(id)
	if err != nil {
		sendEngineError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, valuation)
}
