package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/username/folioledger/backend/src/apperrors"
	"github.com/username/folioledger/backend/src/logger"
)

func sendJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.L.Error("Error encoding JSON response", "error", err)
		}
	}
}

func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// sendEngineError translates the engine's error taxonomy into transport
// statuses. The engine itself knows nothing about HTTP.
func sendEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindConflict:
		status = http.StatusConflict
	case apperrors.KindInsufficientFunds, apperrors.KindInsufficientQuantity:
		status = http.StatusUnprocessableEntity
	case apperrors.KindIntegrity:
		logger.L.Error("Integrity error surfaced to caller", "error", err)
		status = http.StatusInternalServerError
	default:
		logger.L.Error("Unclassified error surfaced to caller", "error", err)
	}
	sendJSONError(w, apperrors.Message(err), status)
}

// urlID extracts a numeric chi URL parameter.
func urlID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
