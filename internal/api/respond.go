package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"grouporder/internal/auth"
	"grouporder/internal/backend"
	"grouporder/internal/service"
	"grouporder/internal/validate"
)

// errorResponse is the wire shape of every error the API returns.
type errorResponse struct {
	Error string `json:"error"`
	// Codes carries the full out-of-stock list when the error is an
	// availability failure.
	Codes []string `json:"codes,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps the service error taxonomy onto HTTP statuses. Unknown
// backend outcomes map to 504 so clients can tell "safe to fix and retry"
// (502) apart from "retry with the same submission".
func writeError(w http.ResponseWriter, err error) {
	var (
		invalidStatus *service.InvalidStatusError
		notModifiable *validate.NotModifiableError
		outOfStock    *validate.OutOfStockError
		rejected      *backend.RejectedError
		unknown       *backend.UnknownOutcomeError
	)

	switch {
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &invalidStatus), errors.As(err, &notModifiable):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &outOfStock):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Codes: outOfStock.Codes})
	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrNothingToSubmit),
		errors.Is(err, service.ErrInvalidWindow),
		errors.Is(err, auth.ErrWeakPassword):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrEmailExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &rejected):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	case errors.As(err, &unknown):
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: err.Error()})
	default:
		slog.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// decodeBody parses the JSON request body into dst; a malformed body is a 400
// handled right here.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
