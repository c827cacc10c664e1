package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	httpdto "github.com/LavaJover/marketplace-order-service/internal/delivery/http/dto"
	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/LavaJover/marketplace-order-service/internal/usecase/lifecycle"
)

var kindStatus = map[string]int{
	"not_found": 				http.StatusNotFound,
	"duplicate_order": 			http.StatusConflict,
	"illegal_transition": 		http.StatusConflict,
	"terminal_state": 			http.StatusConflict,
	"dispute_window_expired": 	http.StatusUnprocessableEntity,
	"dispute_already_open": 	http.StatusConflict,
	"version_conflict": 		http.StatusConflict,
	"refund_failed": 			http.StatusBadGateway,
	"unauthorized": 			http.StatusForbidden,
	"invalid_payload": 			http.StatusBadRequest,
	"invalid_refund_amount": 	http.StatusUnprocessableEntity,
	"review_exists": 			http.StatusConflict,
	"case_closed": 				http.StatusConflict,
	"unknown_outcome": 			http.StatusServiceUnavailable,
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, httpdto.ErrorResponse{Error: message, Code: code})
}

// handleError maps a use case error onto its HTTP status and error body.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, lifecycle.ErrReplayMismatch) {
		slog.Error("audit replay mismatch", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "replay_mismatch", err.Error())
		return
	}

	kind := domain.ErrorKind(err)
	status, ok := kindStatus[kind]
	if !ok {
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	body := httpdto.ErrorResponse{Error: err.Error(), Code: kind}
	var te *domain.TransitionError
	if errors.As(err, &te) {
		body.CurrentStatus = te.Current.String()
		for _, a := range te.Allowed {
			body.AllowedActions = append(body.AllowedActions, a.String())
		}
	}
	respondJSON(w, status, body)
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Join(domain.ErrInvalidPayload, err)
	}
	return nil
}
