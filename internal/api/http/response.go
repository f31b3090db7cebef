// Package http exposes the reservation services over a JSON REST API.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
)

type errorBody struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
	Details map[string]any   `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// listResponse wraps a page of results with the unpaged count.
type listResponse[T any] struct {
	Items []T   `json:"items"`
	Total int32 `json:"total"`
}

const kindInternal domain.ErrorKind = "INTERNAL"

// statusForKind maps business rejections to HTTP status codes.
func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindInsufficientStock:
		return http.StatusBadRequest
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindCustomerNotFound, domain.KindEquipmentNotFound, domain.KindUnitNotFound, domain.KindBookingNotFound:
		return http.StatusNotFound
	case domain.KindCapacityExceeded, domain.KindInvalidTransition, domain.KindEquipmentInUse, domain.KindUnitUnavailable:
		return http.StatusConflict
	case domain.KindStockUnderflow, domain.KindCustomerInactive:
		return http.StatusUnprocessableEntity
	case domain.KindPlanLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// writeError renders err. Errors that are not *domain.Error are logged and hidden behind a 500.
func writeError(w http.ResponseWriter, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		writeJSON(w, statusForKind(de.Kind), errorResponse{Error: errorBody{
			Kind:    de.Kind,
			Message: de.Message,
			Details: de.Details,
		}})
		return
	}

	logger.Error("Request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errorBody{
		Kind:    kindInternal,
		Message: "internal server error",
	}})
}

func writeStatusError(w http.ResponseWriter, status int, kind domain.ErrorKind, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Kind: kind, Message: message}})
}

// decodeJSON reads the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.NewValidationError("invalid request body: %v", err)
	}
	return nil
}
