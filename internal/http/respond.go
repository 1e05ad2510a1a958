package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1MB

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// decodeJSON reads a bounded JSON body into dst and reports a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid JSON body",
			Code:    "invalid_request",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// handleServiceError converts service errors to HTTP status codes.
func handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrUnpricedItem),
		errors.Is(err, domain.ErrInvalidQuantity):
		httpStatus = http.StatusBadRequest
		code = "invalid_argument"
	case errors.Is(err, service.ErrEmptyCart):
		httpStatus = http.StatusBadRequest
		code = "empty_cart"
	case errors.Is(err, service.ErrCartNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrNoProducts),
		errors.Is(err, service.ErrNoProductsInRange),
		errors.Is(err, service.ErrNoOrders),
		errors.Is(err, service.ErrNoOrdersForUser):
		httpStatus = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, service.ErrDuplicateProduct):
		httpStatus = http.StatusConflict
		code = "already_exists"
	case errors.Is(err, service.ErrCartConflict):
		httpStatus = http.StatusConflict
		code = "cart_conflict"
	case errors.Is(err, service.ErrIllegalTransition):
		httpStatus = http.StatusConflict
		code = "illegal_transition"
	case errors.Is(err, context.DeadlineExceeded):
		slog.WarnContext(ctx, "request timed out", "error", err)
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
		return
	default:
		slog.ErrorContext(ctx, "request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, httpStatus, code, err.Error())
}

// flexFloat accepts a JSON number or a string holding one.
type flexFloat struct {
	Value float64
	Set   bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("%q is not a number", s)
		}
		f.Value, f.Set = v, true
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("%s is not a number", b)
	}
	f.Value, f.Set = v, true
	return nil
}

func (f flexFloat) ptr() *float64 {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

// integer reports the value as an int when it is a whole number.
func (f flexFloat) integer() (int, bool) {
	if !f.Set || math.IsNaN(f.Value) || math.IsInf(f.Value, 0) || f.Value != math.Trunc(f.Value) {
		return 0, false
	}
	if f.Value > math.MaxInt32 || f.Value < math.MinInt32 {
		return 0, false
	}
	return int(f.Value), true
}
