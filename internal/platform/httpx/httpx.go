// Package httpx renders JSON responses and the error envelope used by every
// handler.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/logging"
)

// StatusFor maps an error kind onto an HTTP status code.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInsufficientStock, apperr.KindInvalidTransition, apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes body as JSON with the given status.
func Respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError renders err as the error envelope. Server-side failures are
// logged with their cause; the caller only receives the public message.
func WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)

	if status >= http.StatusInternalServerError {
		logging.FromContext(ctx, nil).Error("request failed", zap.String("kind", string(kind)), zap.Error(err))
	}

	payload := map[string]any{
		"success": false,
		"error":   string(kind),
		"message": apperr.PublicMessage(err),
	}
	if id := middleware.GetReqID(ctx); id != "" {
		payload["request_id"] = id
	}
	if details := apperr.PublicDetails(err); len(details) > 0 {
		payload["details"] = details
	}
	Respond(w, status, payload)
}

// DecodeJSON decodes the request body into dst, reporting malformed bodies as
// invalid input.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.InvalidInput("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.InvalidInput("malformed JSON body")
	}
	return nil
}
