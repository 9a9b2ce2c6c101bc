package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/zemedica/feereference/backend/internal/domain/entities"
	"github.com/zemedica/feereference/backend/internal/domain/providers"
	apperrors "github.com/zemedica/feereference/backend/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError translates any error into the JSON error shape, hiding
// internal messages behind a generic 500
func respondWithAppError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := appErr.HTTPStatus()
	if status == http.StatusInternalServerError {
		log.Error().Err(appErr).Msg("request failed")
		respondWithError(w, status, "internal server error")
		return
	}

	body := map[string]interface{}{"error": appErr.Message}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	respondWithJSON(w, status, body)
}

// publishChange emits a reference change event. Failures are logged, not
// returned: the write already committed and the cache falls back to TTL
// expiry.
func publishChange(ctx context.Context, bus providers.EventBus, eventType entities.ReferenceEventType, resource, recordID string) {
	if bus == nil {
		return
	}
	event := &entities.ReferenceEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Resource:  resource,
		RecordID:  recordID,
		Timestamp: time.Now(),
	}
	if err := bus.Publish(ctx, providers.ReferenceChangesChannel, event); err != nil {
		log.Warn().Err(err).Str("resource", resource).Str("record_id", recordID).
			Msg("failed to publish reference change event")
	}
}

func parseLimitOffset(r *http.Request, defaultLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
