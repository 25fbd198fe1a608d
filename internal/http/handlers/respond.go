package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/notiteams/activity-api/internal/relay"
	"github.com/notiteams/activity-api/internal/teams"
	"github.com/notiteams/activity-api/pkg/logging"
)

// timestampLayout is the textual shape callers receive: RFC 3339 with a
// space instead of the T and microsecond fractions, e.g.
// "2024-11-14 07:20:31.320543+00:00". Part of the API contract.
const timestampLayout = "2006-01-02 15:04:05.000000-07:00"

// FormatTimestamp renders a timestamp in the caller-facing layout.
func FormatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(`{"detail":"internal error"}`)
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

// writeRelayError maps core errors onto the HTTP surface. Every kind
// stays programmatically distinguishable by status and detail shape.
func writeRelayError(w http.ResponseWriter, logger *logging.Logger, err error) {
	var (
		apiErr    *teams.APIError
		adErr     *relay.AlreadyDeletedError
		trErr     *relay.TransportError
		ledgerErr *relay.LedgerWriteError
	)
	switch {
	case errors.Is(err, relay.ErrInvalidToken):
		writeDetail(w, http.StatusBadRequest, "invalid conversation_token")
	case errors.Is(err, relay.ErrInvalidMessage):
		writeDetail(w, http.StatusBadRequest, "invalid message_id")
	case errors.Is(err, relay.ErrCannotUpdateDeleted):
		writeDetail(w, http.StatusBadRequest, "message deleted, can't be updated")
	case errors.As(err, &adErr):
		writeJSON(w, http.StatusGone, map[string]any{
			"detail":     "message_id already deleted",
			"deleted_at": FormatTimestamp(adErr.DeletedAt),
		})
	case errors.Is(err, relay.ErrMalformedPayload):
		writeDetail(w, http.StatusBadRequest, malformedDetail(err))
	case errors.As(err, &apiErr):
		// Surface the remote error body verbatim for diagnosis. Non-JSON
		// bodies (proxy HTML, plain text) are passed through as a string.
		var response any = string(apiErr.Body)
		if json.Valid(apiErr.Body) {
			response = json.RawMessage(apiErr.Body)
		}
		writeDetail(w, http.StatusBadRequest, map[string]any{
			"response": response,
			"message":  apiErr.Message,
		})
	case errors.As(err, &trErr):
		logger.Error("messaging endpoint unavailable", "error", err)
		writeDetail(w, http.StatusBadGateway, "messaging endpoint unavailable")
	case errors.As(err, &ledgerErr):
		logger.Error("ledger write failed after dispatch", "error", err, "activity_id", ledgerErr.ActivityID)
		writeDetail(w, http.StatusInternalServerError, "message dispatched but not recorded")
	default:
		logger.Error("request failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal error")
	}
}

func malformedDetail(err error) string {
	detail := strings.TrimPrefix(err.Error(), relay.ErrMalformedPayload.Error()+": ")
	if detail == "" {
		return "malformed payload"
	}
	return detail
}
