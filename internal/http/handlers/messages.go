// Package handlers maps the HTTP surface onto the relay core: thin
// request decoding and response shaping, no business rules.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/notiteams/activity-api/internal/relay"
	"github.com/notiteams/activity-api/pkg/logging"
)

// RelayService is the slice of the lifecycle manager the handlers need.
type RelayService interface {
	Send(ctx context.Context, token uuid.UUID, payload relay.Payload) (*relay.SendResult, error)
	Update(ctx context.Context, messageID uuid.UUID, payload relay.Payload) (*relay.UpdateResult, error)
	Delete(ctx context.Context, messageID uuid.UUID) (*relay.DeleteResult, error)
}

// MessagesHandler serves the /api/v1/message endpoints.
type MessagesHandler struct {
	relay  RelayService
	logger *logging.Logger
}

// NewMessagesHandler creates the message endpoints handler.
func NewMessagesHandler(relay RelayService, logger *logging.Logger) *MessagesHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &MessagesHandler{relay: relay, logger: logger}
}

type sendRequest struct {
	ConversationToken uuid.UUID          `json:"conversation_token"`
	Message           *relay.TextMessage `json:"message"`
	Text              *string            `json:"text"`
	Card              map[string]any     `json:"card"`
	Summary           string             `json:"summary"`
}

type updateRequest struct {
	MessageID uuid.UUID          `json:"message_id"`
	Message   *relay.TextMessage `json:"message"`
	Text      *string            `json:"text"`
	Card      map[string]any     `json:"card"`
	Summary   string             `json:"summary"`
}

type deleteRequest struct {
	MessageID uuid.UUID `json:"message_id"`
}

// SendAny handles POST /api/v1/message: exactly one of message, text, or
// card must be filled; summary is used only for card payloads.
func (h *MessagesHandler) SendAny(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.send(w, r, req.ConversationToken, relay.Payload{
		Text:    req.Text,
		Message: req.Message,
		Card:    req.Card,
		Summary: req.Summary,
	})
}

// SendText handles POST /api/v1/message/text.
func (h *MessagesHandler) SendText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationToken uuid.UUID `json:"conversation_token"`
		Text              *string   `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.send(w, r, req.ConversationToken, relay.Payload{Text: req.Text})
}

// SendSimple handles POST /api/v1/message/simple.
func (h *MessagesHandler) SendSimple(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationToken uuid.UUID          `json:"conversation_token"`
		Message           *relay.TextMessage `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.send(w, r, req.ConversationToken, relay.Payload{Message: req.Message})
}

// SendCard handles POST /api/v1/message/card. The summary is used as the
// notification hint.
func (h *MessagesHandler) SendCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationToken uuid.UUID      `json:"conversation_token"`
		Card              map[string]any `json:"card"`
		Summary           string         `json:"summary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.send(w, r, req.ConversationToken, relay.Payload{Card: req.Card, Summary: req.Summary})
}

func (h *MessagesHandler) send(w http.ResponseWriter, r *http.Request, token uuid.UUID, payload relay.Payload) {
	if token == uuid.Nil {
		writeDetail(w, http.StatusBadRequest, "conversation_token is required")
		return
	}
	res, err := h.relay.Send(r.Context(), token, payload)
	if err != nil {
		writeRelayError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message_id": res.MessageID.String(),
	})
}

// Update handles PATCH /api/v1/message. The summary field is accepted
// for payload coherence but only used for card payloads.
func (h *MessagesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MessageID == uuid.Nil {
		writeDetail(w, http.StatusBadRequest, "message_id is required")
		return
	}
	res, err := h.relay.Update(r.Context(), req.MessageID, relay.Payload{
		Text:    req.Text,
		Message: req.Message,
		Card:    req.Card,
		Summary: req.Summary,
	})
	if err != nil {
		writeRelayError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message_id": res.MessageID.String(),
		"updated_at": FormatTimestamp(res.UpdatedAt),
	})
}

// Delete handles DELETE /api/v1/message. Repeat deletes get 410 with the
// original tombstone timestamp.
func (h *MessagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MessageID == uuid.Nil {
		writeDetail(w, http.StatusBadRequest, "message_id is required")
		return
	}
	res, err := h.relay.Delete(r.Context(), req.MessageID)
	if err != nil {
		writeRelayError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message_id": res.MessageID.String(),
		"deleted_at": FormatTimestamp(res.DeletedAt),
	})
}
