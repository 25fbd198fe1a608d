// Package relay orchestrates the message lifecycle: resolve a
// conversation token, build the activity, dispatch it through the
// connector, and keep the ledger in step. Per message the states are
// absent -> active -> deleted; deleted is terminal.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/notiteams/activity-api/internal/cards"
	"github.com/notiteams/activity-api/internal/ledger"
	"github.com/notiteams/activity-api/internal/observability/metrics"
	"github.com/notiteams/activity-api/internal/registry"
	"github.com/notiteams/activity-api/internal/teams"
	"github.com/notiteams/activity-api/pkg/logging"
)

// Registry resolves conversation tokens to bindings.
type Registry interface {
	Resolve(ctx context.Context, token uuid.UUID) (*registry.Binding, error)
}

// Ledger records dispatched messages and their lifecycle timestamps.
type Ledger interface {
	Record(ctx context.Context, tokenID, referenceID int64, activityID string) (uuid.UUID, time.Time, error)
	LookupForMutation(ctx context.Context, messageID uuid.UUID) (*ledger.MutationRow, error)
	MarkUpdated(ctx context.Context, messageID uuid.UUID) (time.Time, error)
	MarkDeleted(ctx context.Context, messageID uuid.UUID) (time.Time, error)
}

// Transport sends, updates and retracts activities on the remote side.
type Transport interface {
	SendToConversation(ctx context.Context, conversationID string, activity cards.Activity) (string, error)
	UpdateActivity(ctx context.Context, conversationID, activityID string, activity cards.Activity) (string, error)
	DeleteActivity(ctx context.Context, conversationID, activityID string) error
}

// Service is the lifecycle manager. All collaborators are injected so
// each can be faked in tests.
type Service struct {
	registry  Registry
	ledger    Ledger
	transport Transport
	metrics   *metrics.RelayMetrics
	logger    *logging.Logger
}

// NewService wires the lifecycle manager.
func NewService(reg Registry, led Ledger, transport Transport, m *metrics.RelayMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		registry:  reg,
		ledger:    led,
		transport: transport,
		metrics:   m,
		logger:    logger,
	}
}

// SendResult identifies a freshly recorded message.
type SendResult struct {
	MessageID uuid.UUID
	CreatedAt time.Time
}

// UpdateResult carries the refreshed update timestamp.
type UpdateResult struct {
	MessageID uuid.UUID
	UpdatedAt time.Time
}

// DeleteResult carries the tombstone timestamp.
type DeleteResult struct {
	MessageID uuid.UUID
	DeletedAt time.Time
}

// Send resolves the token, dispatches the built activity and records the
// assigned activity id. The ledger row is written only after the
// connector confirmed the send, with exactly the id it returned.
func (s *Service) Send(ctx context.Context, token uuid.UUID, payload Payload) (*SendResult, error) {
	if err := payload.Validate(); err != nil {
		s.metrics.ObserveOperation("send", "malformed")
		return nil, err
	}

	binding, err := s.registry.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, registry.ErrTokenNotFound) {
			s.metrics.ObserveOperation("send", "invalid_token")
			return nil, ErrInvalidToken
		}
		s.metrics.ObserveOperation("send", "storage_error")
		return nil, fmt.Errorf("relay: resolve token: %w", err)
	}

	activityID, err := s.transport.SendToConversation(ctx, binding.ConversationID, payload.BuildActivity())
	if err != nil {
		return nil, s.transportFailure("send", err)
	}

	messageID, createdAt, err := s.ledger.Record(ctx, binding.TokenID, binding.ReferenceID, activityID)
	if err != nil {
		s.logger.Error("ledger write failed after dispatch",
			"operation", "send",
			"activity_id", activityID,
			"conversation_id", binding.ConversationID,
			"error", err,
		)
		s.metrics.ObserveLedgerWriteFailure()
		s.metrics.ObserveOperation("send", "ledger_write_failed")
		return nil, &LedgerWriteError{Operation: "send", ActivityID: activityID, Err: err}
	}

	s.logger.Info("message dispatched",
		"message_id", messageID,
		"conversation_id", binding.ConversationID,
	)
	s.metrics.ObserveOperation("send", "ok")
	return &SendResult{MessageID: messageID, CreatedAt: createdAt}, nil
}

// Update rebuilds the message content and replaces the remote activity,
// always against the activity id recorded at send time. Tombstoned
// messages are rejected before any connector call.
func (s *Service) Update(ctx context.Context, messageID uuid.UUID, payload Payload) (*UpdateResult, error) {
	if err := payload.Validate(); err != nil {
		s.metrics.ObserveOperation("update", "malformed")
		return nil, err
	}

	row, err := s.lookup(ctx, "update", messageID)
	if err != nil {
		return nil, err
	}
	if row.DeletedAt != nil {
		s.metrics.ObserveOperation("update", "deleted")
		return nil, ErrCannotUpdateDeleted
	}

	if _, err := s.transport.UpdateActivity(ctx, row.ConversationID, row.ActivityID, payload.BuildActivity()); err != nil {
		return nil, s.transportFailure("update", err)
	}

	updatedAt, err := s.ledger.MarkUpdated(ctx, messageID)
	if err != nil {
		s.logger.Error("ledger write failed after dispatch",
			"operation", "update",
			"message_id", messageID,
			"activity_id", row.ActivityID,
			"error", err,
		)
		s.metrics.ObserveLedgerWriteFailure()
		s.metrics.ObserveOperation("update", "ledger_write_failed")
		return nil, &LedgerWriteError{Operation: "update", ActivityID: row.ActivityID, Err: err}
	}

	s.metrics.ObserveOperation("update", "ok")
	return &UpdateResult{MessageID: messageID, UpdatedAt: updatedAt}, nil
}

// Delete retracts the remote activity and stamps the tombstone. A second
// delete fails with AlreadyDeletedError without touching the connector.
func (s *Service) Delete(ctx context.Context, messageID uuid.UUID) (*DeleteResult, error) {
	row, err := s.lookup(ctx, "delete", messageID)
	if err != nil {
		return nil, err
	}
	if row.DeletedAt != nil {
		s.metrics.ObserveOperation("delete", "already_deleted")
		return nil, &AlreadyDeletedError{DeletedAt: *row.DeletedAt}
	}

	if err := s.transport.DeleteActivity(ctx, row.ConversationID, row.ActivityID); err != nil {
		return nil, s.transportFailure("delete", err)
	}

	deletedAt, err := s.ledger.MarkDeleted(ctx, messageID)
	if err != nil {
		s.logger.Error("ledger write failed after dispatch",
			"operation", "delete",
			"message_id", messageID,
			"activity_id", row.ActivityID,
			"error", err,
		)
		s.metrics.ObserveLedgerWriteFailure()
		s.metrics.ObserveOperation("delete", "ledger_write_failed")
		return nil, &LedgerWriteError{Operation: "delete", ActivityID: row.ActivityID, Err: err}
	}

	s.metrics.ObserveOperation("delete", "ok")
	return &DeleteResult{MessageID: messageID, DeletedAt: deletedAt}, nil
}

func (s *Service) lookup(ctx context.Context, operation string, messageID uuid.UUID) (*ledger.MutationRow, error) {
	row, err := s.ledger.LookupForMutation(ctx, messageID)
	if err != nil {
		if errors.Is(err, ledger.ErrMessageNotFound) {
			s.metrics.ObserveOperation(operation, "invalid_message")
			return nil, ErrInvalidMessage
		}
		s.metrics.ObserveOperation(operation, "storage_error")
		return nil, fmt.Errorf("relay: lookup message: %w", err)
	}
	return row, nil
}

// transportFailure classifies a connector failure: a remote rejection is
// passed through with its body intact, anything else is connectivity.
func (s *Service) transportFailure(operation string, err error) error {
	var apiErr *teams.APIError
	if errors.As(err, &apiErr) {
		s.metrics.ObserveOperation(operation, "rejected")
		return fmt.Errorf("relay: dispatch rejected: %w", err)
	}
	s.metrics.ObserveOperation(operation, "unavailable")
	return &TransportError{Err: err}
}
