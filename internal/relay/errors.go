package relay

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidToken means the conversation token has no binding.
var ErrInvalidToken = errors.New("relay: invalid conversation_token")

// ErrInvalidMessage means the message id has no ledger row.
var ErrInvalidMessage = errors.New("relay: invalid message_id")

// ErrCannotUpdateDeleted means an update hit a tombstoned message.
var ErrCannotUpdateDeleted = errors.New("relay: message deleted, can't be updated")

// AlreadyDeletedError means a delete hit a message that was already
// tombstoned. It carries the original deletion time so callers can echo
// it unchanged; retrying will never succeed.
type AlreadyDeletedError struct {
	DeletedAt time.Time
}

func (e *AlreadyDeletedError) Error() string {
	return "relay: message_id already deleted"
}

// TransportError is a connectivity-class failure talking to the
// connector: the remote never answered, so the caller may retry.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("relay: messaging endpoint unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// LedgerWriteError is the known inconsistency window: the connector call
// succeeded but the ledger write did not, so the remote state and the
// local record disagree. The activity id is kept for reconciliation by
// hand.
type LedgerWriteError struct {
	Operation  string
	ActivityID string
	Err        error
}

func (e *LedgerWriteError) Error() string {
	return fmt.Sprintf("relay: ledger write failed after %s of activity %s: %v", e.Operation, e.ActivityID, e.Err)
}

func (e *LedgerWriteError) Unwrap() error { return e.Err }
