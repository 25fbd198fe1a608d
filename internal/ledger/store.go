// Package ledger is the durable record of every activity the relay has
// dispatched. Rows are append-mostly: a message is inserted once, its
// timestamps are refreshed on update, and deletion is a tombstone; the
// row itself is never removed.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrMessageNotFound means no ledger row exists for the message id.
var ErrMessageNotFound = errors.New("ledger: message not found")

// PgxPool is the subset of pgxpool.Pool the store needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists message lifecycle state in Postgres.
type Store struct {
	pool PgxPool
}

// NewStore initializes a ledger backed by pgxpool.
func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("ledger: pgx pool required")
	}
	return &Store{pool: pool}
}

// MutationRow is what update/delete need to know about a recorded message.
type MutationRow struct {
	ConversationID string
	ActivityID     string
	DeletedAt      *time.Time
}

// Record inserts the ledger row for a freshly dispatched activity. The
// insert is a single statement; it either fully applies or not at all.
func (s *Store) Record(ctx context.Context, tokenID, referenceID int64, activityID string) (uuid.UUID, time.Time, error) {
	query := `
		INSERT INTO message (conversation_token_id, conversation_reference_id, activity_id)
		VALUES ($1, $2, $3)
		RETURNING message_id, created_at
	`
	var (
		messageID uuid.UUID
		createdAt time.Time
	)
	if err := s.pool.QueryRow(ctx, query, tokenID, referenceID, activityID).Scan(&messageID, &createdAt); err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("ledger: record message: %w", err)
	}
	return messageID, createdAt, nil
}

// LookupForMutation fetches the fields needed to update or delete a
// message, including its tombstone state.
func (s *Store) LookupForMutation(ctx context.Context, messageID uuid.UUID) (*MutationRow, error) {
	query := `
		SELECT cr.conversation_teams_id,
		       m.activity_id,
		       m.deleted_at
		FROM message m
		JOIN conversation_reference cr USING (conversation_reference_id)
		WHERE m.message_id = $1
	`
	var row MutationRow
	if err := s.pool.QueryRow(ctx, query, messageID).Scan(
		&row.ConversationID,
		&row.ActivityID,
		&row.DeletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("ledger: lookup message: %w", err)
	}
	return &row, nil
}

// MarkUpdated refreshes updated_at and returns the new value.
func (s *Store) MarkUpdated(ctx context.Context, messageID uuid.UUID) (time.Time, error) {
	query := `
		UPDATE message SET updated_at = now()
		WHERE message_id = $1
		RETURNING updated_at
	`
	var updatedAt time.Time
	if err := s.pool.QueryRow(ctx, query, messageID).Scan(&updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrMessageNotFound
		}
		return time.Time{}, fmt.Errorf("ledger: mark updated: %w", err)
	}
	return updatedAt, nil
}

// MarkDeleted stamps the tombstone and returns it. Callers are expected
// to have checked deleted_at via LookupForMutation first.
func (s *Store) MarkDeleted(ctx context.Context, messageID uuid.UUID) (time.Time, error) {
	query := `
		UPDATE message SET deleted_at = now()
		WHERE message_id = $1
		RETURNING deleted_at
	`
	var deletedAt time.Time
	if err := s.pool.QueryRow(ctx, query, messageID).Scan(&deletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrMessageNotFound
		}
		return time.Time{}, fmt.Errorf("ledger: mark deleted: %w", err)
	}
	return deletedAt, nil
}
