// Package registry resolves opaque conversation tokens to the Teams
// conversation they are bound to. The relay only reads bindings;
// populating them is an operator concern.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrTokenNotFound means no binding exists for the token.
var ErrTokenNotFound = errors.New("registry: conversation token not found")

// Binding links a conversation token to one Teams conversation.
type Binding struct {
	TokenID        int64  `json:"token_id"`
	ReferenceID    int64  `json:"reference_id"`
	ConversationID string `json:"conversation_id"`
}

// PgxPool is the subset of pgxpool.Pool the store needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads token bindings from Postgres.
type Store struct {
	pool PgxPool
}

// NewStore initializes a registry backed by pgxpool.
func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("registry: pgx pool required")
	}
	return &Store{pool: pool}
}

// Resolve is a point lookup from token to binding.
func (s *Store) Resolve(ctx context.Context, token uuid.UUID) (*Binding, error) {
	query := `
		SELECT ct.conversation_token_id,
		       cr.conversation_reference_id,
		       cr.conversation_teams_id
		FROM conversation_token ct
		JOIN conversation_reference cr USING (conversation_reference_id)
		WHERE ct.conversation_token = $1
	`
	var b Binding
	if err := s.pool.QueryRow(ctx, query, token).Scan(
		&b.TokenID,
		&b.ReferenceID,
		&b.ConversationID,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("registry: resolve token: %w", err)
	}
	return &b, nil
}
