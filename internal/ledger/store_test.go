package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock, &Store{pool: mock}
}

func TestRecord(t *testing.T) {
	mock, store := newMock(t)
	messageID := uuid.New()
	createdAt := time.Now()

	mock.ExpectQuery("INSERT INTO message").
		WithArgs(int64(7), int64(3), "act-123").
		WillReturnRows(pgxmock.NewRows([]string{"message_id", "created_at"}).AddRow(messageID, createdAt))

	gotID, gotCreated, err := store.Record(context.Background(), 7, 3, "act-123")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if gotID != messageID {
		t.Fatalf("message id = %s, want %s", gotID, messageID)
	}
	if !gotCreated.Equal(createdAt) {
		t.Fatalf("created_at = %s, want %s", gotCreated, createdAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordFailure(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectQuery("INSERT INTO message").
		WithArgs(int64(1), int64(1), "act-1").
		WillReturnError(errors.New("connection reset"))

	_, _, err := store.Record(context.Background(), 1, 1, "act-1")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestLookupForMutationActive(t *testing.T) {
	mock, store := newMock(t)
	messageID := uuid.New()

	mock.ExpectQuery("SELECT cr.conversation_teams_id").
		WithArgs(messageID).
		WillReturnRows(pgxmock.NewRows([]string{"conversation_teams_id", "activity_id", "deleted_at"}).
			AddRow("19:abc@thread.tacv2", "act-123", (*time.Time)(nil)))

	row, err := store.LookupForMutation(context.Background(), messageID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if row.ConversationID != "19:abc@thread.tacv2" || row.ActivityID != "act-123" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.DeletedAt != nil {
		t.Fatal("expected live message")
	}
}

func TestLookupForMutationTombstone(t *testing.T) {
	mock, store := newMock(t)
	messageID := uuid.New()
	deletedAt := time.Now()

	mock.ExpectQuery("SELECT cr.conversation_teams_id").
		WithArgs(messageID).
		WillReturnRows(pgxmock.NewRows([]string{"conversation_teams_id", "activity_id", "deleted_at"}).
			AddRow("conv", "act-1", &deletedAt))

	row, err := store.LookupForMutation(context.Background(), messageID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if row.DeletedAt == nil || !row.DeletedAt.Equal(deletedAt) {
		t.Fatalf("expected tombstone %s, got %v", deletedAt, row.DeletedAt)
	}
}

func TestLookupForMutationNotFound(t *testing.T) {
	mock, store := newMock(t)
	messageID := uuid.New()

	mock.ExpectQuery("SELECT cr.conversation_teams_id").
		WithArgs(messageID).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.LookupForMutation(context.Background(), messageID)
	if !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestMarkUpdated(t *testing.T) {
	mock, store := newMock(t)
	messageID := uuid.New()
	updatedAt := time.Now()

	mock.ExpectQuery("UPDATE message SET updated_at").
		WithArgs(messageID).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(updatedAt))

	got, err := store.MarkUpdated(context.Background(), messageID)
	if err != nil {
		t.Fatalf("mark updated: %v", err)
	}
	if !got.Equal(updatedAt) {
		t.Fatalf("updated_at = %s, want %s", got, updatedAt)
	}
}

func TestMarkDeleted(t *testing.T) {
	mock, store := newMock(t)
	messageID := uuid.New()
	deletedAt := time.Now()

	mock.ExpectQuery("UPDATE message SET deleted_at").
		WithArgs(messageID).
		WillReturnRows(pgxmock.NewRows([]string{"deleted_at"}).AddRow(deletedAt))

	got, err := store.MarkDeleted(context.Background(), messageID)
	if err != nil {
		t.Fatalf("mark deleted: %v", err)
	}
	if !got.Equal(deletedAt) {
		t.Fatalf("deleted_at = %s, want %s", got, deletedAt)
	}
}
