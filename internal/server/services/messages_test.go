package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/D-Abramoc/chatrelay/internal/server/models"
	"github.com/D-Abramoc/chatrelay/internal/server/repositories/repomanager"
)

func newMessageService(t *testing.T) (*MessageService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewMessageService(db, repomanager.NewPostgresRepositoryManager()), mock
}

func TestMessageService_Save_OK(t *testing.T) {
	s, mock := newMessageService(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+messages\s+\(sender_id,\s*recipient_id,\s*content\)`).
		WithArgs(int64(1), int64(2), "hi").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(10), time.Now()))

	msg := &models.Message{SenderID: 1, RecipientID: 2, Content: "hi"}
	if err := s.Save(context.Background(), msg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if msg.ID != 10 {
		t.Errorf("msg.ID = %d, want 10", msg.ID)
	}
}

func TestMessageService_Save_DBError(t *testing.T) {
	s, mock := newMessageService(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+messages`).
		WithArgs(int64(1), int64(2), "hi").
		WillReturnError(errors.New("connection lost"))

	msg := &models.Message{SenderID: 1, RecipientID: 2, Content: "hi"}
	if err := s.Save(context.Background(), msg); err == nil {
		t.Fatal("expected error")
	}
}

func TestMessageService_History_OK(t *testing.T) {
	s, mock := newMessageService(t)

	now := time.Now()
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*sender_id,\s*recipient_id,\s*content,\s*created_at\s+FROM\s+messages`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sender_id", "recipient_id", "content", "created_at"}).
			AddRow(int64(1), int64(1), int64(2), "hi", now.Add(-time.Minute)).
			AddRow(int64(2), int64(2), int64(1), "hello", now))

	history, err := s.History(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("len = %d, want 2", len(history))
	}
	if history[0].Content != "hi" || history[1].Content != "hello" {
		t.Errorf("history = %+v", history)
	}
}

func TestMessageService_History_EmptyIsNotNil(t *testing.T) {
	s, mock := newMessageService(t)

	mock.ExpectQuery(`(?s)^SELECT\s+`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sender_id", "recipient_id", "content", "created_at"}))

	history, err := s.History(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if history == nil {
		t.Fatal("history is nil, want empty slice")
	}
	if len(history) != 0 {
		t.Errorf("len = %d, want 0", len(history))
	}
}
