package messages

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/D-Abramoc/chatrelay/internal/server/models"
	"github.com/DATA-DOG/go-sqlmock"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+messages\s*\(sender_id,\s*recipient_id,\s*content\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*created_at\s*$`

	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(5), time.Now())
	mock.ExpectQuery(q).
		WithArgs(int64(1), int64(2), "hi").
		WillReturnRows(rows)

	msg := &models.Message{SenderID: 1, RecipientID: 2, Content: "hi"}
	got, err := repo.Create(context.Background(), msg)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 5 || got.CreatedAt.IsZero() {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+messages`).
		WithArgs(int64(1), int64(2), "hi").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Message{SenderID: 1, RecipientID: 2, Content: "hi"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetBetweenUsers_BothDirections(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*sender_id,\s*recipient_id,\s*content,\s*created_at\s+FROM\s+messages`

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "sender_id", "recipient_id", "content", "created_at"}).
		AddRow(int64(1), int64(1), int64(2), "hi", now.Add(-time.Minute)).
		AddRow(int64(2), int64(2), int64(1), "hello", now)
	mock.ExpectQuery(q).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(rows)

	got, err := repo.GetBetweenUsers(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("GetBetweenUsers error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].Content != "hi" || got[1].SenderID != 2 {
		t.Fatalf("unexpected messages: %+v %+v", got[0], got[1])
	}
}

func TestGetBetweenUsers_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "sender_id", "recipient_id", "content", "created_at"})
	mock.ExpectQuery(`(?s)^SELECT\s+id,`).
		WithArgs(int64(1), int64(3)).
		WillReturnRows(rows)

	got, err := repo.GetBetweenUsers(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("GetBetweenUsers error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no messages, got %d", len(got))
	}
}
