package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/D-Abramoc/chatrelay/internal/common"
	"github.com/D-Abramoc/chatrelay/internal/logging"
	"github.com/D-Abramoc/chatrelay/internal/server/models"
)

type fakePublisher struct {
	published [][]byte
	subjects  []string
	err       error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.published = append(p.published, data)
	return nil
}

type fakeUsers struct {
	users map[int64]*models.User
	err   error
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func userWithContact(id, chatID int64) *models.User {
	return &models.User{ID: id, TelegramID: sql.NullInt64{Int64: chatID, Valid: true}}
}

func TestNotify_PublishesJob(t *testing.T) {
	pub := &fakePublisher{}
	users := &fakeUsers{users: map[int64]*models.User{3: userWithContact(3, 900123)}}
	d := NewQueueDispatcher(pub, "notifications.send", users, testLogger())

	d.Notify(context.Background(), 3, "You have a message")

	if len(pub.published) != 1 {
		t.Fatalf("expected 1 published job, got %d", len(pub.published))
	}
	if pub.subjects[0] != "notifications.send" {
		t.Fatalf("unexpected subject: %q", pub.subjects[0])
	}

	var job Job
	if err := json.Unmarshal(pub.published[0], &job); err != nil {
		t.Fatalf("job unmarshal error: %v", err)
	}
	if job.ChatID != 900123 || job.Text != "You have a message" || job.ID == "" {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestNotify_UnknownUserDropped(t *testing.T) {
	pub := &fakePublisher{}
	d := NewQueueDispatcher(pub, "notifications.send", &fakeUsers{users: map[int64]*models.User{}}, testLogger())

	d.Notify(context.Background(), 404, "hi")

	if len(pub.published) != 0 {
		t.Fatalf("expected no publish for unknown user")
	}
}

func TestNotify_NoContactIDDropped(t *testing.T) {
	pub := &fakePublisher{}
	users := &fakeUsers{users: map[int64]*models.User{5: {ID: 5}}}
	d := NewQueueDispatcher(pub, "notifications.send", users, testLogger())

	d.Notify(context.Background(), 5, "hi")

	if len(pub.published) != 0 {
		t.Fatalf("expected no publish for user without contact id")
	}
}

func TestNotify_PublishErrorSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("queue unreachable")}
	users := &fakeUsers{users: map[int64]*models.User{3: userWithContact(3, 1)}}
	d := NewQueueDispatcher(pub, "notifications.send", users, testLogger())

	// Must not panic or propagate anything.
	d.Notify(context.Background(), 3, "hi")
}

func TestNoopDispatcher_DoesNothing(t *testing.T) {
	d := NewNoopDispatcher(testLogger())
	d.Notify(context.Background(), 1, "hi")
}
