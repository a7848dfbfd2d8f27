// Package notify bridges the relay to the out-of-band notification channel.
// The boundary is deliberately narrow: one fire-and-forget operation, so the
// queue and the delivery channel behind it stay fully swappable.
package notify

import (
	"context"
	"encoding/json"

	"github.com/D-Abramoc/chatrelay/internal/logging"
	"github.com/D-Abramoc/chatrelay/internal/server/models"
	"github.com/google/uuid"
)

// Job is the payload enqueued for the notifier worker. ChatID is the
// recipient's external contact id, already resolved on the server side.
type Job struct {
	ID     string `json:"id"`
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// UserFinder resolves a user id to its stored account, including the
// external contact id.
type UserFinder interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// publisher is the subset of *nats.Conn used by the dispatcher.
type publisher interface {
	Publish(subject string, data []byte) error
}

// QueueDispatcher publishes notification jobs to a queue subject.
// At-most-once, best-effort: every failure is logged and swallowed, nothing
// propagates back into the relay path or blocks a sender.
type QueueDispatcher struct {
	pub     publisher
	subject string
	users   UserFinder
	logger  logging.Logger
}

func NewQueueDispatcher(pub publisher, subject string, users UserFinder, logger logging.Logger) *QueueDispatcher {
	return &QueueDispatcher{
		pub:     pub,
		subject: subject,
		users:   users,
		logger:  logger.With("module", "dispatcher"),
	}
}

// Notify enqueues one job for userID. Users without an external contact id
// are silently skipped; that is policy, not an error.
func (d *QueueDispatcher) Notify(ctx context.Context, userID int64, text string) {
	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		d.logger.Debug(ctx, "notification dropped: user lookup failed", "user_id", userID, "error", err)
		return
	}
	if !user.TelegramID.Valid {
		d.logger.Debug(ctx, "notification dropped: user has no contact id", "user_id", userID)
		return
	}

	job := Job{ID: uuid.NewString(), ChatID: user.TelegramID.Int64, Text: text}
	data, err := json.Marshal(job)
	if err != nil {
		d.logger.Error(ctx, "notification job marshal failed", "user_id", userID, "error", err)
		return
	}

	if err := d.pub.Publish(d.subject, data); err != nil {
		d.logger.Warn(ctx, "notification publish failed", "user_id", userID, "job_id", job.ID, "error", err)
		return
	}
	d.logger.Debug(ctx, "notification enqueued", "user_id", userID, "job_id", job.ID)
}

// NoopDispatcher drops every notification. Used when no queue is configured.
type NoopDispatcher struct {
	logger logging.Logger
}

func NewNoopDispatcher(logger logging.Logger) *NoopDispatcher {
	return &NoopDispatcher{logger: logger.With("module", "dispatcher")}
}

func (d *NoopDispatcher) Notify(ctx context.Context, userID int64, text string) {
	d.logger.Debug(ctx, "notification dropped: dispatcher disabled", "user_id", userID)
}
