// Package notifier implements the worker that drains the notification queue
// and delivers messages to recipients' external chat accounts. Delivery is
// at-most-once: a job that cannot be decoded or delivered is logged and
// dropped, never retried or returned to the queue.
package notifier

import (
	"context"
	"encoding/json"

	"github.com/D-Abramoc/chatrelay/internal/logging"
	"github.com/D-Abramoc/chatrelay/internal/server/notify"
)

// Sender delivers one notification text to an external chat id.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Worker consumes notification jobs and hands them to a Sender.
type Worker struct {
	sender Sender
	logger logging.Logger
}

func NewWorker(sender Sender, logger logging.Logger) *Worker {
	return &Worker{
		sender: sender,
		logger: logger.With("module", "notifier_worker"),
	}
}

// Handle processes one raw job payload from the queue.
func (w *Worker) Handle(ctx context.Context, data []byte) {
	var job notify.Job
	if err := json.Unmarshal(data, &job); err != nil {
		w.logger.Warn(ctx, "job dropped: malformed payload", "error", err)
		return
	}

	if err := w.sender.Send(ctx, job.ChatID, job.Text); err != nil {
		w.logger.Error(ctx, "job delivery failed", "job_id", job.ID, "chat_id", job.ChatID, "error", err)
		return
	}

	w.logger.Info(ctx, "notification delivered", "job_id", job.ID, "chat_id", job.ChatID)
}
