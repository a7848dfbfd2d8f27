package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/D-Abramoc/chatrelay/internal/logging"
	"github.com/D-Abramoc/chatrelay/internal/notifier/config"
)

type App struct {
	config *config.Config
	logger logging.Logger
	worker *Worker
}

func NewApp() *App {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	cfg := config.LoadConfig()

	sender := NewTelegramSender(cfg.TelegramAPIEndpoint, cfg.TelegramToken)
	worker := NewWorker(sender, logger)

	return &App{config: cfg, logger: logger, worker: worker}
}

// Run subscribes to the notification subject and processes jobs until an OS
// signal arrives.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()

	queue, err := nats.Connect(app.config.QueueURL)
	if err != nil {
		return fmt.Errorf("queue connect error: %w", err)
	}
	defer queue.Close()

	sub, err := queue.Subscribe(app.config.Subject, func(m *nats.Msg) {
		app.worker.Handle(ctx, m.Data)
	})
	if err != nil {
		return fmt.Errorf("queue subscribe error: %w", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	app.logger.Info(ctx, "Notifier worker started", "subject", app.config.Subject)

	<-ctx.Done()
	app.logger.Info(ctx, "Stopping notifier worker...")
	return nil
}
