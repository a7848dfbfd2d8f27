// Package server initializes and runs the chat relay server.
// It wires the database, the connection registry, the notification queue and
// the HTTP endpoint, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/nats-io/nats.go"

	"github.com/D-Abramoc/chatrelay/internal/logging"
	"github.com/D-Abramoc/chatrelay/internal/server/config"
	"github.com/D-Abramoc/chatrelay/internal/server/httpapi"
	"github.com/D-Abramoc/chatrelay/internal/server/notify"
	"github.com/D-Abramoc/chatrelay/internal/server/relay"
	"github.com/D-Abramoc/chatrelay/internal/server/repositories/repomanager"
	"github.com/D-Abramoc/chatrelay/internal/server/services"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	queue          *nats.Conn
	userService    *services.UserService
	messageService *services.MessageService
	registry       *relay.Registry
	notifier       relay.Notifier
}

func NewApp() (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	cfg := config.LoadConfig()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	us := services.NewUserService(db, m, cfg)
	ms := services.NewMessageService(db, m)
	registry := relay.NewRegistry(logger)

	// The queue is optional: a relay with no broker still serves chat, it
	// just cannot reach offline recipients out of band.
	var notifier relay.Notifier
	queue, err := nats.Connect(cfg.QueueURL)
	if err != nil {
		logger.Warn(context.Background(), "notification queue unavailable, dispatch disabled", "url", cfg.QueueURL, "error", err)
		notifier = notify.NewNoopDispatcher(logger)
	} else {
		notifier = notify.NewQueueDispatcher(queue, cfg.NotifySubject, us, logger)
	}

	return &App{
		config:         cfg,
		logger:         logger,
		db:             db,
		queue:          queue,
		userService:    us,
		messageService: ms,
		registry:       registry,
		notifier:       notifier,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewHTTPServer(app.config, app.logger, app.userService, app.messageService, app.registry, app.notifier)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if app.queue != nil {
		app.queue.Close()
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
