// Package httpapi exposes the chat relay over HTTP: registration and login,
// message history, and the WebSocket connection entry point.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/D-Abramoc/chatrelay/internal/logging"
	"github.com/D-Abramoc/chatrelay/internal/server/auth"
	"github.com/D-Abramoc/chatrelay/internal/server/config"
	"github.com/D-Abramoc/chatrelay/internal/server/models"
	"github.com/D-Abramoc/chatrelay/internal/server/relay"
)

type userSvc interface {
	Register(ctx context.Context, email, password, repeatPassword string, telegramID *int64) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type messageSvc interface {
	Save(ctx context.Context, msg *models.Message) error
	History(ctx context.Context, userID1, userID2 int64) ([]*models.Message, error)
}

type HTTPServer struct {
	config   *config.Config
	logger   logging.Logger
	gate     *auth.Gate
	users    userSvc
	messages messageSvc
	registry *relay.Registry
	notifier relay.Notifier
	router   *httprouter.Router
	upgrader websocket.Upgrader
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, us userSvc, ms messageSvc, reg *relay.Registry, n relay.Notifier) *HTTPServer {
	s := &HTTPServer{
		config:   cfg,
		logger:   l.With("module", "http_server"),
		gate:     auth.NewGate(cfg.SecretKey, us),
		users:    us,
		messages: ms,
		registry: reg,
		notifier: n,
		router:   httprouter.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes.
func (s *HTTPServer) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	s.router.GET("/auth", s.handleAuthPage)
	s.router.POST("/auth/register", s.handleRegister)
	s.router.POST("/auth/login", s.handleLogin)
	s.router.POST("/auth/logout", s.handleLogout)

	s.router.GET("/chat/messages/:user_id", s.handleHistory)

	// The path identifier is legacy and does not affect routing.
	s.router.GET("/ws/:room", s.handleWS)
}

// Handler returns the root handler, exposed separately so tests can mount it
// on an httptest server.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.config.EndpointAddrHTTP,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.config.EndpointAddrHTTP)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
