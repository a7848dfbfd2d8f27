package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/D-Abramoc/chatrelay/internal/server/relay"
)

// Time allowed to write a message to the peer.
const writeWait = 10 * time.Second

// wsConn adapts a gorilla connection to the relay transport. The read side is
// owned by a single relay goroutine; writes come from that goroutine and from
// the registry concurrently, so they are serialized by a mutex.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) ReadText() (string, error) {
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if mt != websocket.TextMessage {
			continue
		}
		return string(data), nil
	}
}

func (c *wsConn) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// handleWS authorizes and upgrades a connection, then runs its relay until
// the peer disconnects. Authorization failures are rejected before the
// upgrade: an accepted-then-closed socket is observably different to clients.
func (s *HTTPServer) handleWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, err := s.gate.Authorize(r)
	if err != nil {
		s.logger.Warn(r.Context(), "websocket unauthorized", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "authentication required", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written its own response.
		s.logger.Warn(r.Context(), "websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	// The request was hijacked, so nothing upstream releases the socket.
	defer conn.Close()

	rl := relay.New(principal.UserID, &wsConn{conn: conn}, s.registry, s.messages, s.notifier, s.logger)
	rl.Run(r.Context())
}
