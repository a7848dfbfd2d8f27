// Package relay contains the in-memory registry of live connections and the
// per-connection state machine that persists and routes inbound messages.
package relay

import (
	"context"
	"sync"

	"github.com/D-Abramoc/chatrelay/internal/logging"
)

// Connection is the write side of a live transport as seen by the registry.
// Implementations must be safe for concurrent WriteText calls.
type Connection interface {
	WriteText(text string) error
	Close() error
}

// Registry is the process-wide mapping from user identity to the single live
// connection owned by that identity. All operations are safe to call
// concurrently from independent connection goroutines.
//
// Per-connection I/O is never performed under the lock: a slow write to one
// connection must not stall registration or delivery to the others.
type Registry struct {
	mu     sync.Mutex
	conns  map[int64]Connection
	logger logging.Logger
}

func NewRegistry(logger logging.Logger) *Registry {
	return &Registry{
		conns:  make(map[int64]Connection),
		logger: logger.With("module", "registry"),
	}
}

// Register installs conn as the connection for userID. If an entry already
// exists the superseded connection is closed first: ownership of an identity
// transfers to the most recent transport, and two live transports must never
// both believe they own it.
func (r *Registry) Register(userID int64, conn Connection) {
	r.mu.Lock()
	old, existed := r.conns[userID]
	r.conns[userID] = conn
	r.mu.Unlock()

	if existed && old != conn {
		if err := old.Close(); err != nil {
			r.logger.Debug(context.Background(), "closing superseded connection", "user_id", userID, "error", err)
		}
		r.logger.Info(context.Background(), "superseded connection replaced", "user_id", userID)
	}
}

// Unregister removes the entry for userID if present. Calling it twice, or
// for an identity that was never registered, is a no-op.
func (r *Registry) Unregister(userID int64) {
	r.mu.Lock()
	delete(r.conns, userID)
	r.mu.Unlock()
}

// Lookup returns the registered connection for userID, if any.
func (r *Registry) Lookup(userID int64) (Connection, bool) {
	r.mu.Lock()
	conn, ok := r.conns[userID]
	r.mu.Unlock()
	return conn, ok
}

// SendTo writes text to the connection registered for userID. It reports
// false, without error, when no connection is registered; the relay uses that
// to fall back to an out-of-band notification.
func (r *Registry) SendTo(userID int64, text string) bool {
	conn, ok := r.Lookup(userID)
	if !ok {
		return false
	}
	if err := conn.WriteText(text); err != nil {
		r.logger.Warn(context.Background(), "direct send failed", "user_id", userID, "error", err)
	}
	return true
}

// Broadcast writes text to every registered connection. Failures on
// individual connections are logged and do not abort delivery to the rest.
func (r *Registry) Broadcast(text string) {
	r.mu.Lock()
	snapshot := make(map[int64]Connection, len(r.conns))
	for id, conn := range r.conns {
		snapshot[id] = conn
	}
	r.mu.Unlock()

	for id, conn := range snapshot {
		if err := conn.WriteText(text); err != nil {
			r.logger.Warn(context.Background(), "broadcast send failed", "user_id", id, "error", err)
		}
	}
}
