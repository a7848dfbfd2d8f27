package relay

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/D-Abramoc/chatrelay/internal/logging"
	"github.com/D-Abramoc/chatrelay/internal/server/models"
)

// State is the lifecycle phase of one connection's relay.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateReceiving
	StateRouting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReceiving:
		return "receiving"
	case StateRouting:
		return "routing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// PlaceholderContent is stored and echoed when a frame carries a recipient
// but no message text. A documented fallback, not an error.
const PlaceholderContent = "(no text)"

// Transport is the full duplex view of a live connection as seen by its own
// relay: the read side blocks the relay goroutine, the write side is shared
// with the registry.
type Transport interface {
	// ReadText blocks until the next inbound frame arrives or the transport
	// is closed, in which case it returns an error.
	ReadText() (string, error)
	Connection
}

// MessageStore persists messages. Failures are isolated per frame by the
// relay and never close the connection.
type MessageStore interface {
	Save(ctx context.Context, msg *models.Message) error
}

// Notifier dispatches an out-of-band notification for a recipient that has
// no live connection. Fire-and-forget: no result reaches the relay.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string)
}

// Relay drives a single connection through its lifecycle:
//
//	connecting → open → (receiving ⇄ routing) → closed
//
// One relay goroutine owns the read side of its transport; frames from one
// connection are processed strictly in arrival order.
type Relay struct {
	userID   int64
	conn     Transport
	registry *Registry
	store    MessageStore
	notifier Notifier
	logger   logging.Logger
	state    atomic.Int32
}

func New(userID int64, conn Transport, registry *Registry, store MessageStore, notifier Notifier, logger logging.Logger) *Relay {
	r := &Relay{
		userID:   userID,
		conn:     conn,
		registry: registry,
		store:    store,
		notifier: notifier,
		logger:   logger.With("module", "relay", "user_id", userID),
	}
	r.state.Store(int32(StateConnecting))
	return r
}

// State reports the current lifecycle phase.
func (r *Relay) State() State {
	return State(r.state.Load())
}

func (r *Relay) setState(s State) {
	r.state.Store(int32(s))
}

// Run registers the connection and processes frames until the transport
// closes. It returns only after the identity has been unregistered and the
// departure notice broadcast.
func (r *Relay) Run(ctx context.Context) {
	r.registry.Register(r.userID, r.conn)
	r.setState(StateOpen)
	r.logger.Info(ctx, "connection open")

	for {
		r.setState(StateReceiving)
		frame, err := r.conn.ReadText()
		if err != nil {
			break
		}
		r.setState(StateRouting)
		r.route(ctx, frame)
	}

	r.close(ctx)
}

// route handles one inbound frame: parse, persist, echo, deliver or defer.
func (r *Relay) route(ctx context.Context, frame string) {
	recipient, content := ParseFrame(frame)

	recipientID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		// Soft failure: an unresolvable recipient never closes the
		// sender's connection.
		r.logger.Warn(ctx, "frame with non-numeric recipient dropped", "recipient", recipient)
		return
	}

	msg := &models.Message{
		SenderID:    r.userID,
		RecipientID: recipientID,
		Content:     content,
	}
	if err := r.store.Save(ctx, msg); err != nil {
		// Best-effort: relay availability does not depend on storage health.
		r.logger.Error(ctx, "message persist failed", "recipient_id", recipientID, "error", err)
	}

	if err := r.conn.WriteText(fmt.Sprintf("you -> %d: %s", recipientID, content)); err != nil {
		r.logger.Debug(ctx, "echo failed", "error", err)
	}

	if delivered := r.registry.SendTo(recipientID, fmt.Sprintf("from %d: %s", r.userID, content)); !delivered {
		r.notifier.Notify(ctx, recipientID, "You have a message")
	}
}

// close tears the connection down: the transport is released, the identity
// leaves the registry, then everyone still connected hears about it.
func (r *Relay) close(ctx context.Context) {
	// A superseded relay must not evict its replacement, and its exit is
	// not a departure: the user is still connected through the replacement.
	owned := false
	if current, ok := r.registry.Lookup(r.userID); ok && current == Connection(r.conn) {
		r.registry.Unregister(r.userID)
		owned = true
	}
	_ = r.conn.Close()
	r.setState(StateClosed)
	r.logger.Info(ctx, "connection closed")
	if owned {
		r.registry.Broadcast(fmt.Sprintf("user %d left the chat", r.userID))
	}
}

// ParseFrame splits a frame into recipient identity and content on the first
// space. A frame with no space is treated as a bare recipient identity and
// the content falls back to PlaceholderContent.
func ParseFrame(frame string) (recipient, content string) {
	recipient, content, found := strings.Cut(frame, " ")
	if !found || content == "" {
		return recipient, PlaceholderContent
	}
	return recipient, content
}
