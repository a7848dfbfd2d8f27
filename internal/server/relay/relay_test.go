package relay

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/D-Abramoc/chatrelay/internal/server/models"
)

type fakeTransport struct {
	fakeConn
	frames chan string
}

func newFakeTransport(frames ...string) *fakeTransport {
	ch := make(chan string, len(frames))
	for _, f := range frames {
		ch <- f
	}
	close(ch)
	return &fakeTransport{frames: ch}
}

func (f *fakeTransport) ReadText() (string, error) {
	s, ok := <-f.frames
	if !ok {
		return "", io.EOF
	}
	return s, nil
}

type fakeStore struct {
	mu    sync.Mutex
	saved []*models.Message
	err   error
}

func (s *fakeStore) Save(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, msg)
	return nil
}

func (s *fakeStore) Saved() []*models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Message, len(s.saved))
	copy(out, s.saved)
	return out
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []int64
}

func (n *fakeNotifier) Notify(ctx context.Context, userID int64, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, userID)
}

func (n *fakeNotifier) Calls() []int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]int64, len(n.calls))
	copy(out, n.calls)
	return out
}

func TestParseFrame(t *testing.T) {
	tests := []struct {
		frame         string
		wantRecipient string
		wantContent   string
	}{
		{"42 hello there", "42", "hello there"},
		{"42", "42", PlaceholderContent},
		{"42 ", "42", PlaceholderContent},
		{"7 x", "7", "x"},
	}
	for _, tc := range tests {
		recipient, content := ParseFrame(tc.frame)
		if recipient != tc.wantRecipient || content != tc.wantContent {
			t.Fatalf("ParseFrame(%q) = (%q, %q), want (%q, %q)",
				tc.frame, recipient, content, tc.wantRecipient, tc.wantContent)
		}
	}
}

func TestRelay_PersistsParsedFrame(t *testing.T) {
	registry := NewRegistry(testLogger())
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	conn := newFakeTransport("42 hello there")
	r := New(7, conn, registry, store, notifier, testLogger())
	r.Run(context.Background())

	saved := store.Saved()
	if len(saved) != 1 {
		t.Fatalf("expected 1 saved message, got %d", len(saved))
	}
	msg := saved[0]
	if msg.SenderID != 7 || msg.RecipientID != 42 || msg.Content != "hello there" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestRelay_BareRecipientGetsPlaceholder(t *testing.T) {
	registry := NewRegistry(testLogger())
	store := &fakeStore{}

	conn := newFakeTransport("42")
	r := New(7, conn, registry, store, &fakeNotifier{}, testLogger())
	r.Run(context.Background())

	saved := store.Saved()
	if len(saved) != 1 {
		t.Fatalf("expected 1 saved message, got %d", len(saved))
	}
	if saved[0].RecipientID != 42 || saved[0].Content != PlaceholderContent {
		t.Fatalf("unexpected message: %+v", saved[0])
	}
}

func TestRelay_DeliversToConnectedRecipient(t *testing.T) {
	registry := NewRegistry(testLogger())
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	recipient := &fakeConn{}
	registry.Register(2, recipient)

	sender := newFakeTransport("2 hi")
	r := New(1, sender, registry, store, notifier, testLogger())
	r.Run(context.Background())

	var delivered bool
	for _, w := range recipient.Written() {
		if strings.Contains(w, "hi") {
			delivered = true
		}
	}
	if !delivered {
		t.Fatalf("recipient did not receive delivery: %v", recipient.Written())
	}

	var echoed bool
	for _, w := range sender.Written() {
		if strings.Contains(w, "hi") {
			echoed = true
		}
	}
	if !echoed {
		t.Fatalf("sender did not receive echo: %v", sender.Written())
	}

	if len(notifier.Calls()) != 0 {
		t.Fatalf("notifier must not fire for a connected recipient: %v", notifier.Calls())
	}
	saved := store.Saved()
	if len(saved) != 1 || saved[0].SenderID != 1 || saved[0].RecipientID != 2 || saved[0].Content != "hi" {
		t.Fatalf("unexpected persisted messages: %+v", saved)
	}
}

func TestRelay_OfflineRecipientTriggersOneNotification(t *testing.T) {
	registry := NewRegistry(testLogger())
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	sender := newFakeTransport("3 hi")
	r := New(1, sender, registry, store, notifier, testLogger())
	r.Run(context.Background())

	calls := notifier.Calls()
	if len(calls) != 1 || calls[0] != 3 {
		t.Fatalf("expected exactly one notification for user 3, got %v", calls)
	}
	saved := store.Saved()
	if len(saved) != 1 || saved[0].RecipientID != 3 || saved[0].Content != "hi" {
		t.Fatalf("unexpected persisted messages: %+v", saved)
	}
}

func TestRelay_PersistFailureKeepsConnectionOpen(t *testing.T) {
	registry := NewRegistry(testLogger())
	store := &fakeStore{err: errors.New("db down")}
	notifier := &fakeNotifier{}

	recipient := &fakeConn{}
	registry.Register(2, recipient)

	sender := newFakeTransport("2 first", "2 second")
	r := New(1, sender, registry, store, notifier, testLogger())
	r.Run(context.Background())

	// Both frames processed despite storage being down.
	if got := recipient.Written(); len(got) != 2 {
		t.Fatalf("expected 2 deliveries despite persist failures, got %v", got)
	}
}

func TestRelay_NonNumericRecipientDropped(t *testing.T) {
	registry := NewRegistry(testLogger())
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	sender := newFakeTransport("bogus hello", "2 hi")
	recipient := &fakeConn{}
	registry.Register(2, recipient)

	r := New(1, sender, registry, store, notifier, testLogger())
	r.Run(context.Background())

	saved := store.Saved()
	if len(saved) != 1 || saved[0].RecipientID != 2 {
		t.Fatalf("expected only the valid frame persisted, got %+v", saved)
	}
}

func TestRelay_DisconnectUnregistersAndBroadcasts(t *testing.T) {
	registry := NewRegistry(testLogger())

	other := &fakeConn{}
	registry.Register(9, other)

	sender := newFakeTransport() // closes immediately
	r := New(1, sender, registry, &fakeStore{}, &fakeNotifier{}, testLogger())
	r.Run(context.Background())

	if _, ok := registry.Lookup(1); ok {
		t.Fatalf("identity 1 must be unregistered after disconnect")
	}
	if r.State() != StateClosed {
		t.Fatalf("expected closed state, got %v", r.State())
	}

	var announced bool
	for _, w := range other.Written() {
		if strings.Contains(w, "left the chat") {
			announced = true
		}
	}
	if !announced {
		t.Fatalf("other connections must observe the departure notice: %v", other.Written())
	}
}

func TestRelay_DisconnectClosesTransport(t *testing.T) {
	registry := NewRegistry(testLogger())

	// One connect/disconnect cycle must leave no open transport behind.
	sender := newFakeTransport("2 hi")
	r := New(1, sender, registry, &fakeStore{}, &fakeNotifier{}, testLogger())
	r.Run(context.Background())

	if !sender.Closed() {
		t.Fatalf("transport must be closed after the relay reaches the closed state")
	}
}

func TestRelay_SupersededRelayDoesNotEvictReplacement(t *testing.T) {
	registry := NewRegistry(testLogger())

	first := &fakeTransport{frames: make(chan string)}
	r := New(1, first, registry, &fakeStore{}, &fakeNotifier{}, testLogger())

	done := make(chan struct{})
	go func() {
		r.Run(context.Background())
		close(done)
	}()

	// Wait for the first relay to register itself.
	for {
		if c, ok := registry.Lookup(1); ok && c == Connection(first) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	replacement := &fakeConn{}
	registry.Register(1, replacement)

	// Tear down the superseded relay.
	close(first.frames)
	<-done

	got, ok := registry.Lookup(1)
	if !ok || got != Connection(replacement) {
		t.Fatalf("replacement must survive the superseded relay's teardown, got %v ok=%v", got, ok)
	}
}

func TestRelay_SupersededExitDoesNotAnnounceDeparture(t *testing.T) {
	registry := NewRegistry(testLogger())

	other := &fakeConn{}
	registry.Register(9, other)

	first := &fakeTransport{frames: make(chan string)}
	r := New(1, first, registry, &fakeStore{}, &fakeNotifier{}, testLogger())

	done := make(chan struct{})
	go func() {
		r.Run(context.Background())
		close(done)
	}()

	for {
		if c, ok := registry.Lookup(1); ok && c == Connection(first) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	replacement := &fakeConn{}
	registry.Register(1, replacement)

	close(first.frames)
	<-done

	// User 1 is still connected through the replacement, so nobody may be
	// told they left.
	for _, w := range other.Written() {
		if strings.Contains(w, "left the chat") {
			t.Fatalf("departure announced while the user is still connected: %v", other.Written())
		}
	}
	for _, w := range replacement.Written() {
		if strings.Contains(w, "left the chat") {
			t.Fatalf("replacement saw its own departure notice: %v", replacement.Written())
		}
	}
}
