package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/espachat/internal/auth"
	"github.com/vovakirdan/espachat/internal/session"
	"github.com/vovakirdan/espachat/internal/store/sqlite"
)

const testPassword = "abcdefgh"

type testEnv struct {
	hub      *Hub
	accounts *auth.Service
	codec    *auth.ContinuityCodec
	sessions *session.MemoryStore
}

// newTestEnv starts a hub backed by in-memory SQLite. Guest numbers are
// handed out from guestNumbers in order, then counting up from 500.
func newTestEnv(t *testing.T, configure func(*Options), guestNumbers ...int) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	accounts := auth.NewService(st, "Gast")
	codec, err := auth.NewContinuityCodec("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}
	sessions := session.NewMemoryStore(time.Hour, nil)

	opts := Options{
		Title:       "Testchat",
		Topic:       "Willkommen im Chat!",
		GuestPrefix: "Gast",
		Palette:     []string{"#007bff", "#28a745"},
	}
	if configure != nil {
		configure(&opts)
	}

	hub := NewHub(opts, accounts, sessions, codec, nil)
	hub.rand = guestSequence(guestNumbers...)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	return &testEnv{hub: hub, accounts: accounts, codec: codec, sessions: sessions}
}

func guestSequence(numbers ...int) func(n int) int {
	next := 500
	return func(n int) int {
		if n != 1000 {
			return 0
		}
		if len(numbers) > 0 {
			v := numbers[0]
			numbers = numbers[1:]
			return v
		}
		next++
		return next
	}
}

// sync blocks until every event queued before it has been processed.
func (e *testEnv) sync(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := e.hub.RoomInfo(ctx); err != nil {
		t.Fatalf("hub sync failed: %v", err)
	}
}

// inLoop runs fn on the hub goroutine and waits for it.
func (e *testEnv) inLoop(t *testing.T, fn func(h *Hub)) {
	t.Helper()

	done := make(chan struct{})
	e.hub.enqueue(func(context.Context) {
		fn(e.hub)
		close(done)
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("hub did not run inspection")
	}
}

func (e *testEnv) connect(t *testing.T, id, ip, token string) *Client {
	t.Helper()

	c := NewClient(id, ip)
	e.hub.Connect(c, token)
	e.sync(t)
	return c
}

func (e *testEnv) send(t *testing.T, c *Client, text string) {
	t.Helper()

	e.hub.Submit(c, text)
	e.sync(t)
}

// connection returns a copy of the live identity of id.
func (e *testEnv) connection(t *testing.T, id string) (Connection, bool) {
	t.Helper()

	var (
		snap Connection
		ok   bool
	)
	e.inLoop(t, func(h *Hub) {
		if conn := h.registry.Get(id); conn != nil {
			snap, ok = *conn, true
		}
	})
	return snap, ok
}

// loginAdmin registers name as an administrator and logs c in.
func (e *testEnv) loginAdmin(t *testing.T, c *Client, name string) {
	t.Helper()

	ctx := context.Background()
	if _, err := e.accounts.CreateUser(ctx, name, testPassword, testPassword, ""); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if _, err := e.accounts.SetAdmin(ctx, name, true); err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	e.send(t, c, "/login "+name+" "+testPassword)
	mustMessage(t, c.Events, "Du bist als Administrator eingeloggt.")
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustMessage skips events until a message line containing substr arrives.
func mustMessage(t *testing.T, ch <-chan *Event, substr string) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == EventMessage && strings.Contains(ev.HTML, substr) {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected message containing %q not received", substr)
	return nil
}

// mustCode skips events until a message with the given error code arrives.
func mustCode(t *testing.T, ch <-chan *Event, code string) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == EventMessage && ev.Code == code {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected error code %q not received", code)
	return nil
}

// mustControl skips events until a control payload with prefix arrives and
// returns the text after the prefix.
func mustControl(t *testing.T, ch <-chan *Event, prefix string) string {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == EventControl && strings.HasPrefix(ev.Control, prefix) {
				return strings.TrimPrefix(ev.Control, prefix)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected control %q not received", prefix)
	return ""
}

// drain empties ch and returns what was queued.
func drain(ch <-chan *Event) []*Event {
	var out []*Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

// assertNoMessage fails if a queued message line contains substr.
func assertNoMessage(t *testing.T, e *testEnv, ch <-chan *Event, substr string) {
	t.Helper()

	e.sync(t)
	for _, ev := range drain(ch) {
		if ev.Kind == EventMessage && strings.Contains(ev.HTML, substr) {
			t.Fatalf("unexpected message containing %q: %s", substr, ev.HTML)
		}
	}
}
