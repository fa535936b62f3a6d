package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/fantastictask/internal/auth"
	"github.com/dukerupert/fantastictask/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// detachedClient has a send queue but no connection behind it.
func detachedClient(hub *Hub, familyID int64) *Client {
	return &Client{
		hub:      hub,
		familyID: familyID,
		send:     make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(testLogger())
	a, b, other := detachedClient(hub, 1), detachedClient(hub, 1), detachedClient(hub, 2)

	steps := []struct {
		do   func()
		want int
	}{
		{func() { hub.Register(a) }, 1},
		{func() { hub.Register(b) }, 2},
		{func() { hub.Register(other) }, 3},
		{func() { hub.Unregister(a) }, 2},
		{func() { hub.Unregister(a) }, 2},
		{func() { hub.Unregister(b); hub.Unregister(other) }, 0},
	}
	for i, st := range steps {
		st.do()
		if got := hub.ClientCount(); got != st.want {
			t.Fatalf("step %d: ClientCount = %d, want %d", i, got, st.want)
		}
	}
	if _, open := <-a.send; open {
		t.Error("send queue should be closed after unregister")
	}
	if len(hub.families) != 0 {
		t.Errorf("empty family sets should be dropped, have %d", len(hub.families))
	}
}

func TestPublishScopedToFamily(t *testing.T) {
	hub := NewHub(testLogger())

	smith := detachedClient(hub, 1)
	jones := detachedClient(hub, 2)
	hub.Register(smith)
	hub.Register(jones)
	defer hub.Unregister(smith)
	defer hub.Unregister(jones)

	hub.Publish(1, "completion", "approved", 42, map[string]any{"task_id": float64(7)})

	select {
	case data := <-smith.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != "completion_approved" || got.Entity != "completion" || got.ID != 42 {
			t.Errorf("got %+v", got)
		}
		if got.Extra["task_id"] != float64(7) {
			t.Errorf("extra = %v", got.Extra)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}

	select {
	case data := <-jones.send:
		t.Errorf("other family received %s", data)
	default:
	}
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(testLogger())
	c := detachedClient(hub, 1)
	hub.Register(c)
	defer hub.Unregister(c)

	for i := range sendBufferSize + 3 {
		hub.Broadcast(1, NewMessage("task", "updated", int64(i), nil))
	}
	if got := len(c.send); got != sendBufferSize {
		t.Errorf("queued = %d, want %d with the overflow dropped", got, sendBufferSize)
	}
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("points", "adjusted", 5, nil)
	if msg.Type != "points_adjusted" || msg.Entity != "points" || msg.Action != "adjusted" || msg.ID != 5 {
		t.Errorf("got %+v", msg)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(testLogger())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(family int64) {
			defer wg.Done()
			c := detachedClient(hub, family)
			hub.Register(c)
			hub.Publish(family, "task", "created", 0, nil)
			hub.Unregister(c)
		}(int64(i % 3))
	}
	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("ClientCount = %d after all clients left", got)
	}
}

func TestHandleWebSocketRequiresIdentity(t *testing.T) {
	hub := NewHub(testLogger())
	rec := httptest.NewRecorder()
	HandleWebSocket(hub)(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHandleWebSocketDelivers(t *testing.T) {
	hub := NewHub(testLogger())
	h := HandleWebSocket(hub)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.WithAuth(r.Context(), auth.AuthContext{MemberID: 1, FamilyID: 9, Role: model.RoleAdmin})
		h(w, r.WithContext(ctx))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(ws.StatusNormalClosure, "")

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish(9, "task", "created", 3, nil)

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != "task_created" || got.ID != 3 {
		t.Errorf("got %+v", got)
	}
}
