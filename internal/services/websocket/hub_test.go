package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"weatherclassifier/internal/logger"
)

func newTestHub(t *testing.T) *HubService {
	t.Helper()
	l, err := logger.New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	hub := NewHubService(l)
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func newViewerServer(t *testing.T, hub *HubService) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
		defer hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func waitForClients(t *testing.T, hub *HubService, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, have %d", n, hub.GetClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_PublishReachesViewer(t *testing.T) {
	hub := newTestHub(t)
	srv := newViewerServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, 1)

	if err := hub.Publish(map[string]string{"class": "Mưa"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if string(msg) != `{"class":"Mưa"}` {
		t.Errorf("Unexpected message: %s", msg)
	}
}

func TestHub_ViewerDisconnectUnregisters(t *testing.T) {
	hub := newTestHub(t)
	srv := newViewerServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	l, err := logger.New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer l.Close()

	// Run is not started, so the queue fills up.
	hub := NewHubService(l)
	accepted := 0
	for i := 0; i < broadcastBuffer+5; i++ {
		if hub.Broadcast([]byte("x")) {
			accepted++
		}
	}
	if accepted != broadcastBuffer {
		t.Errorf("Expected %d accepted messages, got %d", broadcastBuffer, accepted)
	}
}

func TestHub_PingsViewers(t *testing.T) {
	l, err := logger.New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer l.Close()

	hub := NewHubService(l, WithPongWait(100*time.Millisecond))
	go hub.Run()
	defer hub.Stop()
	srv := newViewerServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)

	pinged := make(chan struct{}, 1)
	conn.SetPingHandler(func(string) error {
		select {
		case pinged <- struct{}{}:
		default:
		}
		return nil
	})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected a ping from the hub")
	}

	if hub.PongWait() != 100*time.Millisecond {
		t.Errorf("Expected pong wait 100ms, got %s", hub.PongWait())
	}
}
