package connection

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testTransportConfig(url string) TransportConfig {
	cfg := DefaultTransportConfig()
	cfg.URL = url
	cfg.BufferSize = 100
	return cfg
}

func TestTransport_Connect(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	tr := NewTransport(testTransportConfig(wsURL(server)), nil)

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !tr.IsConnected() {
		t.Error("expected IsConnected after Connect")
	}

	if err := tr.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if tr.IsConnected() {
		t.Error("expected not connected after Close")
	}
}

func TestTransport_ConnectRefused(t *testing.T) {
	tr := NewTransport(testTransportConfig("ws://127.0.0.1:1/nope"), nil)

	if err := tr.Connect(context.Background()); err == nil {
		t.Fatal("expected Connect to fail")
	}
	if tr.IsConnected() {
		t.Error("expected not connected after failed Connect")
	}
}

func TestTransport_AuthHeader(t *testing.T) {
	var gotAuth string
	var mu sync.Mutex

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	cfg := testTransportConfig(wsURL(server))
	cfg.Token = "secret-token"
	tr := NewTransport(cfg, nil)

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Close()

	mu.Lock()
	defer mu.Unlock()
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer secret-token")
	}
}

func TestTransport_Send(t *testing.T) {
	received := make(chan []byte, 1)

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- msg
		}
	})
	defer server.Close()

	tr := NewTransport(testTransportConfig(wsURL(server)), nil)

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Close()

	if err := tr.Send([]byte("hello")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case msg := <-received:
		if string(msg) != "hello" {
			t.Errorf("server received %q, want %q", msg, "hello")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive the frame")
	}
}

func TestTransport_SendNotConnected(t *testing.T) {
	tr := NewTransport(testTransportConfig("ws://example.test/x"), nil)

	if err := tr.Send([]byte("hello")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send = %v, want ErrNotConnected", err)
	}
}

func TestTransport_Receive(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte("from server"))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	tr := NewTransport(testTransportConfig(wsURL(server)), nil)

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Close()

	select {
	case msg := <-tr.Messages():
		if string(msg.Data) != "from server" {
			t.Errorf("received %q, want %q", msg.Data, "from server")
		}
		if msg.ReceivedAt.IsZero() {
			t.Error("ReceivedAt not set")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestTransport_ServerCloseSurfacesError(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		// Close immediately after the handshake.
	})
	defer server.Close()

	tr := NewTransport(testTransportConfig(wsURL(server)), nil)

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Close()

	select {
	case err := <-tr.Errors():
		if err == nil {
			t.Error("expected a non-nil error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no error surfaced after server close")
	}
}

func TestTransport_CloseIdempotent(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	tr := NewTransport(testTransportConfig(wsURL(server)), nil)

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := tr.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	if err := tr.Connect(context.Background()); !errors.Is(err, ErrAlreadyClosed) {
		t.Errorf("Connect after Close = %v, want ErrAlreadyClosed", err)
	}
}

// End-to-end: an actor over a real server survives a server-side drop.
func TestActor_RealTransportReconnect(t *testing.T) {
	var mu sync.Mutex
	connCount := 0

	server := mockWSServer(t, func(conn *websocket.Conn) {
		mu.Lock()
		connCount++
		n := connCount
		mu.Unlock()

		if n == 1 {
			// Drop the first connection right away.
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte("welcome back"))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	cfg := DefaultActorConfig(wsURL(server))
	cfg.BackoffInitial = 20 * time.Millisecond
	cfg.BackoffMax = 160 * time.Millisecond

	a, err := NewActor("obj-1", cfg, nil)
	if err != nil {
		t.Fatalf("NewActor failed: %v", err)
	}
	defer a.Stop()

	events := make(chan Event, 100)
	if err := a.Subscribe(events, nil); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == EventMessage && string(ev.Data) == "welcome back" {
				return
			}
		case <-deadline:
			t.Fatal("never received a frame after reconnect")
		}
	}
}
