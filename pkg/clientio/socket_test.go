package clientio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sj-distributor/SmartTalk-sub000/pkg/errorsx"
)

// socketPair upgrades one connection server-side and returns the WebSocket
// wrapped around it plus the raw client end.
func socketPair(t *testing.T, srv *httptest.Server, conns chan *websocket.Conn) (*WebSocket, *websocket.Conn) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	select {
	case conn := <-conns:
		return NewWebSocket(conn), client
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for upgrade")
		return nil, nil
	}
}

func upgradeServer(t *testing.T) (*httptest.Server, chan *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	return srv, conns
}

func TestWebSocketSendDeliversFrame(t *testing.T) {
	srv, conns := upgradeServer(t)
	defer srv.Close()

	sock, client := socketPair(t, srv, conns)
	defer sock.Close()
	defer client.Close()

	if err := sock.Send(`{"event":"media"}`); err != nil {
		t.Fatalf("send: %v", err)
	}
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, data, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if msgType != websocket.TextMessage || string(data) != `{"event":"media"}` {
		t.Fatalf("unexpected frame: %d %s", msgType, data)
	}
}

func TestWebSocketReceiveSkipsBinaryFrames(t *testing.T) {
	srv, conns := upgradeServer(t)
	defer srv.Close()

	sock, client := socketPair(t, srv, conns)
	defer sock.Close()
	defer client.Close()

	if err := client.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	if err := client.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write text: %v", err)
	}
	msg, err := sock.Receive(context.Background())
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if msg != "hello" {
		t.Fatalf("expected text frame, got %q", msg)
	}
}

func TestWebSocketSendAfterCloseFails(t *testing.T) {
	srv, conns := upgradeServer(t)
	defer srv.Close()

	sock, client := socketPair(t, srv, conns)
	defer client.Close()

	if err := sock.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	err := sock.Send("late")
	if err == nil {
		t.Fatalf("expected send after close to fail")
	}
	if !errorsx.HasReason(err, errorsx.ReasonClientSend) {
		t.Fatalf("expected client_send reason, got %v", err)
	}
	// second close is a no-op
	_ = sock.Close()
}

func TestWebSocketConcurrentSendAndClose(t *testing.T) {
	srv, conns := upgradeServer(t)
	defer srv.Close()

	for i := 0; i < 200; i++ {
		sock, client := socketPair(t, srv, conns)

		var wg sync.WaitGroup
		for j := 0; j < 8; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for k := 0; k < 50; k++ {
					_ = sock.Send("frame")
				}
			}()
		}
		_ = sock.Close()
		wg.Wait()
		_ = client.Close()
	}
}
