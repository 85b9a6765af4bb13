package clientio

import (
	"context"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/errorsx"
)

// Socket is the inbound client leg of one session. Receive blocks until the
// next frame arrives, the peer closes, or the socket is closed locally.
type Socket interface {
	Receive(ctx context.Context) (string, error)
	Send(text string) error
	Close() error
}

// WebSocket adapts a gorilla connection to Socket. Writes go through a
// buffered channel and a single writer goroutine; a full buffer drops the
// frame rather than stalling the session.
type WebSocket struct {
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
	closed atomic.Bool
}

func NewWebSocket(conn *websocket.Conn) *WebSocket {
	s := &WebSocket{
		conn:   conn,
		sendCh: make(chan []byte, 256),
		done:   make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

func (s *WebSocket) Receive(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			return "", errorsx.Wrap(err, errorsx.ReasonClientReceive)
		}
		if msgType != websocket.TextMessage {
			continue
		}
		return string(data), nil
	}
}

// Send may race with Close; sendCh is never closed so a frame enqueued after
// shutdown is simply dropped with the writer gone.
func (s *WebSocket) Send(text string) error {
	select {
	case <-s.done:
		return errorsx.New(errorsx.ReasonClientSend, "socket closed")
	default:
	}
	select {
	case s.sendCh <- []byte(text):
	default:
	}
	return nil
}

func (s *WebSocket) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		close(s.done)
	}
	return s.conn.Close()
}

func (s *WebSocket) writeLoop() {
	for {
		select {
		case msg := <-s.sendCh:
			_ = s.conn.WriteMessage(websocket.TextMessage, msg)
		case <-s.done:
			return
		}
	}
}
