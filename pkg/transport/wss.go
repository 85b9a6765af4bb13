package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/errorsx"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/logging"
)

// WssClient is the gorilla/websocket implementation of Transport. One client
// serves exactly one session; create a fresh instance per call.
type WssClient struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	state    State
	endpoint string
	closing  bool

	onMessage     func(string)
	onStateChange func(State, string)
	onError       func(error)

	logger *slog.Logger
}

// NewWssClient creates a disconnected provider socket client.
func NewWssClient() *WssClient {
	return &WssClient{
		state:  StateIdle,
		logger: logging.NewComponentLogger(slog.Default(), "wss_client"),
	}
}

func (c *WssClient) OnMessage(handler func(text string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = handler
}

func (c *WssClient) OnStateChange(handler func(state State, reason string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStateChange = handler
}

func (c *WssClient) OnError(handler func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = handler
}

func (c *WssClient) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *WssClient) Endpoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoint
}

// Connect dials the provider endpoint and starts the listening goroutine.
func (c *WssClient) Connect(ctx context.Context, uri string, headers http.Header) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.setState(StateConnecting, "dialing")
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, uri, headers)
	if err != nil {
		c.setState(StateAborted, "dial failed")
		return errorsx.Wrap(err, errorsx.ReasonProviderDial)
	}
	c.mu.Lock()
	c.conn = conn
	c.endpoint = uri
	c.closing = false
	c.mu.Unlock()
	c.setState(StateOpen, "connected")
	go c.readLoop(conn)
	return nil
}

// Disconnect closes the socket. The pending read unblocks and the state
// transitions to closed rather than aborted.
func (c *WssClient) Disconnect() error {
	c.mu.Lock()
	conn := c.conn
	c.closing = true
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), closeDeadline())
	return conn.Close()
}

// Send writes one text message to the provider.
func (c *WssClient) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.state != StateOpen {
		return errorsx.New(errorsx.ReasonProviderSend, "transport not open (state %s)", c.state)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonProviderSend)
	}
	return nil
}

func (c *WssClient) readLoop(conn *websocket.Conn) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			c.finish(err)
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		c.mu.Lock()
		handler := c.onMessage
		c.mu.Unlock()
		if handler != nil {
			handler(string(data))
		}
	}
}

func (c *WssClient) finish(err error) {
	c.mu.Lock()
	closing := c.closing
	onError := c.onError
	c.mu.Unlock()

	var closeErr *websocket.CloseError
	switch {
	case closing:
		c.setState(StateClosed, "client disconnect")
	case errors.As(err, &closeErr):
		c.setState(StateClosed, closeErr.Error())
	default:
		if onError != nil {
			onError(err)
		}
		c.setState(StateAborted, err.Error())
	}
}

func closeDeadline() time.Time {
	return time.Now().Add(time.Second)
}

func (c *WssClient) setState(state State, reason string) {
	c.mu.Lock()
	if c.state == state {
		c.mu.Unlock()
		return
	}
	old := c.state
	c.state = state
	handler := c.onStateChange
	c.mu.Unlock()

	c.logger.Debug("wss_state_change",
		slog.String("from", old.String()),
		slog.String("to", state.String()),
		slog.String("reason", reason))
	if handler != nil {
		handler(state, reason)
	}
}
