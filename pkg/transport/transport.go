package transport

import (
	"context"
	"net/http"
)

// State represents the lifecycle of a provider WebSocket connection.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
	StateAborted
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Transport is one session's outbound socket to a speech-AI backend.
// Implementations deliver inbound messages and state transitions from their
// own listening goroutine.
type Transport interface {
	Connect(ctx context.Context, uri string, headers http.Header) error
	Disconnect() error
	Send(text string) error
	State() State
	Endpoint() string
	OnMessage(handler func(text string))
	OnStateChange(handler func(state State, reason string))
	OnError(handler func(err error))
}
