package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	clientadapter "github.com/sj-distributor/SmartTalk-sub000/pkg/adapters/client"
	provideradapter "github.com/sj-distributor/SmartTalk-sub000/pkg/adapters/provider"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/audio"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/events"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/timers"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/transport"
)

// session owns all mutable state of one live call. Its fields are touched
// only by the session's own two activities; the mutex synchronizes them
// against each other, never across sessions.
type session struct {
	id   string
	opts Options

	provider  provideradapter.Adapter
	client    clientadapter.Adapter
	transport transport.Transport
	timers    timers.Manager

	// codec the client leg speaks and the codec negotiated with the provider
	clientCodec   audio.Codec
	providerCodec audio.Codec

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	aiSpeaking  bool
	round       int
	transcripts []events.TranscriptEntry
	recording   []byte

	started     atomic.Bool
	terminating atomic.Bool
	cleanupOnce sync.Once

	logger *slog.Logger
}

func (s *session) setAISpeaking(speaking bool) {
	s.mu.Lock()
	s.aiSpeaking = speaking
	s.mu.Unlock()
}

func (s *session) isAISpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aiSpeaking
}

func (s *session) incrementRound() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.round++
	return s.round
}

func (s *session) appendTranscript(entry events.TranscriptEntry) {
	s.mu.Lock()
	s.transcripts = append(s.transcripts, entry)
	s.mu.Unlock()
}

func (s *session) takeTranscripts() []events.TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.transcripts
	s.transcripts = nil
	return out
}

func (s *session) appendRecording(chunk []byte) {
	s.mu.Lock()
	s.recording = append(s.recording, chunk...)
	s.mu.Unlock()
}

func (s *session) takeRecording() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.recording
	s.recording = nil
	return out
}

// sendToClient builds one outbound client wire message and writes it. Build
// or write failures are logged and dropped; they never end the session.
func (s *session) sendToClient(build func() (string, error)) {
	msg, err := build()
	if err != nil {
		s.logger.Warn("client_message_build_failed", slog.String("error", err.Error()))
		return
	}
	if err := s.opts.ClientConfig.Socket.Send(msg); err != nil {
		s.logger.Warn("client_send_failed", slog.String("error", err.Error()))
	}
}

// sendText injects a user text turn into the provider conversation. It backs
// the session-ready hook and the idle follow-up prompt.
func (s *session) sendText(text string) error {
	msg, err := s.provider.BuildTextUserMessage(text, s.id)
	if err != nil {
		return err
	}
	if err := s.transport.Send(msg); err != nil {
		return err
	}
	if trigger, ok := s.provider.BuildTriggerResponseMessage(); ok {
		return s.transport.Send(trigger)
	}
	return nil
}
