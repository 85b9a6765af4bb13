package session

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/google/uuid"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/adapters"
	provideradapter "github.com/sj-distributor/SmartTalk-sub000/pkg/adapters/provider"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/audio"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/errorsx"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/events"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/logging"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/timers"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/transport"
)

// Orchestrator runs voice sessions end to end. One Connect call owns one
// session; the orchestrator itself is stateless and shared across calls.
type Orchestrator struct {
	switcher *adapters.Switcher
	timers   timers.Manager
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator over the given adapter registry
// and timer scheduler.
func NewOrchestrator(switcher *adapters.Switcher, timerMgr timers.Manager) *Orchestrator {
	return &Orchestrator{
		switcher: switcher,
		timers:   timerMgr,
		logger:   logging.NewComponentLogger(slog.Default(), "orchestrator"),
	}
}

// Connect runs one session until it fully ends: client close, provider
// critical failure, or cancellation of ctx. Configuration and connection
// errors propagate; runtime failures converge on cleanup instead.
func (o *Orchestrator) Connect(ctx context.Context, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	providerAdapter, providerTransport, err := o.switcher.ResolveProvider(opts.ModelConfig.Provider)
	if err != nil {
		return err
	}
	clientAdapter := o.switcher.ResolveClient(opts.ClientConfig.Kind)

	clientCodec := clientAdapter.NativeAudioCodec()
	if opts.CodecHint != "" {
		clientCodec = opts.CodecHint
	}

	sessCtx, cancel := context.WithCancel(ctx)
	sess := &session{
		id:            uuid.NewString(),
		opts:          opts,
		provider:      providerAdapter,
		client:        clientAdapter,
		transport:     providerTransport,
		timers:        o.timers,
		clientCodec:   clientCodec,
		providerCodec: providerAdapter.GetPreferredCodec(clientCodec),
		ctx:           sessCtx,
		cancel:        cancel,
	}
	sess.logger = logging.NewSessionLogger(o.logger, sess.id)
	defer cancel()

	providerTransport.OnMessage(sess.onProviderMessage)
	providerTransport.OnStateChange(sess.onTransportStateChange)
	providerTransport.OnError(sess.onTransportError)

	endpoint := buildEndpoint(opts.ModelConfig.ServiceUrl, opts.Region)
	if err := sess.dial(endpoint, opts.Region); err != nil {
		return err
	}

	configMsg, err := providerAdapter.BuildSessionConfig(sessionParams(opts.ModelConfig), sess.providerCodec)
	if err != nil {
		_ = providerTransport.Disconnect()
		return errorsx.Wrap(err, errorsx.ReasonProviderSend)
	}
	sess.started.Store(true)
	if err := providerTransport.Send(configMsg); err != nil {
		sess.terminating.Store(true)
		_ = providerTransport.Disconnect()
		return err
	}

	sess.logger.Info("session_started",
		slog.String("provider", opts.ModelConfig.Provider),
		slog.String("client_kind", opts.ClientConfig.Kind),
		slog.String("codec", string(sess.providerCodec)))

	// unblock the client read loop when the session scope is cancelled
	go func() {
		<-sessCtx.Done()
		_ = opts.ClientConfig.Socket.Close()
	}()

	sess.clientLoop()
	cancel()
	sess.runCleanup()
	return nil
}

// dial connects the provider transport, skipping the dial when a reused
// transport already reports open at the same endpoint. Any post-dial state
// other than open is fatal.
func (s *session) dial(endpoint, region string) error {
	if s.transport.State() == transport.StateOpen && s.transport.Endpoint() == endpoint {
		return nil
	}
	headers := s.provider.GetHeaders(region)
	if err := s.transport.Connect(s.ctx, endpoint, headers); err != nil {
		return err
	}
	if state := s.transport.State(); state != transport.StateOpen {
		return errorsx.New(errorsx.ReasonProviderNotOpen, "provider transport not open after dial: %s", state)
	}
	return nil
}

func buildEndpoint(serviceURL, region string) string {
	if region == "" {
		return serviceURL
	}
	u, err := url.Parse(serviceURL)
	if err != nil {
		return serviceURL
	}
	q := u.Query()
	q.Set("region", region)
	u.RawQuery = q.Encode()
	return u.String()
}

func sessionParams(cfg *ModelConfig) provideradapter.SessionParams {
	return provideradapter.SessionParams{
		Model:       cfg.Model,
		Voice:       cfg.Voice,
		Prompt:      cfg.Prompt,
		Temperature: cfg.Temperature,
		Tools:       cfg.Tools,
	}
}

// clientLoop reads the client socket until it closes or the session scope is
// cancelled. One malformed message never terminates the loop.
func (s *session) clientLoop() {
	for {
		raw, err := s.opts.ClientConfig.Socket.Receive(s.ctx)
		if err != nil {
			if s.ctx.Err() == nil {
				s.logger.Info("client_socket_closed", slog.String("reason", err.Error()))
			}
			return
		}
		msg, err := s.client.ParseMessage(raw)
		if err != nil {
			s.logger.Warn("client_message_unparsable", slog.String("error", err.Error()))
			continue
		}
		s.handleClientMessage(msg)
	}
}

func (s *session) handleClientMessage(msg events.ClientMessage) {
	switch msg.Kind {
	case events.ClientAudio:
		s.handleClientAudio(msg.Audio)
	case events.ClientImage:
		s.forwardToProvider(msg.Audio, provideradapter.MediaImage)
	case events.ClientText:
		if err := s.sendText(msg.Text); err != nil {
			s.logger.Warn("client_text_forward_failed", slog.String("error", err.Error()))
		}
	default:
		s.logger.Debug("client_message_unknown")
	}
}

// handleClientAudio always relays audio to the provider, even while the AI
// is speaking, so the provider can detect a barge-in. Audio arriving during
// AI speech is call-leg echo of the assistant's own output and stays out of
// the recording.
func (s *session) handleClientAudio(payload []byte) {
	record := s.opts.EnableRecording && !s.isAISpeaking()
	converted, err := convertAudio(payload, s.clientCodec, s.providerCodec)
	if err != nil {
		s.logger.Warn("client_audio_convert_failed", slog.String("error", err.Error()))
		return
	}
	s.forwardToProvider(converted, provideradapter.MediaAudio)

	if record {
		chunk, err := audio.ConvertForRecording(payload, s.clientCodec)
		if err != nil {
			s.logger.Warn("recording_convert_failed", slog.String("error", err.Error()))
			return
		}
		s.appendRecording(chunk)
	}
}

func (s *session) forwardToProvider(payload []byte, media provideradapter.MediaKind) {
	msg, err := s.provider.BuildAudioAppendMessage(payload, media)
	if err != nil {
		s.logger.Warn("provider_append_build_failed", slog.String("error", err.Error()))
		return
	}
	if err := s.transport.Send(msg); err != nil {
		s.logger.Warn("provider_send_failed", slog.String("error", err.Error()))
	}
}

// onProviderMessage runs on the transport's listening goroutine. A failure
// handling one event is logged and dropped; the stream continues.
func (s *session) onProviderMessage(raw string) {
	evt, err := s.provider.ParseMessage(raw)
	if err != nil {
		s.logger.Warn("provider_message_unparsable", slog.String("error", err.Error()))
		return
	}
	s.handleProviderEvent(evt)
}

func (s *session) handleProviderEvent(evt events.ProviderEvent) {
	switch evt.Kind {
	case events.ProviderSessionInitialized:
		if s.opts.Hooks.OnSessionReady != nil {
			s.opts.Hooks.OnSessionReady(s.sendText)
		}
	case events.ProviderAudioDelta:
		s.handleAudioDelta(evt.Audio)
	case events.ProviderSpeechDetected:
		s.setAISpeaking(false)
		s.sendToClient(s.client.BuildSpeechDetectedMessage)
		if s.opts.IdleFollowUp != nil {
			s.timers.StopTimer(s.id)
		}
	case events.ProviderInputTranscriptionPartial, events.ProviderOutputTranscriptionPartial:
		s.sendToClient(func() (string, error) {
			return s.client.BuildTranscriptionMessage(evt.Speaker, evt.Text, false)
		})
	case events.ProviderInputTranscriptionCompleted, events.ProviderOutputTranscriptionCompleted:
		s.sendToClient(func() (string, error) {
			return s.client.BuildTranscriptionMessage(evt.Speaker, evt.Text, true)
		})
		s.appendTranscript(events.TranscriptEntry{Speaker: evt.Speaker, Text: evt.Text})
	case events.ProviderTurnCompleted:
		s.handleTurnCompleted(evt.FunctionCalls)
	case events.ProviderError:
		s.handleProviderError(evt.Code, evt.Message, evt.Critical)
	}
}

func (s *session) handleAudioDelta(payload []byte) {
	if len(payload) == 0 {
		return
	}
	s.setAISpeaking(true)
	converted, err := convertAudio(payload, s.providerCodec, s.clientCodec)
	if err != nil {
		s.logger.Warn("provider_audio_convert_failed", slog.String("error", err.Error()))
		return
	}
	s.sendToClient(func() (string, error) {
		return s.client.BuildAudioDeltaMessage(converted)
	})
	if s.opts.EnableRecording {
		chunk, err := audio.ConvertForRecording(payload, s.providerCodec)
		if err != nil {
			s.logger.Warn("recording_convert_failed", slog.String("error", err.Error()))
			return
		}
		s.appendRecording(chunk)
	}
}

// handleTurnCompleted dispatches provider-requested function calls when
// present; otherwise the turn is complete: the round advances, the client is
// notified, and the idle follow-up timer restarts once past its skip rounds.
func (s *session) handleTurnCompleted(calls []events.FunctionCallRequest) {
	if len(calls) > 0 && s.opts.Hooks.OnFunctionCall != nil {
		for _, call := range calls {
			result, err := s.opts.Hooks.OnFunctionCall(s.ctx, call)
			if err != nil {
				s.logger.Warn("function_call_failed",
					slog.String("call_id", call.CallID),
					slog.String("name", call.Name),
					slog.String("error", err.Error()))
				return
			}
			if result.Output == "" {
				continue
			}
			reply, err := s.provider.BuildFunctionCallReplyMessage(call, result.Output)
			if err != nil {
				s.logger.Warn("function_reply_build_failed", slog.String("error", err.Error()))
				continue
			}
			if err := s.transport.Send(reply); err != nil {
				s.logger.Warn("provider_send_failed", slog.String("error", err.Error()))
			}
		}
		if trigger, ok := s.provider.BuildTriggerResponseMessage(); ok {
			if err := s.transport.Send(trigger); err != nil {
				s.logger.Warn("provider_send_failed", slog.String("error", err.Error()))
			}
		}
		return
	}

	round := s.incrementRound()
	s.sendToClient(func() (string, error) {
		return s.client.BuildTurnCompletedMessage(round)
	})
	policy := s.opts.IdleFollowUp
	if policy != nil && round > policy.SkipRounds {
		message := policy.Message
		s.timers.StartTimer(s.id, policy.Timeout, func() {
			if err := s.sendText(message); err != nil {
				s.logger.Warn("idle_followup_failed", slog.String("error", err.Error()))
			}
		})
	}
}

// handleProviderError always notifies the client; a critical error
// additionally tears the session down. The terminating guard keeps the
// cascade (critical error, disconnect, closed transition) from notifying
// twice.
func (s *session) handleProviderError(code, message string, critical bool) {
	if !critical {
		s.sendToClient(func() (string, error) {
			return s.client.BuildErrorMessage(code, message)
		})
		return
	}
	if !s.terminating.CompareAndSwap(false, true) {
		return
	}
	s.logger.Error("provider_critical_error",
		slog.String("code", code),
		slog.String("message", message))
	s.sendToClient(func() (string, error) {
		return s.client.BuildErrorMessage(code, message)
	})
	s.cancel()
	if err := s.transport.Disconnect(); err != nil {
		s.logger.Warn("provider_disconnect_failed", slog.String("error", err.Error()))
	}
}

func (s *session) onTransportStateChange(state transport.State, reason string) {
	if !s.started.Load() {
		return
	}
	if state != transport.StateClosed && state != transport.StateAborted {
		return
	}
	s.handleProviderError("ConnectionLost", reason, true)
}

func (s *session) onTransportError(err error) {
	if !s.started.Load() {
		return
	}
	s.handleProviderError("ProviderClientError", err.Error(), true)
}

// runCleanup finishes the session exactly once regardless of which path
// ended it.
func (s *session) runCleanup() {
	s.cleanupOnce.Do(func() {
		s.timers.StopTimer(s.id)
		s.terminating.Store(true)
		if s.transport.State() == transport.StateOpen {
			if err := s.transport.Disconnect(); err != nil {
				s.logger.Warn("provider_disconnect_failed", slog.String("error", err.Error()))
			}
		}
		if s.opts.EnableRecording {
			if pcm := s.takeRecording(); len(pcm) > 0 && s.opts.Hooks.OnRecordingComplete != nil {
				wav := audio.EncodeWAV(pcm, audio.RecordingSampleRate)
				s.opts.Hooks.OnRecordingComplete(s.id, wav)
			}
		}
		if s.opts.Hooks.OnTranscriptions != nil {
			s.opts.Hooks.OnTranscriptions(s.id, s.takeTranscripts())
		}
		if s.opts.Hooks.OnSessionEnded != nil {
			s.opts.Hooks.OnSessionEnded(s.id)
		}
		s.logger.Info("session_ended")
	})
}

// convertAudio transcodes between the client and provider codecs, routing
// through PCM16 and resampling when the codec families differ.
func convertAudio(payload []byte, from, to audio.Codec) ([]byte, error) {
	if from == to {
		return payload, nil
	}
	pcm, err := audio.Convert(payload, from, audio.CodecPCM16)
	if err != nil {
		return nil, err
	}
	pcm, err = audio.Resample(pcm, audio.GetSampleRate(from), audio.GetSampleRate(to))
	if err != nil {
		return nil, err
	}
	return audio.Convert(pcm, audio.CodecPCM16, to)
}
