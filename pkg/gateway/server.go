package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sj-distributor/SmartTalk-sub000/pkg/adapters"
	clientadapter "github.com/sj-distributor/SmartTalk-sub000/pkg/adapters/client"
	provideradapter "github.com/sj-distributor/SmartTalk-sub000/pkg/adapters/provider"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/clientio"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/configutil"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/errorsx"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/events"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/logging"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/metrics"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/redact"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/resilience"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/session"
	telephony "github.com/sj-distributor/SmartTalk-sub000/pkg/telephony/twilio"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/timers"
)

// FunctionHandler executes one provider-requested function call.
type FunctionHandler func(ctx context.Context, call events.FunctionCallRequest) (events.FunctionCallResult, error)

// Gateway exposes the session orchestrator over HTTP: a Twilio media stream
// endpoint, a browser WebSocket endpoint, and the Twilio voice webhook.
type Gateway struct {
	cfg       Config
	logger    *slog.Logger
	orch      *session.Orchestrator
	provider  ProviderSettings
	functions FunctionHandler

	retry   resilience.RetryPolicy
	breaker *resilience.CircuitBreaker

	observer       metrics.Observer
	asyncObserver  *metrics.AsyncObserver
	metricsFile    *os.File
	server         *http.Server
	serverCtx      context.Context
	upgrader       websocket.Upgrader
	activeSessions sync.WaitGroup
}

// New builds a gateway from configuration. The functions handler may be nil
// when the deployment defines no tools.
func New(cfg Config, functions FunctionHandler) (*Gateway, error) {
	logger := logging.NewComponentLogger(slog.Default(), "gateway")

	raw, ok := cfg.Providers[strings.ToLower(cfg.Model.Provider)]
	if !ok {
		return nil, errorsx.New(errorsx.ReasonConfigMissing, "no settings for provider: %s", cfg.Model.Provider)
	}
	settings, err := DecodeProviderSettings(raw.Settings)
	if err != nil {
		return nil, err
	}
	if err := configutil.RequireString(settings.ServiceURL,
		fmt.Sprintf("providers.%s.settings.service_url", cfg.Model.Provider)); err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonConfigMissing)
	}

	switcher := adapters.NewSwitcher()
	for id, entry := range cfg.Providers {
		if err := configutil.ValidateSettings(entry.Settings, configutil.Schema{
			Required: []string{"api_key", "service_url"},
			Optional: []string{"region"},
		}); err != nil {
			return nil, errorsx.Wrap(fmt.Errorf("providers.%s.settings: %w", id, err), errorsx.ReasonConfigMissing)
		}
		decoded, err := DecodeProviderSettings(entry.Settings)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(id) {
		case "openai":
			switcher.RegisterProvider(id, provideradapter.NewOpenAIAdapter(decoded.APIKey), nil)
		case "azure":
			switcher.RegisterProvider(id, provideradapter.NewAzureAdapter(decoded.APIKey), nil)
		default:
			return nil, errorsx.New(errorsx.ReasonAdapterNotRegistered, "unknown provider: %s", id)
		}
	}
	switcher.RegisterClient("twilio", clientadapter.NewTwilioAdapter())
	switcher.RegisterClient("browser", clientadapter.NewBrowserAdapter())

	redact.SetEnabled(cfg.Privacy.RedactPII)

	g := &Gateway{
		cfg:       cfg,
		logger:    logger,
		orch:      session.NewOrchestrator(switcher, timers.NewInactivityTimerManager()),
		provider:  settings,
		functions: functions,
		retry: resilience.NewRetryPolicy(cfg.Resilience.DialRetries,
			time.Duration(cfg.Resilience.DialBackoffMS)*time.Millisecond),
		breaker: resilience.NewCircuitBreaker(cfg.Resilience.BreakerThreshold,
			time.Duration(cfg.Resilience.BreakerCooldownMS)*time.Millisecond),
		observer: metrics.NoopObserver{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	if cfg.Metrics.Enabled {
		if err := g.openMetrics(); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Gateway) openMetrics() error {
	writer := os.Stdout
	if g.cfg.Metrics.Path != "" {
		f, err := os.OpenFile(g.cfg.Metrics.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		g.metricsFile = f
		writer = f
	}
	g.asyncObserver = metrics.NewAsyncObserver(metrics.NewJSONLObserver(writer), 256)
	g.observer = g.asyncObserver
	return nil
}

// Start serves until ctx is cancelled.
func (g *Gateway) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	g.serverCtx = ctx

	mux := http.NewServeMux()
	mux.HandleFunc(g.cfg.Server.StreamPath, func(w http.ResponseWriter, r *http.Request) {
		g.handleSession(w, r, "twilio")
	})
	mux.HandleFunc(g.cfg.Server.BrowserPath, func(w http.ResponseWriter, r *http.Request) {
		g.handleSession(w, r, "browser")
	})
	if g.cfg.Twilio.AccountSID != "" {
		webhook := telephony.NewWebhook(g.cfg.Twilio, g.logger)
		mux.HandleFunc(g.voicePath(), webhook.HandleVoice)
	}
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	g.server = &http.Server{
		Addr:              g.cfg.Server.Addr,
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           mux,
	}
	go func() {
		<-ctx.Done()
		_ = g.server.Close()
	}()
	go func() {
		if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway_server_error", slog.String("error", err.Error()))
		}
	}()
	g.logger.Info("gateway_started",
		slog.String("addr", g.cfg.Server.Addr),
		slog.String("stream_path", g.cfg.Server.StreamPath),
		slog.String("browser_path", g.cfg.Server.BrowserPath))
	return nil
}

func (g *Gateway) voicePath() string {
	if g.cfg.Twilio.VoicePath != "" {
		return g.cfg.Twilio.VoicePath
	}
	return "/voice"
}

// Stop closes the listener and drains active sessions.
func (g *Gateway) Stop() error {
	if g.server != nil {
		_ = g.server.Close()
	}
	err := g.Drain()
	if g.asyncObserver != nil {
		g.asyncObserver.Close()
	}
	if g.metricsFile != nil {
		_ = g.metricsFile.Close()
	}
	return err
}

// Drain waits for all in-flight sessions to finish.
func (g *Gateway) Drain() error {
	g.activeSessions.Wait()
	return nil
}

// handleSession upgrades one client connection and runs its session to
// completion on the handler goroutine.
func (g *Gateway) handleSession(w http.ResponseWriter, r *http.Request, kind string) {
	if !g.breaker.Allow() {
		http.Error(w, "provider unavailable", http.StatusServiceUnavailable)
		return
	}
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("client_upgrade_failed", slog.String("error", err.Error()))
		return
	}
	socket := clientio.NewWebSocket(conn)
	defer socket.Close()

	g.activeSessions.Add(1)
	defer g.activeSessions.Done()

	startedAt := time.Now()
	g.observer.RecordEvent(metrics.MetricsEvent{
		Name: "session_started",
		Time: startedAt,
		Tags: map[string]string{"client_kind": kind, "provider": g.cfg.Model.Provider},
	})

	opts := g.sessionOptions(socket, kind, startedAt)
	if err := g.runWithRetry(opts); err != nil {
		g.logger.Error("session_failed",
			slog.String("client_kind", kind),
			slog.String("reason_code", string(errorsx.Reason(err))),
			slog.String("error", err.Error()))
	}
}

func (g *Gateway) sessionOptions(socket clientio.Socket, kind string, startedAt time.Time) session.Options {
	return session.Options{
		ClientConfig: &session.ClientConfig{Socket: socket, Kind: kind},
		ModelConfig: &session.ModelConfig{
			Provider:    g.cfg.Model.Provider,
			ServiceUrl:  g.provider.ServiceURL,
			Voice:       g.cfg.Model.Voice,
			Model:       g.cfg.Model.Model,
			Prompt:      g.cfg.Model.Prompt,
			Temperature: g.cfg.Model.Temperature,
			Tools:       g.cfg.Model.Tools,
		},
		ConnectionProfile: &session.ConnectionProfile{ID: "default"},
		Region:            g.provider.Region,
		EnableRecording:   g.cfg.Recording.Enabled,
		IdleFollowUp:      g.cfg.idlePolicy(),
		Hooks: session.Hooks{
			OnFunctionCall:      g.functions,
			OnTranscriptions:    g.logTranscripts,
			OnRecordingComplete: g.saveRecording,
			OnSessionEnded: func(sessionID string) {
				g.observer.RecordEvent(metrics.MetricsEvent{
					Name:  "session_ended",
					Time:  time.Now(),
					Value: time.Since(startedAt).Seconds(),
					Tags:  map[string]string{"session_id": sessionID, "client_kind": kind},
				})
			},
		},
	}
}

// runWithRetry re-dials on transient connect failures and trips the breaker
// when the provider keeps refusing. Errors from a session that already ran
// are never retried.
func (g *Gateway) runWithRetry(opts session.Options) error {
	var permanent error
	err := g.retry.Do(func() error {
		connErr := g.orch.Connect(g.serverCtx, opts)
		switch {
		case connErr == nil:
			g.breaker.OnSuccess()
			return nil
		case errorsx.HasReason(connErr, errorsx.ReasonProviderDial):
			g.breaker.OnFailure()
			return connErr
		default:
			permanent = connErr
			return nil
		}
	})
	if err != nil {
		return err
	}
	return permanent
}

func (g *Gateway) logTranscripts(sessionID string, entries []events.TranscriptEntry) {
	for _, entry := range entries {
		g.logger.Info("transcript",
			slog.String("session_id", sessionID),
			slog.String("speaker", string(entry.Speaker)),
			slog.String("text", redact.Text(entry.Text)))
	}
	g.observer.RecordEvent(metrics.MetricsEvent{
		Name:  "transcript_entries",
		Time:  time.Now(),
		Value: float64(len(entries)),
		Tags:  map[string]string{"session_id": sessionID},
	})
}

func (g *Gateway) saveRecording(sessionID string, wav []byte) {
	dir := g.cfg.Recording.ArtifactsDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		g.logger.Warn("recording_dir_failed", slog.String("error", err.Error()))
		return
	}
	path := filepath.Join(dir, sessionID+".wav")
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		g.logger.Warn("recording_write_failed", slog.String("error", err.Error()))
		return
	}
	g.observer.RecordEvent(metrics.MetricsEvent{
		Name:  "recording_bytes",
		Time:  time.Now(),
		Value: float64(len(wav)),
		Tags:  map[string]string{"session_id": sessionID},
	})
	g.logger.Info("recording_saved",
		slog.String("session_id", sessionID),
		slog.String("path", path))
}
