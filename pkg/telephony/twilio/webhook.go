package twilio

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"

	twilioclient "github.com/twilio/twilio-go/client"
)

// Webhook answers Twilio voice callbacks with TwiML that connects the call
// to the gateway's media stream endpoint.
type Webhook struct {
	cfg    Config
	logger *slog.Logger
}

// NewWebhook creates a webhook handler over the given configuration.
func NewWebhook(cfg Config, logger *slog.Logger) *Webhook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhook{cfg: cfg.withDefaults(), logger: logger}
}

// HandleVoice serves the voice webhook. Requests carrying an invalid Twilio
// signature are rejected when an auth token is configured.
func (wh *Webhook) HandleVoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if wh.cfg.AuthToken != "" && !wh.validateRequest(r) {
		wh.logger.Warn("twilio_invalid_signature", slog.String("path", r.URL.Path))
		w.WriteHeader(http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write([]byte(wh.streamTwiml(r)))
}

func (wh *Webhook) streamTwiml(r *http.Request) string {
	wsURL := wh.streamURL(r)
	greeting := strings.TrimSpace(wh.cfg.VoiceGreeting)
	if greeting != "" {
		return `<Response><Say>` + xmlEscape(greeting) + `</Say><Connect><Stream url="` + wsURL + `"/></Connect></Response>`
	}
	return `<Response><Connect><Stream url="` + wsURL + `"/></Connect></Response>`
}

func (wh *Webhook) streamURL(r *http.Request) string {
	if wh.cfg.PublicURL != "" {
		return "wss://" + normalizePublicURL(wh.cfg.PublicURL) + wh.cfg.StreamPath
	}
	host := r.Host
	if host == "" {
		host = strings.TrimPrefix(wh.cfg.ServerAddr, ":")
	}
	return "wss://" + host + wh.cfg.StreamPath
}

func (wh *Webhook) validateRequest(r *http.Request) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return false
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	validator := twilioclient.NewRequestValidator(wh.cfg.AuthToken)
	return validator.ValidateBody(wh.requestURL(r), body, signature)
}

func (wh *Webhook) requestURL(r *http.Request) string {
	if wh.cfg.PublicURL != "" {
		return strings.TrimRight(wh.cfg.PublicURL, "/") + r.URL.RequestURI()
	}
	scheme := r.URL.Scheme
	if scheme == "" {
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		} else {
			scheme = "https"
		}
	}
	host := r.Host
	if host == "" {
		host = strings.TrimPrefix(wh.cfg.ServerAddr, ":")
	}
	return scheme + "://" + host + r.URL.RequestURI()
}

func xmlEscape(in string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(in)
}
