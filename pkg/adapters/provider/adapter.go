package provider

import (
	"net/http"

	"github.com/sj-distributor/SmartTalk-sub000/pkg/audio"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/events"
)

// MediaKind distinguishes what a forwarded append payload carries. Image
// payloads travel through the same append path as audio; the adapter decides
// the wire form.
type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaImage MediaKind = "image"
)

// SessionParams is the provider-facing slice of a session's configuration.
type SessionParams struct {
	Model       string
	Voice       string
	Prompt      string
	Temperature float64
	Tools       []map[string]any
}

// Adapter translates between the normalized session model and one provider's
// wire protocol. Implementations are stateless and shared across sessions.
type Adapter interface {
	// GetHeaders returns the HTTP headers for the provider dial.
	GetHeaders(region string) http.Header

	// GetPreferredCodec reports the codec the provider will actually use.
	// Some providers mirror the client's native codec, others fix one codec
	// unconditionally.
	GetPreferredCodec(clientCodec audio.Codec) audio.Codec

	// BuildSessionConfig produces the first outbound message of a session.
	BuildSessionConfig(params SessionParams, codec audio.Codec) (string, error)

	// BuildAudioAppendMessage wraps a media payload for the provider.
	BuildAudioAppendMessage(data []byte, media MediaKind) (string, error)

	// BuildTextUserMessage wraps a user text turn.
	BuildTextUserMessage(text, sessionID string) (string, error)

	// BuildFunctionCallReplyMessage wraps one function call result.
	BuildFunctionCallReplyMessage(call events.FunctionCallRequest, output string) (string, error)

	// BuildTriggerResponseMessage asks the provider to produce a response.
	// Providers that auto-trigger on a text turn return ok=false.
	BuildTriggerResponseMessage() (msg string, ok bool)

	// ParseMessage normalizes one raw provider message.
	ParseMessage(raw string) (events.ProviderEvent, error)
}
