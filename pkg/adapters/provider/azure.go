package provider

import (
	"net/http"

	"github.com/sj-distributor/SmartTalk-sub000/pkg/audio"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/events"
)

// AzureAdapter speaks the Azure OpenAI Realtime wire protocol. The envelope
// is the same as OpenAI's; authentication and codec policy differ: Azure
// authenticates with an api-key header and always streams wideband PCM16,
// regardless of the client leg's native codec.
type AzureAdapter struct {
	inner  OpenAIAdapter
	APIKey string
}

// NewAzureAdapter creates an adapter authenticated with the given API key.
func NewAzureAdapter(apiKey string) *AzureAdapter {
	return &AzureAdapter{APIKey: apiKey}
}

func (a *AzureAdapter) GetHeaders(region string) http.Header {
	headers := http.Header{}
	headers.Set("api-key", a.APIKey)
	if region != "" {
		headers.Set("x-ms-region", region)
	}
	return headers
}

func (a *AzureAdapter) GetPreferredCodec(clientCodec audio.Codec) audio.Codec {
	return audio.CodecPCM16
}

func (a *AzureAdapter) BuildSessionConfig(params SessionParams, codec audio.Codec) (string, error) {
	return a.inner.BuildSessionConfig(params, codec)
}

func (a *AzureAdapter) BuildAudioAppendMessage(data []byte, media MediaKind) (string, error) {
	return a.inner.BuildAudioAppendMessage(data, media)
}

func (a *AzureAdapter) BuildTextUserMessage(text, sessionID string) (string, error) {
	return a.inner.BuildTextUserMessage(text, sessionID)
}

func (a *AzureAdapter) BuildFunctionCallReplyMessage(call events.FunctionCallRequest, output string) (string, error) {
	return a.inner.BuildFunctionCallReplyMessage(call, output)
}

func (a *AzureAdapter) BuildTriggerResponseMessage() (string, bool) {
	return a.inner.BuildTriggerResponseMessage()
}

func (a *AzureAdapter) ParseMessage(raw string) (events.ProviderEvent, error) {
	return a.inner.ParseMessage(raw)
}
