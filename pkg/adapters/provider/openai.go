package provider

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/sj-distributor/SmartTalk-sub000/pkg/audio"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/errorsx"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/events"
)

// OpenAIAdapter speaks the OpenAI Realtime API wire protocol. It mirrors the
// client's native codec, so telephony legs stream G.711 straight through.
type OpenAIAdapter struct {
	APIKey string
}

// NewOpenAIAdapter creates an adapter authenticated with the given API key.
func NewOpenAIAdapter(apiKey string) *OpenAIAdapter {
	return &OpenAIAdapter{APIKey: apiKey}
}

func (a *OpenAIAdapter) GetHeaders(region string) http.Header {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+a.APIKey)
	headers.Set("OpenAI-Beta", "realtime=v1")
	return headers
}

func (a *OpenAIAdapter) GetPreferredCodec(clientCodec audio.Codec) audio.Codec {
	return clientCodec
}

func openAIAudioFormat(codec audio.Codec) string {
	switch codec {
	case audio.CodecULaw:
		return "g711_ulaw"
	case audio.CodecALaw:
		return "g711_alaw"
	default:
		return "pcm16"
	}
}

func (a *OpenAIAdapter) BuildSessionConfig(params SessionParams, codec audio.Codec) (string, error) {
	format := openAIAudioFormat(codec)
	session := map[string]any{
		"modalities":          []string{"text", "audio"},
		"instructions":        params.Prompt,
		"voice":               params.Voice,
		"input_audio_format":  format,
		"output_audio_format": format,
		"input_audio_transcription": map[string]any{
			"model": "whisper-1",
		},
		"turn_detection": map[string]any{
			"type": "server_vad",
		},
	}
	if params.Model != "" {
		session["model"] = params.Model
	}
	if params.Temperature > 0 {
		session["temperature"] = params.Temperature
	}
	if len(params.Tools) > 0 {
		session["tools"] = params.Tools
		session["tool_choice"] = "auto"
	}
	return marshalMessage(map[string]any{
		"type":    "session.update",
		"session": session,
	})
}

func (a *OpenAIAdapter) BuildAudioAppendMessage(data []byte, media MediaKind) (string, error) {
	if media == MediaImage {
		return marshalMessage(map[string]any{
			"type": "conversation.item.create",
			"item": map[string]any{
				"type": "message",
				"role": "user",
				"content": []map[string]any{
					{
						"type":      "input_image",
						"image_url": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data),
					},
				},
			},
		})
	}
	return marshalMessage(map[string]any{
		"type":  "input_audio_buffer.append",
		"audio": base64.StdEncoding.EncodeToString(data),
	})
}

func (a *OpenAIAdapter) BuildTextUserMessage(text, sessionID string) (string, error) {
	return marshalMessage(map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type": "message",
			"role": "user",
			"content": []map[string]any{
				{"type": "input_text", "text": text},
			},
		},
	})
}

func (a *OpenAIAdapter) BuildFunctionCallReplyMessage(call events.FunctionCallRequest, output string) (string, error) {
	return marshalMessage(map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type":    "function_call_output",
			"call_id": call.CallID,
			"output":  output,
		},
	})
}

func (a *OpenAIAdapter) BuildTriggerResponseMessage() (string, bool) {
	msg, err := marshalMessage(map[string]any{"type": "response.create"})
	if err != nil {
		return "", false
	}
	return msg, true
}

type openAIEvent struct {
	Type       string `json:"type"`
	Delta      string `json:"delta"`
	Transcript string `json:"transcript"`
	Response   struct {
		Status string `json:"status"`
		Output []struct {
			Type      string `json:"type"`
			CallID    string `json:"call_id"`
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		} `json:"output"`
	} `json:"response"`
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *OpenAIAdapter) ParseMessage(raw string) (events.ProviderEvent, error) {
	var evt openAIEvent
	if err := json.Unmarshal([]byte(raw), &evt); err != nil {
		return events.ProviderEvent{}, errorsx.Wrap(err, errorsx.ReasonAdapterParse)
	}
	switch evt.Type {
	case "session.created", "session.updated":
		return events.ProviderEvent{Kind: events.ProviderSessionInitialized}, nil
	case "response.audio.delta", "response.output_audio.delta":
		payload, err := base64.StdEncoding.DecodeString(evt.Delta)
		if err != nil {
			return events.ProviderEvent{}, errorsx.Wrap(err, errorsx.ReasonAdapterParse)
		}
		return events.ProviderEvent{Kind: events.ProviderAudioDelta, Audio: payload}, nil
	case "input_audio_buffer.speech_started":
		return events.ProviderEvent{Kind: events.ProviderSpeechDetected}, nil
	case "conversation.item.input_audio_transcription.delta":
		return events.ProviderEvent{
			Kind:    events.ProviderInputTranscriptionPartial,
			Speaker: events.SpeakerUser,
			Text:    evt.Delta,
		}, nil
	case "conversation.item.input_audio_transcription.completed":
		return events.ProviderEvent{
			Kind:    events.ProviderInputTranscriptionCompleted,
			Speaker: events.SpeakerUser,
			Text:    evt.Transcript,
		}, nil
	case "response.audio_transcript.delta":
		return events.ProviderEvent{
			Kind:    events.ProviderOutputTranscriptionPartial,
			Speaker: events.SpeakerAssistant,
			Text:    evt.Delta,
		}, nil
	case "response.audio_transcript.done":
		return events.ProviderEvent{
			Kind:    events.ProviderOutputTranscriptionCompleted,
			Speaker: events.SpeakerAssistant,
			Text:    evt.Transcript,
		}, nil
	case "response.done":
		var calls []events.FunctionCallRequest
		for _, item := range evt.Response.Output {
			if item.Type != "function_call" {
				continue
			}
			calls = append(calls, events.FunctionCallRequest{
				CallID:    item.CallID,
				Name:      item.Name,
				Arguments: item.Arguments,
			})
		}
		return events.ProviderEvent{Kind: events.ProviderTurnCompleted, FunctionCalls: calls}, nil
	case "error":
		critical := evt.Error.Type == "server_error" || evt.Error.Code == "session_expired"
		return events.ProviderEvent{
			Kind:     events.ProviderError,
			Code:     evt.Error.Code,
			Message:  evt.Error.Message,
			Critical: critical,
		}, nil
	default:
		return events.ProviderEvent{Kind: events.ProviderIgnored}, nil
	}
}

func marshalMessage(payload map[string]any) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
