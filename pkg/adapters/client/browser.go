package client

import (
	"encoding/base64"
	"encoding/json"

	"github.com/sj-distributor/SmartTalk-sub000/pkg/audio"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/errorsx"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/events"
)

// BrowserAdapter speaks the browser voice session envelope: JSON messages
// with base64 PCM16 audio, plus text and image input kinds.
type BrowserAdapter struct{}

func NewBrowserAdapter() *BrowserAdapter { return &BrowserAdapter{} }

type browserFrame struct {
	Type    string `json:"type"`
	Payload string `json:"payload,omitempty"`
	MIME    string `json:"mime,omitempty"`
	Text    string `json:"text,omitempty"`
}

func (a *BrowserAdapter) NativeAudioCodec() audio.Codec { return audio.CodecPCM16 }

func (a *BrowserAdapter) ParseMessage(raw string) (events.ClientMessage, error) {
	var frame browserFrame
	if err := json.Unmarshal([]byte(raw), &frame); err != nil {
		return events.ClientMessage{}, errorsx.Wrap(err, errorsx.ReasonAdapterParse)
	}
	switch frame.Type {
	case "audio":
		payload, err := base64.StdEncoding.DecodeString(frame.Payload)
		if err != nil {
			return events.ClientMessage{}, errorsx.Wrap(err, errorsx.ReasonAdapterParse)
		}
		return events.ClientMessage{Kind: events.ClientAudio, Audio: payload}, nil
	case "image":
		payload, err := base64.StdEncoding.DecodeString(frame.Payload)
		if err != nil {
			return events.ClientMessage{}, errorsx.Wrap(err, errorsx.ReasonAdapterParse)
		}
		return events.ClientMessage{Kind: events.ClientImage, Audio: payload, MIME: frame.MIME}, nil
	case "text":
		return events.ClientMessage{Kind: events.ClientText, Text: frame.Text}, nil
	default:
		return events.ClientMessage{Kind: events.ClientUnknown}, nil
	}
}

func (a *BrowserAdapter) BuildAudioDeltaMessage(data []byte) (string, error) {
	return marshalFrame(map[string]any{
		"type":    "audio_delta",
		"payload": base64.StdEncoding.EncodeToString(data),
	})
}

func (a *BrowserAdapter) BuildSpeechDetectedMessage() (string, error) {
	return marshalFrame(map[string]any{"type": "speech_detected"})
}

func (a *BrowserAdapter) BuildTurnCompletedMessage(round int) (string, error) {
	return marshalFrame(map[string]any{
		"type":  "turn_completed",
		"round": round,
	})
}

func (a *BrowserAdapter) BuildTranscriptionMessage(speaker events.Speaker, text string, final bool) (string, error) {
	return marshalFrame(map[string]any{
		"type":    "transcription",
		"speaker": string(speaker),
		"text":    text,
		"final":   final,
	})
}

func (a *BrowserAdapter) BuildErrorMessage(code, message string) (string, error) {
	return marshalFrame(map[string]any{
		"type":    "error",
		"code":    code,
		"message": message,
	})
}
