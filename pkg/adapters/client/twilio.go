package client

import (
	"encoding/base64"
	"encoding/json"

	"github.com/sj-distributor/SmartTalk-sub000/pkg/audio"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/errorsx"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/events"
)

// TwilioAdapter speaks the Twilio Media Streams envelope: base64 mu-law
// media frames at 8 kHz. Text and image input do not exist on a call leg and
// classify as unknown.
type TwilioAdapter struct{}

func NewTwilioAdapter() *TwilioAdapter { return &TwilioAdapter{} }

type twilioFrame struct {
	Event string `json:"event"`
	Media *struct {
		Payload string `json:"payload"`
	} `json:"media,omitempty"`
	Mark *struct {
		Name string `json:"name"`
	} `json:"mark,omitempty"`
}

func (a *TwilioAdapter) NativeAudioCodec() audio.Codec { return audio.CodecULaw }

func (a *TwilioAdapter) ParseMessage(raw string) (events.ClientMessage, error) {
	var frame twilioFrame
	if err := json.Unmarshal([]byte(raw), &frame); err != nil {
		return events.ClientMessage{}, errorsx.Wrap(err, errorsx.ReasonAdapterParse)
	}
	if frame.Event == "media" && frame.Media != nil {
		payload, err := base64.StdEncoding.DecodeString(frame.Media.Payload)
		if err != nil {
			return events.ClientMessage{}, errorsx.Wrap(err, errorsx.ReasonAdapterParse)
		}
		return events.ClientMessage{Kind: events.ClientAudio, Audio: payload}, nil
	}
	return events.ClientMessage{Kind: events.ClientUnknown}, nil
}

func (a *TwilioAdapter) BuildAudioDeltaMessage(data []byte) (string, error) {
	return marshalFrame(map[string]any{
		"event": "media",
		"media": map[string]any{
			"payload": base64.StdEncoding.EncodeToString(data),
		},
	})
}

// BuildSpeechDetectedMessage clears any audio Twilio is still playing back,
// so a barge-in cuts the assistant off immediately.
func (a *TwilioAdapter) BuildSpeechDetectedMessage() (string, error) {
	return marshalFrame(map[string]any{"event": "clear"})
}

func (a *TwilioAdapter) BuildTurnCompletedMessage(round int) (string, error) {
	return marshalFrame(map[string]any{
		"event": "mark",
		"mark": map[string]any{
			"name": "turn_completed",
		},
	})
}

func (a *TwilioAdapter) BuildTranscriptionMessage(speaker events.Speaker, text string, final bool) (string, error) {
	return marshalFrame(map[string]any{
		"event": "transcription",
		"transcription": map[string]any{
			"speaker": string(speaker),
			"text":    text,
			"final":   final,
		},
	})
}

func (a *TwilioAdapter) BuildErrorMessage(code, message string) (string, error) {
	return marshalFrame(map[string]any{
		"event": "error",
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

func marshalFrame(payload map[string]any) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
