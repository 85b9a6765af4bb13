package client

import (
	"github.com/sj-distributor/SmartTalk-sub000/pkg/audio"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/events"
)

// Adapter translates between the normalized session model and one client
// transport kind (telephony call leg, browser, generic default).
// Implementations are stateless and shared across sessions; outbound client
// wire messages are produced exclusively by these builders.
type Adapter interface {
	// NativeAudioCodec is the codec the client leg speaks on the wire.
	NativeAudioCodec() audio.Codec

	// ParseMessage classifies one raw inbound frame.
	ParseMessage(raw string) (events.ClientMessage, error)

	BuildAudioDeltaMessage(data []byte) (string, error)
	BuildSpeechDetectedMessage() (string, error)
	BuildTurnCompletedMessage(round int) (string, error)
	BuildTranscriptionMessage(speaker events.Speaker, text string, final bool) (string, error)
	BuildErrorMessage(code, message string) (string, error)
}
