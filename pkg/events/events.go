package events

// ProviderEventKind tags a normalized event parsed from a provider message.
type ProviderEventKind string

const (
	ProviderSessionInitialized           ProviderEventKind = "session_initialized"
	ProviderAudioDelta                   ProviderEventKind = "audio_delta"
	ProviderSpeechDetected               ProviderEventKind = "speech_detected"
	ProviderInputTranscriptionPartial    ProviderEventKind = "input_transcription_partial"
	ProviderInputTranscriptionCompleted  ProviderEventKind = "input_transcription_completed"
	ProviderOutputTranscriptionPartial   ProviderEventKind = "output_transcription_partial"
	ProviderOutputTranscriptionCompleted ProviderEventKind = "output_transcription_completed"
	ProviderTurnCompleted                ProviderEventKind = "turn_completed"
	ProviderError                        ProviderEventKind = "error"
	ProviderIgnored                      ProviderEventKind = "ignored"
)

// Speaker tags which side of the call produced a transcript.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// ProviderEvent is the normalized form of one raw provider message. Kind
// selects which of the remaining fields carry data.
type ProviderEvent struct {
	Kind ProviderEventKind

	// audio delta payload, already base64-decoded
	Audio []byte

	// transcription fields
	Speaker Speaker
	Text    string

	// turn completion
	FunctionCalls []FunctionCallRequest

	// error fields
	Code     string
	Message  string
	Critical bool
}

// ClientMessageKind tags a normalized inbound client frame.
type ClientMessageKind string

const (
	ClientAudio   ClientMessageKind = "audio"
	ClientImage   ClientMessageKind = "image"
	ClientText    ClientMessageKind = "text"
	ClientUnknown ClientMessageKind = "unknown"
)

// ClientMessage is the normalized form of one raw client frame.
type ClientMessage struct {
	Kind  ClientMessageKind
	Audio []byte
	MIME  string
	Text  string
}

// FunctionCallRequest is a provider-requested application function call.
type FunctionCallRequest struct {
	CallID    string
	Name      string
	Arguments string
}

// FunctionCallResult carries the application's reply for one call. An empty
// output means no reply is sent back to the provider.
type FunctionCallResult struct {
	Output string
}

// TranscriptEntry is one completed, speaker-tagged transcript line.
type TranscriptEntry struct {
	Speaker Speaker
	Text    string
}
