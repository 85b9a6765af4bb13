package session

import (
	"context"
	"time"

	"github.com/sj-distributor/SmartTalk-sub000/pkg/audio"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/clientio"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/errorsx"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/events"
)

// ClientConfig selects and carries the inbound client leg.
type ClientConfig struct {
	Socket clientio.Socket
	Kind   string
}

// ModelConfig selects the provider backend and its conversational profile.
type ModelConfig struct {
	Provider    string
	ServiceUrl  string
	Voice       string
	Model       string
	Prompt      string
	Temperature float64
	Tools       []map[string]any
}

// ConnectionProfile identifies the routing profile for the provider dial.
type ConnectionProfile struct {
	ID string
}

// IdleFollowUpPolicy schedules a follow-up prompt after silence. The timer
// only starts once the round counter exceeds SkipRounds.
type IdleFollowUpPolicy struct {
	Timeout    time.Duration
	Message    string
	SkipRounds int
}

// Hooks are the optional application lifecycle callbacks of one session.
type Hooks struct {
	OnSessionReady      func(sendText func(text string) error)
	OnSessionEnded      func(sessionID string)
	OnTranscriptions    func(sessionID string, entries []events.TranscriptEntry)
	OnFunctionCall      func(ctx context.Context, call events.FunctionCallRequest) (events.FunctionCallResult, error)
	OnRecordingComplete func(sessionID string, wav []byte)
}

// Options is the immutable per-call configuration of one session.
type Options struct {
	ClientConfig      *ClientConfig
	ModelConfig       *ModelConfig
	ConnectionProfile *ConnectionProfile
	Region            string
	CodecHint         audio.Codec
	EnableRecording   bool
	IdleFollowUp      *IdleFollowUpPolicy
	Hooks             Hooks
}

// Validate fails fast on absent required configuration, before any socket
// activity, naming the missing field.
func (o *Options) Validate() error {
	if o == nil {
		return missing("Options")
	}
	if o.ClientConfig == nil {
		return missing("ClientConfig")
	}
	if o.ClientConfig.Socket == nil {
		return missing("ClientConfig.Socket")
	}
	if o.ModelConfig == nil {
		return missing("ModelConfig")
	}
	if o.ModelConfig.Provider == "" {
		return missing("ModelConfig.Provider")
	}
	if o.ModelConfig.ServiceUrl == "" {
		return missing("ModelConfig.ServiceUrl")
	}
	if o.ConnectionProfile == nil {
		return missing("ConnectionProfile")
	}
	return nil
}

func missing(field string) error {
	return errorsx.New(errorsx.ReasonConfigMissing, "missing required configuration: %s", field)
}
