package client

import (
	"github.com/sj-distributor/SmartTalk-sub000/pkg/audio"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/events"
)

// GenericAdapter is the fallback for unrecognized client kinds. It reuses the
// browser envelope but assumes a narrowband mu-law leg, which is what an
// unidentified telephony integration most likely speaks.
type GenericAdapter struct {
	BrowserAdapter
}

func NewGenericAdapter() *GenericAdapter { return &GenericAdapter{} }

func (a *GenericAdapter) NativeAudioCodec() audio.Codec { return audio.CodecULaw }

func (a *GenericAdapter) ParseMessage(raw string) (events.ClientMessage, error) {
	msg, err := a.BrowserAdapter.ParseMessage(raw)
	if err != nil {
		return msg, err
	}
	// images are not supported on the generic leg
	if msg.Kind == events.ClientImage {
		return events.ClientMessage{Kind: events.ClientUnknown}, nil
	}
	return msg, nil
}
