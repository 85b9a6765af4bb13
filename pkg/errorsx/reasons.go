package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonConfigMissing ReasonCode = "config_missing"

	ReasonProviderDial     ReasonCode = "provider_dial"
	ReasonProviderNotOpen  ReasonCode = "provider_not_open"
	ReasonProviderSend     ReasonCode = "provider_send"
	ReasonProviderCritical ReasonCode = "provider_critical"

	ReasonClientReceive ReasonCode = "client_receive"
	ReasonClientSend    ReasonCode = "client_send"

	ReasonAdapterParse         ReasonCode = "adapter_parse"
	ReasonAdapterNotRegistered ReasonCode = "adapter_not_registered"

	ReasonFunctionCall ReasonCode = "function_call"

	ReasonAudioConvert ReasonCode = "audio_convert"
)
