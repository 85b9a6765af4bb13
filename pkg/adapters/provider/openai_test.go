package provider

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sj-distributor/SmartTalk-sub000/pkg/audio"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/events"
)

func TestOpenAIHeaders(t *testing.T) {
	a := NewOpenAIAdapter("sk-test")
	headers := a.GetHeaders("")
	if got := headers.Get("Authorization"); got != "Bearer sk-test" {
		t.Fatalf("unexpected auth header: %s", got)
	}
	if headers.Get("OpenAI-Beta") == "" {
		t.Fatalf("expected realtime beta header")
	}
}

func TestOpenAIMirrorsClientCodec(t *testing.T) {
	a := NewOpenAIAdapter("sk-test")
	if got := a.GetPreferredCodec(audio.CodecULaw); got != audio.CodecULaw {
		t.Fatalf("expected ulaw, got %s", got)
	}
	if got := a.GetPreferredCodec(audio.CodecPCM16); got != audio.CodecPCM16 {
		t.Fatalf("expected pcm16, got %s", got)
	}
}

func TestOpenAISessionConfig(t *testing.T) {
	a := NewOpenAIAdapter("sk-test")
	msg, err := a.BuildSessionConfig(SessionParams{
		Model:       "gpt-realtime",
		Voice:       "marin",
		Prompt:      "be brief",
		Temperature: 0.7,
		Tools:       []map[string]any{{"type": "function", "name": "check_order_status"}},
	}, audio.CodecULaw)
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	var decoded struct {
		Type    string `json:"type"`
		Session struct {
			Voice        string           `json:"voice"`
			Instructions string           `json:"instructions"`
			InputFormat  string           `json:"input_audio_format"`
			OutputFormat string           `json:"output_audio_format"`
			Tools        []map[string]any `json:"tools"`
			ToolChoice   string           `json:"tool_choice"`
		} `json:"session"`
	}
	if err := json.Unmarshal([]byte(msg), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != "session.update" {
		t.Fatalf("expected session.update, got %s", decoded.Type)
	}
	if decoded.Session.InputFormat != "g711_ulaw" || decoded.Session.OutputFormat != "g711_ulaw" {
		t.Fatalf("expected g711_ulaw formats, got %s/%s", decoded.Session.InputFormat, decoded.Session.OutputFormat)
	}
	if decoded.Session.Voice != "marin" || decoded.Session.Instructions != "be brief" {
		t.Fatalf("unexpected session fields: %+v", decoded.Session)
	}
	if len(decoded.Session.Tools) != 1 || decoded.Session.ToolChoice != "auto" {
		t.Fatalf("tools not configured: %+v", decoded.Session)
	}
}

func TestOpenAIAudioAppend(t *testing.T) {
	a := NewOpenAIAdapter("sk-test")
	payload := []byte{1, 2, 3, 4}
	msg, err := a.BuildAudioAppendMessage(payload, MediaAudio)
	if err != nil {
		t.Fatalf("build append: %v", err)
	}
	var decoded struct {
		Type  string `json:"type"`
		Audio string `json:"audio"`
	}
	if err := json.Unmarshal([]byte(msg), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != "input_audio_buffer.append" {
		t.Fatalf("unexpected type: %s", decoded.Type)
	}
	if decoded.Audio != base64.StdEncoding.EncodeToString(payload) {
		t.Fatalf("payload not base64 encoded: %s", decoded.Audio)
	}
}

func TestOpenAIImageAppendBecomesConversationItem(t *testing.T) {
	a := NewOpenAIAdapter("sk-test")
	msg, err := a.BuildAudioAppendMessage([]byte{0xFF, 0xD8}, MediaImage)
	if err != nil {
		t.Fatalf("build image append: %v", err)
	}
	if !strings.Contains(msg, "conversation.item.create") || !strings.Contains(msg, "input_image") {
		t.Fatalf("unexpected image message: %s", msg)
	}
}

func TestOpenAIFunctionCallReply(t *testing.T) {
	a := NewOpenAIAdapter("sk-test")
	msg, err := a.BuildFunctionCallReplyMessage(events.FunctionCallRequest{CallID: "call_1", Name: "check_order_status"}, `{"status":"ready"}`)
	if err != nil {
		t.Fatalf("build reply: %v", err)
	}
	if !strings.Contains(msg, "function_call_output") || !strings.Contains(msg, "call_1") {
		t.Fatalf("unexpected reply: %s", msg)
	}
}

func TestOpenAIParseMessage(t *testing.T) {
	a := NewOpenAIAdapter("sk-test")

	cases := []struct {
		name string
		raw  string
		want events.ProviderEventKind
	}{
		{"session created", `{"type":"session.created"}`, events.ProviderSessionInitialized},
		{"session updated", `{"type":"session.updated"}`, events.ProviderSessionInitialized},
		{"speech started", `{"type":"input_audio_buffer.speech_started"}`, events.ProviderSpeechDetected},
		{"input partial", `{"type":"conversation.item.input_audio_transcription.delta","delta":"hel"}`, events.ProviderInputTranscriptionPartial},
		{"input completed", `{"type":"conversation.item.input_audio_transcription.completed","transcript":"hello"}`, events.ProviderInputTranscriptionCompleted},
		{"output partial", `{"type":"response.audio_transcript.delta","delta":"hi"}`, events.ProviderOutputTranscriptionPartial},
		{"output completed", `{"type":"response.audio_transcript.done","transcript":"hi there"}`, events.ProviderOutputTranscriptionCompleted},
		{"turn done", `{"type":"response.done","response":{"status":"completed"}}`, events.ProviderTurnCompleted},
		{"unknown ignored", `{"type":"rate_limits.updated"}`, events.ProviderIgnored},
	}
	for _, tc := range cases {
		evt, err := a.ParseMessage(tc.raw)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if evt.Kind != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, evt.Kind)
		}
	}
}

func TestOpenAIParseAudioDelta(t *testing.T) {
	a := NewOpenAIAdapter("sk-test")
	payload := []byte{10, 20, 30}
	raw := `{"type":"response.audio.delta","delta":"` + base64.StdEncoding.EncodeToString(payload) + `"}`
	evt, err := a.ParseMessage(raw)
	if err != nil {
		t.Fatalf("parse delta: %v", err)
	}
	if evt.Kind != events.ProviderAudioDelta || len(evt.Audio) != 3 || evt.Audio[1] != 20 {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestOpenAIParseFunctionCalls(t *testing.T) {
	a := NewOpenAIAdapter("sk-test")
	raw := `{"type":"response.done","response":{"status":"completed","output":[
		{"type":"message"},
		{"type":"function_call","call_id":"c1","name":"book_reservation","arguments":"{\"name\":\"Ana\"}"},
		{"type":"function_call","call_id":"c2","name":"get_wait_time","arguments":"{}"}
	]}}`
	evt, err := a.ParseMessage(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(evt.FunctionCalls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(evt.FunctionCalls))
	}
	if evt.FunctionCalls[0].CallID != "c1" || evt.FunctionCalls[0].Name != "book_reservation" {
		t.Fatalf("unexpected first call: %+v", evt.FunctionCalls[0])
	}
}

func TestOpenAIParseErrorCriticality(t *testing.T) {
	a := NewOpenAIAdapter("sk-test")

	evt, err := a.ParseMessage(`{"type":"error","error":{"type":"server_error","code":"internal","message":"boom"}}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if evt.Kind != events.ProviderError || !evt.Critical {
		t.Fatalf("server_error must be critical: %+v", evt)
	}

	evt, err = a.ParseMessage(`{"type":"error","error":{"type":"invalid_request_error","code":"rate_limit","message":"slow down"}}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if evt.Critical {
		t.Fatalf("request errors must not be critical: %+v", evt)
	}
}

func TestOpenAIParseRejectsInvalidJSON(t *testing.T) {
	a := NewOpenAIAdapter("sk-test")
	if _, err := a.ParseMessage("{broken"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestAzureHeadersAndCodec(t *testing.T) {
	a := NewAzureAdapter("az-key")
	headers := a.GetHeaders("eastus")
	if got := headers.Get("api-key"); got != "az-key" {
		t.Fatalf("expected api-key header, got %s", got)
	}
	if got := headers.Get("x-ms-region"); got != "eastus" {
		t.Fatalf("expected region header, got %s", got)
	}
	if headers.Get("Authorization") != "" {
		t.Fatalf("azure must not use bearer auth")
	}
	if got := a.GetPreferredCodec(audio.CodecULaw); got != audio.CodecPCM16 {
		t.Fatalf("azure must fix pcm16, got %s", got)
	}
}

func TestAzureSharesWireProtocol(t *testing.T) {
	a := NewAzureAdapter("az-key")
	msg, err := a.BuildSessionConfig(SessionParams{Voice: "ember"}, audio.CodecPCM16)
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	if !strings.Contains(msg, "session.update") || !strings.Contains(msg, "pcm16") {
		t.Fatalf("unexpected config: %s", msg)
	}
	evt, err := a.ParseMessage(`{"type":"session.created"}`)
	if err != nil || evt.Kind != events.ProviderSessionInitialized {
		t.Fatalf("azure must parse the shared envelope: %+v %v", evt, err)
	}
}
