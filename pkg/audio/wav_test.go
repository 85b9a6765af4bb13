package audio

import (
	"encoding/binary"
	"testing"
)

func TestEncodeWAVHeader(t *testing.T) {
	pcm := make([]byte, 1200)
	wav := EncodeWAV(pcm, RecordingSampleRate)
	if len(wav) != 44+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", 44+len(pcm), len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE markers")
	}
	if string(wav[12:16]) != "fmt " {
		t.Fatalf("missing fmt chunk")
	}
	if format := binary.LittleEndian.Uint16(wav[20:22]); format != 1 {
		t.Fatalf("expected PCM format, got %d", format)
	}
	if ch := binary.LittleEndian.Uint16(wav[22:24]); ch != 1 {
		t.Fatalf("expected mono, got %d channels", ch)
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != RecordingSampleRate {
		t.Fatalf("expected rate %d, got %d", RecordingSampleRate, rate)
	}
	if string(wav[36:40]) != "data" {
		t.Fatalf("missing data chunk")
	}
	if size := binary.LittleEndian.Uint32(wav[40:44]); size != uint32(len(pcm)) {
		t.Fatalf("expected data size %d, got %d", len(pcm), size)
	}
}
