package audio

import (
	"encoding/binary"
	"fmt"

	"github.com/sj-distributor/SmartTalk-sub000/pkg/errorsx"
)

// Codec identifies an audio wire encoding.
type Codec string

const (
	CodecULaw  Codec = "ulaw"
	CodecALaw  Codec = "alaw"
	CodecPCM16 Codec = "pcm16"
)

// RecordingSampleRate is the canonical wideband rate every recording buffer
// is normalized to, regardless of source codec.
const RecordingSampleRate = 24000

// GetSampleRate returns the native sample rate for a codec. The telephony
// codecs are narrowband 8 kHz; linear PCM runs at the canonical rate.
func GetSampleRate(codec Codec) int {
	switch codec {
	case CodecULaw, CodecALaw:
		return 8000
	default:
		return RecordingSampleRate
	}
}

// Convert transcodes raw audio between codecs. Equal codecs return the input
// unchanged. Direct mu-law/A-law conversion is not defined; route through
// PCM16.
func Convert(data []byte, from, to Codec) ([]byte, error) {
	if from == to {
		return data, nil
	}
	switch {
	case from == CodecULaw && to == CodecPCM16:
		return expand(data, ulawToLinear), nil
	case from == CodecALaw && to == CodecPCM16:
		return expand(data, alawToLinear), nil
	case from == CodecPCM16 && to == CodecULaw:
		return compress(data, linearToUlaw), nil
	case from == CodecPCM16 && to == CodecALaw:
		return compress(data, linearToAlaw), nil
	default:
		return nil, errorsx.Wrap(fmt.Errorf("unsupported conversion: %s to %s", from, to), errorsx.ReasonAudioConvert)
	}
}

// Resample rate-converts 16-bit little-endian PCM. Equal rates return the
// input unchanged. Integer ratios are exact; fractional positions use linear
// interpolation.
func Resample(pcm []byte, fromRate, toRate int) ([]byte, error) {
	if fromRate == toRate {
		return pcm, nil
	}
	if fromRate <= 0 || toRate <= 0 {
		return nil, errorsx.Wrap(fmt.Errorf("invalid sample rate: %d to %d", fromRate, toRate), errorsx.ReasonAudioConvert)
	}
	in := samples(pcm)
	if len(in) == 0 {
		return []byte{}, nil
	}
	outLen := len(in) * toRate / fromRate
	out := make([]int16, outLen)
	for i := range out {
		// source position as an exact rational: i * fromRate / toRate
		num := i * fromRate
		idx := num / toRate
		rem := num % toRate
		if idx >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		if rem == 0 {
			out[i] = in[idx]
			continue
		}
		frac := float64(rem) / float64(toRate)
		s0 := float64(in[idx])
		s1 := float64(in[idx+1])
		out[i] = int16(s0 + frac*(s1-s0))
	}
	return bytes16(out), nil
}

// ConvertForRecording normalizes audio from any supported codec into PCM16 at
// the canonical recording rate. This is the single entry point for appending
// audio, from either direction, to a session recording buffer.
func ConvertForRecording(data []byte, codec Codec) ([]byte, error) {
	pcm, err := Convert(data, codec, CodecPCM16)
	if err != nil {
		return nil, err
	}
	return Resample(pcm, GetSampleRate(codec), RecordingSampleRate)
}

func expand(data []byte, decode func(byte) int16) []byte {
	out := make([]byte, len(data)*2)
	for i, b := range data {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(decode(b)))
	}
	return out
}

func compress(data []byte, encode func(int16) byte) []byte {
	n := len(data) / 2
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = encode(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
	return out
}

func samples(pcm []byte) []int16 {
	n := len(pcm) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return out
}

func bytes16(in []int16) []byte {
	out := make([]byte, len(in)*2)
	for i, s := range in {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
