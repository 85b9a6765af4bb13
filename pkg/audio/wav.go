package audio

import "encoding/binary"

// EncodeWAV wraps raw 16-bit little-endian PCM in a single-channel RIFF/WAVE
// container with fmt and data chunks.
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	out := make([]byte, 0, 44+len(pcm))
	out = append(out, []byte("RIFF")...)
	out = appendUint32(out, uint32(36+len(pcm)))
	out = append(out, []byte("WAVE")...)

	out = append(out, []byte("fmt ")...)
	out = appendUint32(out, 16)
	out = appendUint16(out, 1) // PCM
	out = appendUint16(out, channels)
	out = appendUint32(out, uint32(sampleRate))
	out = appendUint32(out, uint32(byteRate))
	out = appendUint16(out, uint16(blockAlign))
	out = appendUint16(out, bitsPerSample)

	out = append(out, []byte("data")...)
	out = appendUint32(out, uint32(len(pcm)))
	out = append(out, pcm...)
	return out
}

func appendUint32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

func appendUint16(b []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(b, v)
}
