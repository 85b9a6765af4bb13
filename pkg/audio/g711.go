package audio

// G.711 companding between 8-bit log-encoded telephony samples and 16-bit
// linear PCM. Segment boundaries follow the CCITT reference tables.

const (
	ulawBias = 0x84
	ulawClip = 32635

	quantMask = 0x0F
	segShift  = 4
	segMask   = 0x70
	signBit   = 0x80
)

var ulawSegEnd = [8]int32{0xFF, 0x1FF, 0x3FF, 0x7FF, 0xFFF, 0x1FFF, 0x3FFF, 0x7FFF}
var alawSegEnd = [8]int32{0x1F, 0x3F, 0x7F, 0xFF, 0x1FF, 0x3FF, 0x7FF, 0xFFF}

func segment(val int32, table [8]int32) int32 {
	for i, end := range table {
		if val <= end {
			return int32(i)
		}
	}
	return 8
}

func linearToUlaw(pcm int16) byte {
	val := int32(pcm)
	var mask int32
	if val < 0 {
		val = ulawBias - val
		mask = 0x7F
	} else {
		val += ulawBias
		mask = 0xFF
	}
	if val > ulawClip+ulawBias {
		val = ulawClip + ulawBias
	}
	seg := segment(val, ulawSegEnd)
	if seg >= 8 {
		return byte(0x7F ^ mask)
	}
	uval := (seg << segShift) | ((val >> (seg + 3)) & quantMask)
	return byte(uval ^ mask)
}

func ulawToLinear(u byte) int16 {
	v := ^u
	t := (int32(v&quantMask) << 3) + ulawBias
	t <<= (int32(v) & segMask) >> segShift
	if v&signBit != 0 {
		return int16(ulawBias - t)
	}
	return int16(t - ulawBias)
}

func linearToAlaw(pcm int16) byte {
	val := int32(pcm) >> 3
	var mask int32
	if val >= 0 {
		mask = 0xD5
	} else {
		mask = 0x55
		val = -val - 1
	}
	seg := segment(val, alawSegEnd)
	if seg >= 8 {
		return byte(0x7F ^ mask)
	}
	aval := seg << segShift
	if seg < 2 {
		aval |= (val >> 1) & quantMask
	} else {
		aval |= (val >> seg) & quantMask
	}
	return byte(aval ^ mask)
}

func alawToLinear(a byte) int16 {
	v := a ^ 0x55
	t := int32(v&quantMask) << 4
	seg := (int32(v) & segMask) >> segShift
	switch seg {
	case 0:
		t += 8
	case 1:
		t += 0x108
	default:
		t += 0x108
		t <<= seg - 1
	}
	if v&signBit != 0 {
		return int16(t)
	}
	return int16(-t)
}
