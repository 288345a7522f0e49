package knx

import (
	"fmt"
	"math"
)

// dpt5MaxValue is the maximum raw value for DPT5 (1-byte unsigned).
const dpt5MaxValue = 255

// EncodeDPT1 encodes a boolean to 1-bit KNX format (DPT 1.001).
//
// Used for mute and playback on/off group objects.
func EncodeDPT1(value bool) []byte {
	if value {
		return []byte{0x01}
	}
	return []byte{0x00}
}

// DecodeDPT1 decodes a 1-bit KNX value to boolean.
func DecodeDPT1(data []byte) (bool, error) {
	if len(data) < 1 {
		return false, fmt.Errorf("%w: DPT1 requires 1 byte, got %d", ErrDecodingFailed, len(data))
	}
	return (data[0] & 0x01) != 0, nil
}

// EncodeDPT5 encodes a percentage (0-100) to 1-byte KNX format.
//
// DPT 5.001: scales 0-100% to 0-255. Input is clamped to range.
func EncodeDPT5(percent float64) []byte {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	value := uint8(math.Round(percent * dpt5MaxValue / 100))
	return []byte{value}
}

// DecodeDPT5 decodes a 1-byte KNX value to a percentage.
//
// DPT 5.001: scales 0-255 to 0-100%.
func DecodeDPT5(data []byte) (float64, error) {
	if len(data) < 1 {
		return 0, fmt.Errorf("%w: DPT5 requires 1 byte, got %d", ErrDecodingFailed, len(data))
	}
	return float64(data[0]) * 100 / dpt5MaxValue, nil
}
