// File: internal/engine/codec.go
package engine

import (
	"errors"
	"fmt"

	"github.com/golang/snappy"
)

// Stored values carry a one-byte magic prefix:
//
//	0 = raw payload
//	1 = snappy-compressed payload
const (
	magicRaw    = 0
	magicSnappy = 1

	// Values below this size are stored raw; compressing tiny payloads
	// costs more than it saves.
	compressionThreshold = 4 * 1024
)

var ErrCorruptedValue = errors.New("corrupted value")

func encodeValue(value []byte) []byte {
	if len(value) >= compressionThreshold {
		compressed := snappy.Encode(nil, value)
		if len(compressed) < len(value) {
			out := make([]byte, len(compressed)+1)
			out[0] = magicSnappy
			copy(out[1:], compressed)
			return out
		}
	}

	out := make([]byte, len(value)+1)
	out[0] = magicRaw
	copy(out[1:], value)
	return out
}

func decodeValue(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, ErrCorruptedValue
	}

	payload := raw[1:]
	switch raw[0] {
	case magicRaw:
		return payload, nil
	case magicSnappy:
		decoded, err := snappy.Decode(nil, payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptedValue, err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("%w: unknown magic byte %d", ErrCorruptedValue, raw[0])
	}
}
