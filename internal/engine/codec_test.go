package engine

import (
	"bytes"
	"errors"
	"testing"
)

func TestCodecSmallValueStaysRaw(t *testing.T) {
	value := []byte("short value")

	encoded := encodeValue(value)
	if encoded[0] != magicRaw {
		t.Fatalf("small value should stay raw, magic=%d", encoded[0])
	}

	decoded, err := decodeValue(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(decoded, value) {
		t.Fatalf("round trip mismatch: %q", decoded)
	}
}

func TestCodecCompressesLargeValues(t *testing.T) {
	// Highly repetitive, so snappy wins comfortably.
	value := bytes.Repeat([]byte("abcdefgh"), 1024)

	encoded := encodeValue(value)
	if encoded[0] != magicSnappy {
		t.Fatalf("large compressible value should be snappy, magic=%d", encoded[0])
	}
	if len(encoded) >= len(value) {
		t.Fatalf("compression did not shrink the value: %d >= %d", len(encoded), len(value))
	}

	decoded, err := decodeValue(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(decoded, value) {
		t.Fatalf("round trip mismatch after compression")
	}
}

func TestCodecRejectsGarbage(t *testing.T) {
	if _, err := decodeValue(nil); !errors.Is(err, ErrCorruptedValue) {
		t.Fatalf("expected ErrCorruptedValue for empty input, got %v", err)
	}
	if _, err := decodeValue([]byte{99, 1, 2, 3}); !errors.Is(err, ErrCorruptedValue) {
		t.Fatalf("expected ErrCorruptedValue for unknown magic, got %v", err)
	}
	if _, err := decodeValue([]byte{magicSnappy, 0xff, 0xff}); !errors.Is(err, ErrCorruptedValue) {
		t.Fatalf("expected ErrCorruptedValue for bad snappy payload, got %v", err)
	}
}

func TestCodecEmptyValue(t *testing.T) {
	encoded := encodeValue(nil)
	decoded, err := decodeValue(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("expected empty value, got %q", decoded)
	}
}
