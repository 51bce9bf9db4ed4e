package tcp

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPacketRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	if err := WritePacket(&buf, OpSet, "mykey", []byte("myvalue")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	pkt, err := ReadPacket(&buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if pkt.Opcode != OpSet {
		t.Fatalf("opcode mismatch: %d", pkt.Opcode)
	}
	if pkt.Key != "mykey" {
		t.Fatalf("key mismatch: %q", pkt.Key)
	}
	if string(pkt.Value) != "myvalue" {
		t.Fatalf("value mismatch: %q", pkt.Value)
	}
}

func TestPacketEmptyValue(t *testing.T) {
	var buf bytes.Buffer

	if err := WritePacket(&buf, OpGet, "k", nil); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	pkt, err := ReadPacket(&buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if pkt.Key != "k" || len(pkt.Value) != 0 {
		t.Fatalf("unexpected packet: %+v", pkt)
	}
}

func TestPacketRejectsOversizedKey(t *testing.T) {
	var buf bytes.Buffer

	key := strings.Repeat("k", MaxKeySize+1)
	if err := WritePacket(&buf, OpSet, key, nil); !errors.Is(err, ErrKeyTooLong) {
		t.Fatalf("expected ErrKeyTooLong, got %v", err)
	}
}

func TestPacketRejectsBadMagic(t *testing.T) {
	raw := []byte{'X', OpGet, 0, 1, 0, 0, 0, 0, 'k'}

	if _, err := ReadPacket(bytes.NewReader(raw)); !errors.Is(err, ErrBadMagicByte) {
		t.Fatalf("expected ErrBadMagicByte, got %v", err)
	}
}

func TestPacketStreaming(t *testing.T) {
	var buf bytes.Buffer

	// Several frames back to back must parse cleanly.
	for i := 0; i < 5; i++ {
		if err := WritePacket(&buf, OpSet, "key", []byte{byte(i)}); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	for i := 0; i < 5; i++ {
		pkt, err := ReadPacket(&buf)
		if err != nil {
			t.Fatalf("read %d failed: %v", i, err)
		}
		if pkt.Value[0] != byte(i) {
			t.Fatalf("frame %d out of order: %v", i, pkt.Value)
		}
	}
}

func TestAppendPacketMatchesWritePacket(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePacket(&buf, StatusOK, "", []byte("pong")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	appended := appendPacket(nil, StatusOK, "", []byte("pong"))
	if !bytes.Equal(buf.Bytes(), appended) {
		t.Fatalf("appendPacket diverges from WritePacket:\n%v\n%v", buf.Bytes(), appended)
	}
}
