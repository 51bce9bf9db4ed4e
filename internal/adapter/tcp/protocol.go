// File: internal/adapter/tcp/protocol.go
package tcp

import (
	"encoding/binary"
	"errors"
	"io"
)

// Wire format, fixed 8-byte header followed by key and value:
//
//	[magic 1]['p'] [opcode 1] [keyLen 2, big endian] [valLen 4, big endian]
//
// Responses reuse the same frame with the opcode slot carrying a status.
const (
	MagicByte = 'p'

	OpSet  = 1
	OpGet  = 2
	OpDel  = 3
	OpPing = 4

	StatusOK             = 0
	StatusMiss           = 1
	StatusInvalidRequest = 2

	HeaderSize = 8

	MaxKeySize   = 65535
	MaxValueSize = 10 * 1024 * 1024
)

var (
	ErrKeyTooLong   = errors.New("key too long")
	ErrBadMagicByte = errors.New("invalid magic byte")
)

type Packet struct {
	Opcode uint8
	Key    string
	Value  []byte
}

// WritePacket frames op/key/value onto w.
func WritePacket(w io.Writer, op uint8, key string, value []byte) error {
	if len(key) > MaxKeySize {
		return ErrKeyTooLong
	}

	buf := make([]byte, HeaderSize)
	buf[0] = MagicByte
	buf[1] = op
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(key)))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(value)))

	if _, err := w.Write(buf); err != nil {
		return err
	}
	if _, err := w.Write([]byte(key)); err != nil {
		return err
	}
	if len(value) > 0 {
		if _, err := w.Write(value); err != nil {
			return err
		}
	}
	return nil
}

// ReadPacket reads one full frame from r. It blocks until the frame is
// complete, so it suits the client side and tests; the server parses frames
// out of gnet's inbound buffer instead.
func ReadPacket(r io.Reader) (Packet, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return Packet{}, err
	}

	if header[0] != MagicByte {
		return Packet{}, ErrBadMagicByte
	}

	op := header[1]
	keyLen := binary.BigEndian.Uint16(header[2:4])
	valLen := binary.BigEndian.Uint32(header[4:8])

	body := make([]byte, int(keyLen)+int(valLen))
	if _, err := io.ReadFull(r, body); err != nil {
		return Packet{}, err
	}

	return Packet{
		Opcode: op,
		Key:    string(body[:keyLen]),
		Value:  body[keyLen:],
	}, nil
}

// appendPacket is the allocation-light variant used on the server's hot
// path: it appends one full frame to dst and returns the result.
func appendPacket(dst []byte, op uint8, key string, value []byte) []byte {
	header := [HeaderSize]byte{MagicByte, op}
	binary.BigEndian.PutUint16(header[2:4], uint16(len(key)))
	binary.BigEndian.PutUint32(header[4:8], uint32(len(value)))

	dst = append(dst, header[:]...)
	dst = append(dst, key...)
	dst = append(dst, value...)
	return dst
}
