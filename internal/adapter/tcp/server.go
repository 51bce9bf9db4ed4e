// File: internal/adapter/tcp/server.go
package tcp

import (
	"context"
	"encoding/binary"
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/panjf2000/gnet/v2"

	"github.com/pailcache/pail/internal/engine"
)

// PailServer serves the binary protocol over gnet's event loops. Every
// connection belongs to one namespace, fixed at "default" until the client
// renames it with a SET on the reserved "\x00ns" key.
type PailServer struct {
	gnet.BuiltinEventEngine

	registry *engine.Registry
	addr     string
	eng      gnet.Engine

	connections   atomic.Int64
	totalRequests atomic.Uint64
	totalErrors   atomic.Uint64

	started   atomic.Bool
	startTime time.Time

	multicore    bool
	numEventLoop int
}

type connCtx struct {
	namespace string
	reqCount  uint64
}

// nsKey is the reserved key a client SETs to switch its connection to a
// different namespace.
const nsKey = "\x00ns"

func NewPailServer(registry *engine.Registry) *PailServer {
	numLoops := runtime.NumCPU()
	if numLoops < 2 {
		numLoops = 2
	}
	if numLoops > 16 {
		numLoops = 16
	}

	return &PailServer{
		registry:     registry,
		multicore:    true,
		numEventLoop: numLoops,
	}
}

func (s *PailServer) ListenAndServe(addr string) error {
	s.addr = addr
	s.startTime = time.Now()
	s.started.Store(true)

	log.Printf("[TCP] Starting gnet server on %s", addr)
	log.Printf("[TCP] Event loops: %d (CPU: %d)", s.numEventLoop, runtime.NumCPU())

	return gnet.Run(s, "tcp://"+addr,
		gnet.WithMulticore(s.multicore),
		gnet.WithTCPKeepAlive(time.Minute),
		gnet.WithTCPNoDelay(gnet.TCPNoDelay),
		gnet.WithNumEventLoop(s.numEventLoop),
	)
}

func (s *PailServer) Shutdown(timeout time.Duration) error {
	if !s.started.Load() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return s.eng.Stop(ctx)
}

func (s *PailServer) OnBoot(eng gnet.Engine) gnet.Action {
	s.eng = eng
	log.Printf("[TCP] Server booted")
	return gnet.None
}

func (s *PailServer) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	s.connections.Add(1)
	c.SetContext(&connCtx{namespace: "default"})
	return nil, gnet.None
}

func (s *PailServer) OnClose(c gnet.Conn, err error) gnet.Action {
	s.connections.Add(-1)
	if err != nil {
		s.totalErrors.Add(1)
	}
	return gnet.None
}

func (s *PailServer) OnTraffic(c gnet.Conn) gnet.Action {
	buf, err := c.Peek(-1)
	if err != nil {
		s.totalErrors.Add(1)
		return gnet.Close
	}

	processed := 0
	out := make([]byte, 0, 64)

	for len(buf) >= HeaderSize {
		if buf[0] != MagicByte {
			s.totalErrors.Add(1)
			out = appendPacket(out, StatusInvalidRequest, "", []byte("invalid magic byte"))
			_, _ = c.Write(out)
			return gnet.Close
		}

		keyLen := binary.BigEndian.Uint16(buf[2:4])
		valLen := binary.BigEndian.Uint32(buf[4:8])

		packetSize := HeaderSize + int(keyLen) + int(valLen)
		if len(buf) < packetSize {
			// Incomplete frame, wait for more bytes.
			break
		}

		out = s.handlePacket(c, buf[:packetSize], out)

		buf = buf[packetSize:]
		processed += packetSize
	}

	if processed > 0 {
		_, _ = c.Discard(processed)
	}
	if len(out) > 0 {
		if _, err := c.Write(out); err != nil {
			s.totalErrors.Add(1)
			return gnet.Close
		}
	}

	return gnet.None
}

func (s *PailServer) handlePacket(c gnet.Conn, packet []byte, out []byte) []byte {
	opcode := packet[1]
	keyLen := binary.BigEndian.Uint16(packet[2:4])
	valLen := binary.BigEndian.Uint32(packet[4:8])

	if valLen > MaxValueSize {
		s.totalErrors.Add(1)
		return appendPacket(out, StatusInvalidRequest, "", []byte("value too large"))
	}

	s.totalRequests.Add(1)

	ctx := c.Context().(*connCtx)
	ctx.reqCount++

	keyEnd := HeaderSize + int(keyLen)
	key := string(packet[HeaderSize:keyEnd])

	var value []byte
	if valLen > 0 {
		value = make([]byte, valLen)
		copy(value, packet[keyEnd:keyEnd+int(valLen)])
	}

	cache := s.registry.GetCache(ctx.namespace)

	switch opcode {
	case OpSet:
		if key == nsKey {
			ctx.namespace = string(value)
			return appendPacket(out, StatusOK, "", nil)
		}
		if err := cache.Set(key, value); err != nil {
			s.totalErrors.Add(1)
			return appendPacket(out, StatusInvalidRequest, "", []byte(err.Error()))
		}
		return appendPacket(out, StatusOK, "", nil)

	case OpGet:
		val, found := cache.Get(key)
		if !found {
			return appendPacket(out, StatusMiss, "", nil)
		}
		return appendPacket(out, StatusOK, "", val)

	case OpDel:
		cache.Delete(key)
		return appendPacket(out, StatusOK, "", nil)

	case OpPing:
		return appendPacket(out, StatusOK, "", []byte("pong"))

	default:
		s.totalErrors.Add(1)
		return appendPacket(out, StatusInvalidRequest, "", []byte("unknown opcode"))
	}
}
