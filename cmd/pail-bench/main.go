// File: cmd/pail-bench/main.go
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pailcache/pail/internal/adapter/tcp"
)

var (
	addr      = flag.String("addr", "localhost:7700", "Server address")
	clients   = flag.Int("clients", 50, "Number of concurrent clients")
	requests  = flag.Int("requests", 100000, "Total requests")
	dataSize  = flag.Int("data-size", 128, "Value size in bytes")
	readRatio = flag.Float64("ratio", 0.5, "Read ratio (0.0-1.0)")
	keySpace  = flag.Int("keys", 10000, "Number of distinct keys")
)

type result struct {
	duration  time.Duration
	totalOps  int
	errors    int64
	latencies []time.Duration
}

func main() {
	flag.Parse()

	fmt.Printf("pail-bench: %d clients, %d requests, %d byte values, %.0f%% reads\n",
		*clients, *requests, *dataSize, *readRatio*100)

	warmup()

	res := run()
	printResult(res)
}

func warmup() {
	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("warmup dial failed: %v", err)
	}
	defer conn.Close()

	w := bufio.NewWriter(conn)
	value := make([]byte, *dataSize)

	for i := 0; i < *keySpace; i++ {
		if err := tcp.WritePacket(w, tcp.OpSet, benchKey(i), value); err != nil {
			log.Fatalf("warmup write failed: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("warmup flush failed: %v", err)
	}

	for i := 0; i < *keySpace; i++ {
		if _, err := tcp.ReadPacket(conn); err != nil {
			log.Fatalf("warmup read failed: %v", err)
		}
	}

	log.Printf("warmed up %d keys", *keySpace)
}

func run() result {
	perClient := *requests / *clients

	var wg sync.WaitGroup
	var errors atomic.Int64

	latencies := make([][]time.Duration, *clients)
	start := time.Now()

	for c := 0; c < *clients; c++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			conn, err := net.Dial("tcp", *addr)
			if err != nil {
				errors.Add(int64(perClient))
				return
			}
			defer conn.Close()

			rng := rand.New(rand.NewSource(int64(id)))
			value := make([]byte, *dataSize)
			lats := make([]time.Duration, 0, perClient)

			for i := 0; i < perClient; i++ {
				key := benchKey(rng.Intn(*keySpace))

				opStart := time.Now()

				var err error
				if rng.Float64() < *readRatio {
					err = tcp.WritePacket(conn, tcp.OpGet, key, nil)
				} else {
					err = tcp.WritePacket(conn, tcp.OpSet, key, value)
				}
				if err == nil {
					_, err = tcp.ReadPacket(conn)
				}

				if err != nil {
					errors.Add(1)
					return
				}

				lats = append(lats, time.Since(opStart))
			}

			latencies[id] = lats
		}(c)
	}

	wg.Wait()

	all := make([]time.Duration, 0, *requests)
	for _, lats := range latencies {
		all = append(all, lats...)
	}

	return result{
		duration:  time.Since(start),
		totalOps:  len(all),
		errors:    errors.Load(),
		latencies: all,
	}
}

func printResult(res result) {
	sort.Slice(res.latencies, func(i, j int) bool {
		return res.latencies[i] < res.latencies[j]
	})

	fmt.Printf("\nduration:   %v\n", res.duration)
	fmt.Printf("ops:        %d (%.0f ops/sec)\n",
		res.totalOps, float64(res.totalOps)/res.duration.Seconds())
	fmt.Printf("errors:     %d\n", res.errors)

	if len(res.latencies) > 0 {
		fmt.Printf("latency:    p50=%v p95=%v p99=%v max=%v\n",
			percentile(res.latencies, 0.50),
			percentile(res.latencies, 0.95),
			percentile(res.latencies, 0.99),
			res.latencies[len(res.latencies)-1])
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func benchKey(i int) string {
	return fmt.Sprintf("bench-key-%06d", i)
}
