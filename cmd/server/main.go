// File: cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpAdapter "github.com/pailcache/pail/internal/adapter/http"
	tcpAdapter "github.com/pailcache/pail/internal/adapter/tcp"
	"github.com/pailcache/pail/internal/engine"
)

const (
	Version     = "1.0.0"
	ServiceName = "Pail"
)

type Config struct {
	HTTPPort string
	TCPPort  string

	Buckets        int
	BucketCapacity int
	DefaultTTL     time.Duration
	SweepInterval  time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	ShutdownTimeout  time.Duration

	EnableCORS    bool
	EnableMetrics bool

	GCPercent int
	MaxProcs  int
}

func main() {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	applyRuntimeTuning(cfg)
	printBanner(cfg)

	log.Println("Initializing components...")

	registry := engine.NewRegistry(engine.Config{
		Buckets:        cfg.Buckets,
		BucketCapacity: cfg.BucketCapacity,
		TTL:            cfg.DefaultTTL,
		SweepInterval:  cfg.SweepInterval,
	})

	httpSrv, tcpSrv := startServers(cfg, registry)

	log.Println("========================================")
	log.Println("Pail is running!")
	log.Println("========================================")

	gracefulShutdown(cfg, httpSrv, tcpSrv, registry)
}

func applyRuntimeTuning(cfg *Config) {
	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
		log.Printf("GOMAXPROCS set to %d", cfg.MaxProcs)
	}

	if cfg.GCPercent > 0 {
		old := debug.SetGCPercent(cfg.GCPercent)
		log.Printf("GC percent changed from %d to %d", old, cfg.GCPercent)
	}
}

func loadConfig() (*Config, error) {
	cfg := &Config{
		HTTPPort: getenv("PORT", "8080"),
		TCPPort:  getenv("TCP_PORT", "7700"),

		Buckets:        getenvInt("PAIL_BUCKETS", 64),
		BucketCapacity: getenvInt("PAIL_BUCKET_CAPACITY", 0),
		DefaultTTL:     getenvDuration("PAIL_DEFAULT_TTL", 0),
		SweepInterval:  getenvDuration("PAIL_SWEEP_INTERVAL", time.Second),

		HTTPReadTimeout:  getenvDuration("HTTP_READ_TIMEOUT", 30*time.Second),
		HTTPWriteTimeout: getenvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		HTTPIdleTimeout:  getenvDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
		ShutdownTimeout:  getenvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		EnableCORS:    getenvBool("ENABLE_CORS", false),
		EnableMetrics: getenvBool("ENABLE_METRICS", true),

		GCPercent: getenvInt("GOGC", 0),
		MaxProcs:  getenvInt("GOMAXPROCS", 0),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Buckets < 1 || cfg.Buckets > 8192 {
		return fmt.Errorf("PAIL_BUCKETS must be 1-8192, got %d", cfg.Buckets)
	}

	if cfg.BucketCapacity < 0 {
		return fmt.Errorf("bucket capacity cannot be negative")
	}

	if cfg.DefaultTTL < 0 {
		return fmt.Errorf("default TTL cannot be negative")
	}

	if cfg.SweepInterval < 10*time.Millisecond {
		return fmt.Errorf("sweep interval too small: %v", cfg.SweepInterval)
	}

	return nil
}

func printBanner(cfg *Config) {
	banner := `
========================================
   PAIL v%s
========================================
  In-Memory Bucketed TTL Cache

System:
  Go:          %s
  CPU:         %d cores
  GOMAXPROCS:  %d
  Platform:    %s/%s

Config:
  HTTP:        :%s
  TCP:         :%s
  Buckets:     %d
  Capacity:    %s per bucket
  TTL:         %s
  Sweep:       every %v

Endpoints:
  Health:      http://localhost:%s/health
  Stats:       http://localhost:%s/v1/stats

========================================
`

	capacityStr := "unbounded"
	if cfg.BucketCapacity > 0 {
		capacityStr = strconv.Itoa(cfg.BucketCapacity) + " entries"
	}

	ttlStr := "disabled"
	if cfg.DefaultTTL > 0 {
		ttlStr = cfg.DefaultTTL.String()
	}

	fmt.Printf(banner,
		Version,
		runtime.Version(),
		runtime.NumCPU(),
		runtime.GOMAXPROCS(0),
		runtime.GOOS,
		runtime.GOARCH,
		cfg.HTTPPort,
		cfg.TCPPort,
		cfg.Buckets,
		capacityStr,
		ttlStr,
		cfg.SweepInterval,
		cfg.HTTPPort,
		cfg.HTTPPort,
	)
}

func startServers(cfg *Config, registry *engine.Registry) (*httpAdapter.Server, *tcpAdapter.PailServer) {
	log.Printf("Starting HTTP server on :%s...", cfg.HTTPPort)

	httpConfig := httpAdapter.DefaultServerConfig()
	httpConfig.Port, _ = strconv.Atoi(cfg.HTTPPort)
	httpConfig.ReadTimeout = cfg.HTTPReadTimeout
	httpConfig.WriteTimeout = cfg.HTTPWriteTimeout
	httpConfig.IdleTimeout = cfg.HTTPIdleTimeout
	httpConfig.EnableCORS = cfg.EnableCORS
	httpConfig.EnableMetrics = cfg.EnableMetrics

	httpSrv := httpAdapter.NewServerWithConfig(registry, httpConfig)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Printf("HTTP server started on :%s", cfg.HTTPPort)
	log.Printf("Starting TCP server on :%s...", cfg.TCPPort)

	tcpSrv := tcpAdapter.NewPailServer(registry)

	go func() {
		if err := tcpSrv.ListenAndServe(":" + cfg.TCPPort); err != nil {
			log.Fatalf("TCP server error: %v", err)
		}
	}()

	return httpSrv, tcpSrv
}

func gracefulShutdown(cfg *Config, httpSrv *httpAdapter.Server, tcpSrv *tcpAdapter.PailServer, registry *engine.Registry) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigCh
	log.Printf("Signal received: %v", sig)
	log.Println("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	log.Println("Stopping HTTP server...")
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	log.Println("Stopping TCP server...")
	if err := tcpSrv.Shutdown(cfg.ShutdownTimeout); err != nil {
		log.Printf("TCP shutdown error: %v", err)
	}

	printFinalStats(registry)

	// Releases every bucket's sweep goroutine.
	log.Println("Closing caches...")
	registry.CloseAll()

	log.Println("Shutdown complete. Goodbye!")
}

func printFinalStats(registry *engine.Registry) {
	log.Println("Final statistics:")
	for name, st := range registry.StatsAll() {
		log.Printf("  Namespace %q: %d items, %d hits, %d misses, %d evictions",
			name, st.Items, st.Hits, st.Misses, st.Evictions)
	}
}

func getenv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getenvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getenvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getenvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
