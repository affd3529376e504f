// cmd/kvd/main.go
//
// kvd – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Load layered config (defaults → conf/.env → conf/kvd.yaml → KVD_*).
//
//  3. Start daily rotating logger (tees to console when running in a TTY
//     unless log.tee says otherwise).
//
//  4. Build the store: one LRU behind one mutex, sized by cache.max_size.
//
//  5. Build the chi router (key-value verbs, /keys, /stats, /healthz,
//     /metrics) and wrap it in a server with hardened timeouts.
//
//  6. Serve until SIGINT or SIGTERM, then drain for up to shutdownGrace.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yanizio/kvd/internal/config"
	"github.com/yanizio/kvd/internal/kv"
	"github.com/yanizio/kvd/internal/logger"
	"github.com/yanizio/kvd/internal/server"
)

const (
	serverEnvPath = "/usr/local/etc/kvd/global.env"
	shutdownGrace = 10 * time.Second
)

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	tee := runningInTTY()
	if cfg.Log.Tee != nil {
		tee = *cfg.Log.Tee
	}
	logOut, err := logger.New(cfg.Paths.Root, cfg.Log.Level, tee)
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 1.  Store ───────────────────────────────────────────────────────
	//
	store := kv.New(cfg.Cache, logOut)

	//
	// ── 2.  Router + server ─────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP, server.Routes(store, logOut, cfg.Cache.MaxSize))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logOut.Infow("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	//
	// ── 3.  Wait for a signal or a listener failure ─────────────────────
	//
	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logOut.Fatalw("http server", "err", err)
		}
		return
	case <-ctx.Done():
		logOut.Infow("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logOut.Errorw("graceful shutdown failed", "err", err)
	}
	st := store.Stats()
	logOut.Infow("kvd stopped", "entries", st.Entries, "bytes", st.Bytes)
}
