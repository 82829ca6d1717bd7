package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Garsondee/mapclaim/internal/archive"
	"github.com/Garsondee/mapclaim/internal/config"
	"github.com/Garsondee/mapclaim/internal/replayhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	var dbPath, addr string
	flag.StringVar(&dbPath, "db", cfg.ArchivePath, "SQLite turn archive")
	flag.StringVar(&addr, "addr", cfg.HTTPAddr, "listen address")
	flag.Parse()

	logger, err := cfg.Logger()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := archive.Open(dbPath)
	if err != nil {
		logger.Fatal("open archive", zap.Error(err))
	}
	defer store.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           replayhttp.NewRouter(store, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("replay server listening", zap.String("addr", addr), zap.String("db", dbPath))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serve", zap.Error(err))
	}
}
