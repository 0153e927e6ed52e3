package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"stapler/internal/stapler"
	"stapler/internal/storage"
)

func Run(ctx context.Context) error {

	listen := flag.String("listen", "8080", "HTTP listen address")

	flag.Parse()

	handler := log.NewWithOptions(os.Stdout, log.Options{
		Level:           log.DebugLevel,
		TimeFormat:      time.RFC3339,
		ReportTimestamp: true,
		TimeFunction:    log.NowUTC,
		ReportCaller:    true,
	})

	slog.SetDefault(slog.New(handler))

	var cfg stapler.Config
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	// A missing bucket or region is reported per request, not at startup,
	// so preflights and health probes keep working on a bad deployment.
	if cfg.Bucket != "" && cfg.Region != "" {
		var storeCfg storage.MinioConfig
		if err := env.Parse(&storeCfg); err != nil {
			return fmt.Errorf("parse storage environment: %w", err)
		}
		storeCfg.Bucket = cfg.Bucket
		storeCfg.Region = cfg.Region

		store, err := storage.NewMinioStore(storeCfg)
		if err != nil {
			return fmt.Errorf("create object store: %w", err)
		}
		cfg.Store = store

		if exists, err := store.BucketExists(ctx); err != nil {
			slog.Warn("Could not probe bucket", "bucket", cfg.Bucket, "err", err)
		} else if !exists {
			slog.Warn("Bucket does not exist", "bucket", cfg.Bucket)
		}
	} else {
		slog.Warn("S3_BUCKET_NAME or S3_REGION is not set, requests will fail until configured")
	}

	server, err := stapler.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("create stapler server: %w", err)
	}

	router := server.Handler()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", *listen),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		// A merge can spend minutes fetching and concatenating before the
		// response is written.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	eg.Go(func() error {
		slog.Info("Starting Stapler HTTP server", "port", *listen)
		err := httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	slog.Info("Stapler started", "environment", cfg.Environment)
	return eg.Wait()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := Run(ctx); err != nil {
		slog.Error("Stapler exited with error", "error", err)
	}
}
