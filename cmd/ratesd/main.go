// Command ratesd serves the exchange-rate dashboard: an HTML board view plus
// a JSON API, backed by the TTL cache and optional snapshot storage.
//
// Usage:
//
//	ratesd -config configs/ratesd.yaml
//
// SIGINT/SIGTERM drain in-flight requests before exit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ratewatch/internal/board"
	"ratewatch/internal/config"
	"ratewatch/internal/logger"
	"ratewatch/internal/metrics"
	"ratewatch/internal/metrics/datadog"
	"ratewatch/internal/rates"
	"ratewatch/internal/server"
	"ratewatch/internal/storage"
	_ "ratewatch/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

// run is split out from main so we can unit test the command without spawning
// an OS process.
//
// It returns a Unix-style exit code:
//   - 0 for clean shutdown
//   - 2 for usage/config errors
//   - 1 for operational/runtime errors
func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("ratesd", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "configs/ratesd.yaml", "Path to YAML config")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 2
	}

	log := logger.New(logger.Options{Level: cfg.Logging.Level, Dir: cfg.Logging.Dir})

	var backend metrics.Backend = metrics.Nop{}
	if cfg.Metrics.Enabled {
		dd, err := datadog.NewBackend(ctx, datadog.Options{
			JobName:    cfg.Metrics.Job,
			Tags:       cfg.Metrics.Tags,
			FlushEvery: time.Duration(cfg.Metrics.FlushEverySec) * time.Second,
		})
		if err != nil {
			fmt.Fprintf(stderr, "init metrics: %v\n", err)
			return 1
		}
		defer func() {
			if err := dd.Close(); err != nil {
				log.Warn("metrics close failed", "error", err)
			}
		}()
		backend = dd
	}

	var repo storage.Repository
	if cfg.Storage.Enabled {
		repo, err = storage.New(ctx, cfg.StorageConfig())
		if err != nil {
			fmt.Fprintf(stderr, "open storage: %v\n", err)
			return 1
		}
		defer repo.Close()

		if err := repo.EnsureSchema(ctx); err != nil {
			fmt.Fprintf(stderr, "ensure storage schema: %v\n", err)
			return 1
		}
	}

	client := rates.NewClient(rates.ClientOptions{
		URL:     cfg.Board.URL,
		Timeout: time.Duration(cfg.Board.TimeoutSec) * time.Second,
	})

	svc, err := board.NewService(board.ServiceOptions{
		Fetcher:  client,
		TTL:      cfg.Board.CacheTTL,
		CacheKey: cfg.Board.URL,
		Repo:     repo,
		Metrics:  backend,
		Logger:   log,
	})
	if err != nil {
		fmt.Fprintf(stderr, "init service: %v\n", err)
		return 1
	}

	srv := server.NewServer(cfg.Server.Addr, svc, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			return 1
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", "error", err)
			return 1
		}
	}

	return 0
}
