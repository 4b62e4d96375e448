// Command dotail connects to one or more durable objects and tails their
// WebSocket event streams to stdout. Optionally journals events to
// PostgreSQL and exposes Prometheus metrics.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edgeobj/dobject-go/config"
	"github.com/edgeobj/dobject-go/connection"
	"github.com/edgeobj/dobject-go/dobject"
	"github.com/edgeobj/dobject-go/internal/database"
	"github.com/edgeobj/dobject-go/internal/journal"
	"github.com/edgeobj/dobject-go/internal/metrics"
	"github.com/edgeobj/dobject-go/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/dotail.local.yaml", "path to config file")
	objects := flag.String("objects", "", "comma-separated object IDs to tail")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting dotail",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	if *objects == "" {
		logger.Error("no objects given, use -objects id1,id2,...")
		os.Exit(1)
	}
	objectIDs := strings.Split(*objects, ",")

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded", "base_url", cfg.Service.BaseURL)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, objectIDs, logger); err != nil {
		logger.Error("dotail failed", "error", err)
		os.Exit(1)
	}

	logger.Info("dotail stopped")
}

func run(ctx context.Context, cfg *config.Config, objectIDs []string, logger *slog.Logger) error {
	client := dobject.NewClient(
		cfg.Service.BaseURL,
		cfg.Service.APIKey,
		dobject.WithTimeout(cfg.Service.Timeout),
		dobject.WithRetries(cfg.Service.MaxRetries, time.Second),
		dobject.WithLogger(logger),
	)
	defer client.Close()

	// Optional event journal
	var jrnl *journal.Journal
	if cfg.Journal.Enabled {
		logger.Info("connecting to journal database",
			"host", cfg.Journal.Postgres.Host,
			"database", cfg.Journal.Postgres.Name,
		)
		pool, err := database.Connect(ctx, cfg.Journal.Postgres)
		if err != nil {
			return fmt.Errorf("connect journal database: %w", err)
		}
		defer pool.Close()

		if err := database.EnsureSchema(ctx, pool); err != nil {
			return err
		}

		jrnl = journal.New(cfg.Journal, pool, logger)
		if err := jrnl.Start(ctx); err != nil {
			return fmt.Errorf("start journal: %w", err)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			jrnl.Stop(stopCtx)
		}()
	}

	// Optional metrics
	var collectors *metrics.Metrics
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Enabled {
		collectors = metrics.New()
		srv := metrics.NewServer(cfg.Metrics, collectors, logger)
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			return srv.Stop(stopCtx)
		})
	}

	// One shared event channel for all tailed objects
	events := make(chan connection.Event, cfg.Connection.BufferSize)
	done := make(chan struct{})

	for _, objectID := range objectIDs {
		actor, err := client.Connect(objectID, dobject.WithActorConfig(func(ac *connection.ActorConfig) {
			ac.AutoReconnect = *cfg.Connection.AutoReconnect
			ac.BackoffInitial = cfg.Connection.BackoffInitial
			ac.BackoffMax = cfg.Connection.BackoffMax
			ac.Transport.PingInterval = cfg.Connection.PingInterval
			ac.Transport.PingTimeout = cfg.Connection.PingTimeout
			ac.Transport.WriteTimeout = cfg.Connection.WriteTimeout
			ac.Transport.BufferSize = cfg.Connection.BufferSize
		}))
		if err != nil {
			close(done)
			return fmt.Errorf("connect %s: %w", objectID, err)
		}
		if err := actor.Subscribe(events, done); err != nil {
			close(done)
			return fmt.Errorf("subscribe %s: %w", objectID, err)
		}
		logger.Info("tailing object", "object_id", objectID)
	}

	// Consumer: print to stdout, feed journal and metrics
	g.Go(func() error {
		defer close(done)
		enc := json.NewEncoder(os.Stdout)
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev := <-events:
				if collectors != nil {
					collectors.Observe(ev)
				}
				if jrnl != nil && !jrnl.Offer(ev) {
					logger.Warn("journal buffer full, dropping event",
						"object_id", ev.ObjectID)
				}
				printEvent(enc, ev, logger)
			}
		}
	})

	return g.Wait()
}

// printEvent writes one event as a JSON line on stdout.
func printEvent(enc *json.Encoder, ev connection.Event, logger *slog.Logger) {
	out := struct {
		Object     string          `json:"object"`
		Type       string          `json:"type"`
		Data       json.RawMessage `json:"data,omitempty"`
		Reason     string          `json:"reason,omitempty"`
		ReceivedAt time.Time       `json:"received_at"`
	}{
		Object:     ev.ObjectID,
		Type:       ev.Type.String(),
		ReceivedAt: ev.ReceivedAt,
	}
	if ev.Type == connection.EventMessage {
		if json.Valid(ev.Data) {
			out.Data = ev.Data
		} else {
			quoted, _ := json.Marshal(string(ev.Data))
			out.Data = quoted
		}
	}
	if ev.Reason != nil {
		out.Reason = ev.Reason.Error()
	}
	if err := enc.Encode(out); err != nil {
		logger.Error("write stdout", "error", err)
	}
}
