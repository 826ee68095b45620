// Command solarrack-server exposes the mounting-system calculator over HTTP.
//
// Settings come from ~/.solarrack/config.json, an optional .env file and the
// SOLARRACK_* environment variables, in increasing order of precedence.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"github.com/piwi3910/SolarRack/internal/config"
	"github.com/piwi3910/SolarRack/internal/dispatch"
	"github.com/piwi3910/SolarRack/internal/logging"
	"github.com/piwi3910/SolarRack/internal/observability"
	"github.com/piwi3910/SolarRack/internal/project"
	"github.com/piwi3910/SolarRack/internal/telemetry"
)

func main() {
	appConfigPath := flag.String("config", project.DefaultConfigPath(), "application config file")
	dotenv := flag.String("env", ".env", "dotenv file, ignored when missing")
	shareURL := flag.String("share-url", os.Getenv("SOLARRACK_SHARE_URL"), "configurator URL put in front of share codes in QR codes")
	flag.Parse()

	if err := run(*appConfigPath, *dotenv, *shareURL); err != nil {
		logging.NewFromEnv().Error(context.Background(), "server stopped", logging.Err(err))
		os.Exit(1)
	}
}

func run(appConfigPath, dotenv, shareURL string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := project.LoadAppConfig(appConfigPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(config.FromAppConfig(app), dotenv)
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Info(ctx, "starting solarrack-server",
		logging.String("addr", cfg.Addr),
		logging.Int("workers", cfg.Workers),
		logging.Duration("dispatch_timeout", cfg.Timeout),
	)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	metrics, err := observability.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	catalog, warnings, err := project.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Warn(ctx, "catalog import", logging.String("warning", w))
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = -1
	}
	d := dispatch.New(catalog, dispatch.Options{
		Timeout:         cfg.Timeout,
		Workers:         workers,
		DisableFallback: !cfg.Fallback,
		Logger:          log,
		Metrics:         metrics,
		Tracer:          otel.Tracer(observability.TracerName),
	})
	defer d.Close()

	sinks, store, err := openSinks(ctx, cfg, log)
	if err != nil {
		return err
	}
	publisher := telemetry.NewPublisher(log.With(logging.String("component", "telemetry")), telemetry.DefaultBuffer, sinks...)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn(context.Background(), "close telemetry", logging.Err(err))
		}
	}()

	srv := &server{
		dispatcher: d,
		metrics:    metrics,
		telemetry:  publisher,
		snapshots:  store,
		log:        log,
		shareURL:   shareURL,
	}
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.routes(cfg.MaxConcurrent),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", logging.String("addr", cfg.Addr))
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openSinks builds the configured telemetry sinks. The SQLite sink doubles as
// the store behind /api/v1/telemetry/recent.
func openSinks(ctx context.Context, cfg config.Server, log logging.Logger) ([]telemetry.Sink, snapshotStore, error) {
	var sinks []telemetry.Sink
	var store snapshotStore
	if cfg.DatabasePath != "" {
		db, err := telemetry.NewSQLiteSink(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, db)
		store = db
		log.Info(ctx, "telemetry database opened", logging.String("path", cfg.DatabasePath))
	}
	if cfg.WebhookURL != "" {
		sinks = append(sinks, telemetry.NewWebhookSink(cfg.WebhookURL, nil))
		log.Info(ctx, "telemetry webhook enabled")
	}
	return sinks, store, nil
}
