package main

import (
	"context"
	"os"

	"github.com/ascentsys/retail-client/internal/catalog"
	"github.com/ascentsys/retail-client/internal/protocol"
	"github.com/ascentsys/retail-client/internal/session"
	"github.com/ascentsys/retail-client/pkg/config"
	"github.com/ascentsys/retail-client/pkg/logger"
	"github.com/ascentsys/retail-client/pkg/metrics"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

// client is the line-oriented caller of the retail core: login, browse the
// catalog, edit the cart, check out. It stands in for the desktop UI and
// stays a thin shell over the session layer.
func main() {
	logg := logger.New(logger.Options{ServiceName: "client"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "client",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	registry := prometheus.NewRegistry()
	client, err := protocol.NewClient(protocol.ClientParams{
		Config:  cfg.Server,
		Logger:  logg,
		Metrics: metrics.NewProtocolMetrics(registry),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build protocol client", err)
		os.Exit(1)
	}

	catalogSvc, err := catalog.NewService(client, catalog.NewDecoder(metrics.NewDecoderMetrics(registry)), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build catalog service", err)
		os.Exit(1)
	}

	sess, err := session.New(session.Params{
		Client:  client,
		Catalog: catalogSvc,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build session", err)
		os.Exit(1)
	}

	ctx := logg.WithEndpoint(context.Background(), cfg.Server.Address)
	logg.Info(ctx, "retail client starting")

	if err := runShell(ctx, sess, os.Stdin, os.Stdout); err != nil {
		logg.Error(ctx, "shell exited with error", err)
		os.Exit(1)
	}
}
