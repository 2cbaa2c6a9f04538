package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ascentsys/retail-client/internal/protocol"
	"github.com/ascentsys/retail-client/pkg/config"
	"github.com/ascentsys/retail-client/pkg/logger"
	"github.com/joho/godotenv"
)

// catalogd is the development stub peer for the retail client: it answers
// authenticate/register against a configured credential map and serves the
// catalog data file for list requests.
func main() {
	logg := logger.New(logger.Options{ServiceName: "catalogd"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "catalogd",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dataFile := cfg.Catalogd.DataFile
	server, err := protocol.NewServer(protocol.ServerParams{
		Logger: logg,
		Users:  cfg.Catalogd.UserMap(),
		Catalog: func() (string, error) {
			// re-read per request so edits to the data file show up live
			body, err := os.ReadFile(dataFile)
			if err != nil {
				return "", err
			}
			return string(body), nil
		},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build server", err)
		os.Exit(1)
	}

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": cfg.Catalogd.ListenAddr,
		"data": dataFile,
	})

	addr, err := server.Listen(ctx, cfg.Catalogd.ListenAddr)
	if err != nil {
		logg.Error(ctx, "failed to listen", err)
		os.Exit(1)
	}
	logg.Info(logg.WithEndpoint(ctx, addr.String()), "catalogd listening")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logg.Info(ctx, "shutting down")
	if err := server.Close(); err != nil {
		logg.Error(ctx, "error closing server", err)
		os.Exit(1)
	}
}
