package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/langowen/exchange-rates/deploy/config"
	fetcherApp "github.com/langowen/exchange-rates/internal/currency_fetcher/app"
)

func main() {
	cfg := config.NewConfig()

	ctx, cancel := context.WithCancel(context.Background())

	app := fetcherApp.NewFetcherApp(cfg)
	fetcherDone := app.Start(ctx)

	done := make(chan os.Signal, 1)

	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-done
	slog.Info("Gracefully shutting down")

	cancel()

	<-fetcherDone
	slog.Info("fetcher stopped")
}
