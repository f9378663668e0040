package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fzon/storefront/internal/buildinfo"
	"github.com/fzon/storefront/internal/client/cli"
	"github.com/fzon/storefront/internal/client/config"
	"github.com/fzon/storefront/internal/logging"
)

func main() {

	cfg := config.LoadConfig()
	if cfg.ShowVersion {
		fmt.Println(buildinfo.String())
		return
	}

	logger, closer, err := logging.NewFileSlogLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "starting storefront client", "server", cfg.ServerURL, "version", buildinfo.Version)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
