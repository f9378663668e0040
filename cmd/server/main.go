package main

import (
	"context"
	"fmt"
	"log"

	"github.com/fzon/storefront/internal/buildinfo"
	"github.com/fzon/storefront/internal/logging"
	"github.com/fzon/storefront/internal/server"
	"github.com/fzon/storefront/internal/server/config"
)

func main() {

	cfg := config.LoadConfig()
	if cfg.ShowVersion {
		fmt.Println(buildinfo.String())
		return
	}

	ctx := context.Background()
	logger := logging.NewZerologLogger(cfg.LogEnv, cfg.LogLevel)
	logger.Info(ctx, "starting storefront server", "address", cfg.HTTPAddr, "version", buildinfo.Version)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
