package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/devcms/internal/buildinfo"
	"github.com/dmitrijs2005/devcms/internal/client/cli"
	"github.com/dmitrijs2005/devcms/internal/client/config"
	"github.com/dmitrijs2005/devcms/internal/client/di"
	"github.com/dmitrijs2005/devcms/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	injector := di.SetupContainer(cfg, logger)

	app, err := cli.NewApp(injector)
	if err != nil {
		_ = di.Close(injector)
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

	if err := di.Close(injector); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
