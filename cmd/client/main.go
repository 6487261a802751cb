package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/dmitrijs2005/weekplanner/internal/client/cli"
	"github.com/dmitrijs2005/weekplanner/internal/client/config"
	"github.com/dmitrijs2005/weekplanner/internal/logging"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	var root cli.CLI
	kctx := kong.Parse(&root, cli.Options(version)...)

	if err := run(kctx, &root); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(kctx *kong.Context, root *cli.CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(root.Config, root.Overrides())
	if err != nil {
		return err
	}

	logger, closer, err := logging.NewClientLogger(logging.ClientOptions{Dir: cfg.LogDir(), Debug: cfg.Debug})
	if err != nil {
		return err
	}
	defer closer.Close()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Start(ctx); err != nil {
		return err
	}

	kctx.BindTo(ctx, (*context.Context)(nil))
	return kctx.Run(app)
}
