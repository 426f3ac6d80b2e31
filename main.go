// ABOUTME: Entry point for the nexuscrm CLI, TUI, web server and MCP server
// ABOUTME: Loads config, seeds the contact store and dispatches to cobra commands
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/nexuscrm/cli"
	"github.com/harperreed/nexuscrm/config"
	"github.com/harperreed/nexuscrm/db"
	"github.com/harperreed/nexuscrm/logging"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	open := db.OpenDatabase
	if cfg.SeedFixture {
		open = db.OpenSeeded
	}
	database, err := open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(cfg, logger, database)
	return cli.NewRootCmd(app, version).ExecuteContext(ctx)
}
