package main

import (
	"context"
	"errors"
	"os"

	"github.com/gistlabs/gistctl/internal/services"
	"github.com/gistlabs/gistctl/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	gistService := services.NewGistService(config.API.BaseURL, config.API.Token, nil)
	apiService := services.NewAPIService(config.API.BaseURL, nil)

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Gist:    gistService,
		Backend: gistService,
		API:     apiService,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "gistctl",
		Usage:    "Submit videos to the gist pipeline and track processing",
		Version:  "0.2.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
