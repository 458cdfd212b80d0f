package main

import (
	"context"
	"fmt"
	"os"

	"github.com/de-tools/governance-atlas/pkg/runtime/terminal"
	"github.com/de-tools/governance-atlas/pkg/services/config"
)

func main() {
	cli := terminal.NewCLI(terminal.Options{
		Setup:  setup,
		Output: os.Stdout,
		Logs:   os.Stderr,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(ctx context.Context, configPath string) (terminal.Dependencies, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return terminal.Dependencies{}, err
	}
	services, err := cfg.Build(ctx)
	if err != nil {
		return terminal.Dependencies{}, err
	}
	return terminal.Dependencies{
		Service: services.Assessment,
		Archive: services.Archive,
		Close:   services.Close,
	}, nil
}
