package main

import (
	"context"
	"fmt"
	"os"

	"spendbook/internal/chart"
	"spendbook/internal/cli"
	"spendbook/internal/log"
	"spendbook/internal/services"
)

func main() {
	cli.LoadEnvFile()

	root := newRootCmd(&app{
		out:      os.Stdout,
		open:     openFromEnv,
		renderer: chart.BarChartRenderer{},
	})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openFromEnv opens the backend named by the environment. Change events
// are published as they are by the server.
func openFromEnv(ctx context.Context) (*services.ExpenseService, func() error, error) {
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentCLI)
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, nil, err
	}
	res, err := cli.OpenBackend(ctx, logger, cfg, true)
	if err != nil {
		return nil, nil, err
	}
	return res.Service, res.Cleanup, nil
}
