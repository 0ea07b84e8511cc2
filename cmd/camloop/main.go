package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"camloop/internal/bootstrap"
	"camloop/internal/cli"
	"camloop/internal/logging"
	"camloop/internal/output"
	"camloop/internal/preview"
	"camloop/internal/uiqueue"
)

func main() {
	if err := run(); err != nil {
		output.NewFormatter(os.Stderr).Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	formatter := output.NewFormatter(os.Stdout)
	sink := preview.NewSink(nil, nil)

	services, err := bootstrap.Build(bootstrap.Runtime{
		Events:     output.NewEventPrinter(formatter),
		Sink:       sink,
		Dispatcher: uiqueue.Inline{},
		NewLogger: func(level string) zerolog.Logger {
			return logging.NewConsole(os.Stderr, level)
		},
	})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	defer services.Controller.Close(context.Background())

	deps := &cli.Dependencies{
		Controller: services.Controller,
		Catalog:    services.Catalog,
		Frames:     sink,
		Out:        formatter,
		Stdout:     os.Stdout,
	}

	return cli.NewRootCmd(deps).ExecuteContext(context.Background())
}
