// Command phlex is the demo entry point wiring a small end-to-end
// pipeline (internal/demo) through the real scheduler, persistence, and
// monitor packages. CLI argument parsing and the pipeline it drives are
// ambient scaffolding, not the framework's tested contract.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sabasehrish/phlex/internal/cli"
	"github.com/sabasehrish/phlex/internal/ctxlog"
	"github.com/sabasehrish/phlex/internal/demo"
	"github.com/sabasehrish/phlex/internal/persistence"
	"resty.dev/v3"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(outW io.Writer, args []string) error {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := newLogger(cfg.LogFormat, cfg.LogLevel)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	var backend persistence.Backend
	if cfg.PersistAddr != "" {
		backend = persistence.NewHTTP(cfg.PersistAddr, resty.New())
	}

	result, err := demo.Run(ctx, demo.Options{
		Events:     cfg.Events,
		Backend:    backend,
		MonitorURL: cfg.MonitorURL,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(outW, "sum of events: %d\n", result.Sum)
	if len(result.Failures) > 0 {
		fmt.Fprintf(outW, "%d id(s) failed:\n", len(result.Failures))
		for _, f := range result.Failures {
			fmt.Fprintf(outW, "  %s\n", f.Error())
		}
	}
	return nil
}

func newLogger(format, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
