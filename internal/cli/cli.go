package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// ExitError carries the process exit code a parse failure (or explicit
// -help) should produce.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string { return e.Message }

// Config is the parsed command line for the demo driver.
type Config struct {
	Events      []int
	LogLevel    string
	LogFormat   string
	MonitorURL  string
	PersistAddr string
}

// Parse processes args, returning a populated Config, shouldExit (for
// -help), or an ExitError for a malformed invocation.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	flagSet := flag.NewFlagSet("phlex", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
phlex - a dataflow-graph runtime for hierarchical, streaming event data.

Usage:
  phlex [options]

Options:
`)
		flagSet.PrintDefaults()
	}

	eventsFlag := flagSet.String("events", "3,-1,5", "Comma-separated integer x values, one demo event each.")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level: debug, info, warn, error.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format: text or json.")
	monitorFlag := flagSet.String("monitor-url", "", "Socket.IO URL for the live progress feed. Empty disables it.")
	persistFlag := flagSet.String("persist-addr", "", "Base URL of an HTTP persistence sink. Empty uses the in-memory backend.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid -log-level: must be debug, info, warn, or error"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid -log-format: must be text or json"}
	}

	events, err := parseInts(*eventsFlag)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid -events: %v", err)}
	}

	return &Config{
		Events:      events,
		LogLevel:    logLevel,
		LogFormat:   logFormat,
		MonitorURL:  *monitorFlag,
		PersistAddr: *persistFlag,
	}, false, nil
}

func parseInts(csv string) ([]int, error) {
	parts := strings.Split(csv, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(p, "%d", &n); err != nil {
			return nil, fmt.Errorf("%q is not an integer", p)
		}
		out = append(out, n)
	}
	return out, nil
}
