// Copyright 2026 The Sbtlink Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/sbtlink/sbtlink/lib/config"
	"github.com/sbtlink/sbtlink/lib/discover"
	"github.com/sbtlink/sbtlink/lib/version"
	"github.com/sbtlink/sbtlink/relay"
	"github.com/sbtlink/sbtlink/transport"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code: 0 after the relay's completion
// signal (including sessions ended by a connection failure), 1 for any
// error before the relay is established.
func run() int {
	flags := pflag.NewFlagSet("sbtlink", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to config file (overrides SBTLINK_CONFIG)")
	serverURI := flags.String("server", "", "server URI, e.g. tcp://127.0.0.1:5746 (skips discovery)")
	logLevel := flags.String("log-level", "", "minimum log severity: debug, info, warn, error")
	showVersion := flags.BoolP("version", "V", false, "print version and exit")
	flags.Usage = printUsage

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "sbtlink: %v\n", err)
		return 1
	}
	if *showVersion {
		fmt.Printf("sbtlink %s\n", version.Info())
		return 0
	}
	if flags.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "sbtlink: unexpected argument: %s\n", flags.Arg(0))
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sbtlink: %v\n", err)
		return 1
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "sbtlink: %v\n", err)
			return 1
		}
	}

	// Stdout carries protocol bytes; every diagnostic goes to stderr.
	level := cfg.Level()
	if os.Getenv("SBTLINK_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	uri, err := resolveServerURI(*serverURI, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sbtlink: %v\n", err)
		return 1
	}

	conn, err := transport.Connect(uri, cfg.Timeout())
	if err != nil {
		fmt.Fprintf(os.Stderr, "sbtlink: %v\n", err)
		return 1
	}
	logger.Info("connected", "uri", uri)

	// A dedicated handle for the interrupt path: shutting the socket
	// down is the only way to unblock the pumps, so the signal handler
	// owns a clone and forces teardown through it.
	interruptConn, err := conn.Clone()
	if err != nil {
		conn.Shutdown(transport.Both)
		fmt.Fprintf(os.Stderr, "sbtlink: %v\n", err)
		return 1
	}
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signals
		logger.Info("interrupt, shutting down connection", "signal", sig.String())
		if err := interruptConn.Shutdown(transport.Both); err != nil {
			logger.Error("shutdown on interrupt failed", "error", err)
		}
	}()

	bridge := &relay.Relay{
		Conn:   conn,
		Input:  os.Stdin,
		Output: os.Stdout,
		Logger: logger,
	}
	if err := bridge.Run(); err != nil {
		// A failed session still exits 0: every frame written to
		// stdout was complete, and a dropped connection is the normal
		// way a session ends. The error is recorded for diagnosis.
		logger.Error("session failed", "error", err)
	}
	return 0
}

// loadConfig loads the config file named by the flag, falling back to
// the SBTLINK_CONFIG environment variable and then to defaults.
func loadConfig(flagPath string) (*config.Config, error) {
	if flagPath != "" {
		return config.LoadFile(flagPath)
	}
	return config.Load()
}

// resolveServerURI picks the server address: explicit flag first, then
// the config override, then active.json discovery from the configured
// start directory (default: the working directory).
func resolveServerURI(flagURI string, cfg *config.Config) (string, error) {
	if flagURI != "" {
		return flagURI, nil
	}
	if cfg.ServerURI != "" {
		return cfg.ServerURI, nil
	}

	startDir := cfg.Discovery.StartDir
	if startDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("working directory: %w", err)
		}
		startDir = cwd
	}
	return discover.ServerURI(startDir, cfg.Discovery.File)
}

func printUsage() {
	fmt.Print(`sbtlink - Bridge stdio to a running sbt server socket

USAGE
    sbtlink [flags]

FLAGS
    --config <path>      Config file (default: $SBTLINK_CONFIG, else built-in defaults)
    --server <uri>       Server URI (tcp://host:port or local://path); skips discovery
    --log-level <level>  Minimum log severity: debug, info, warn, error
    -V, --version        Print version and exit
    -h, --help           Show this help

The server address is normally discovered from project/target/active.json,
searched for in the working directory and its ancestors. Logs go to stderr;
stdout is reserved for protocol bytes.

ENVIRONMENT
    SBTLINK_CONFIG   Path to the config file
    SBTLINK_DEBUG    Force debug logging
`)
}
