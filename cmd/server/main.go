// Galaxy Wars Server - Main Entry Point
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"galaxy-wars/internal/config"
	"galaxy-wars/internal/server"
	"galaxy-wars/pkg/logger"
)

var (
	version   = "1.0.0"
	buildTime = "dev"
	cfg       = config.Default()
	help      = flag.Bool("help", false, "Show help information")
	ver       = flag.Bool("version", false, "Show version information")
)

func init() {
	cfg.RegisterFlags(flag.CommandLine)
}

func main() {
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	if *ver {
		showVersion()
		return
	}

	if err := initLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	logger.Server.Info("Starting Galaxy Wars Server v%s", version)

	if err := cfg.Validate(); err != nil {
		logger.Server.Fatal("Invalid configuration: %v", err)
	}

	gameServer, err := server.NewServer(cfg)
	if err != nil {
		logger.Server.Fatal("Failed to create server: %v", err)
	}

	ctx := setupGracefulShutdown()

	logger.Server.Info("Starting server on %s (tick %s, %d players to start)",
		cfg.Address(), cfg.TickInterval, cfg.MinPlayers)
	if err := gameServer.Run(ctx); err != nil {
		logger.Server.Fatal("Server failed: %v", err)
	}
}

// initLogging sets up the logging system
func initLogging() error {
	logger.SetGlobalLogLevel(logger.ParseLevel(cfg.LogLevel))

	if cfg.LogFile != "" {
		if err := logger.Server.SetFile(cfg.LogFile); err != nil {
			return fmt.Errorf("failed to set log file: %w", err)
		}
		logger.Server.Info("Logging to file: %s", cfg.LogFile)
	}
	if cfg.LogDir != "" {
		if err := logger.InitializeFileLogging(cfg.LogDir); err != nil {
			// Console logging still works
			logger.Server.Warn("Could not initialize file logging: %v", err)
		}
	}
	return nil
}

// setupGracefulShutdown returns a context cancelled on interrupt signals
func setupGracefulShutdown() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Server.Info("Received shutdown signal, stopping server...")
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}

// showHelp displays help information
func showHelp() {
	fmt.Printf(`Galaxy Wars Server v%s

USAGE:
    %s [OPTIONS]

OPTIONS:
    -host string         Server host (default "localhost", env GALAXY_HOST)
    -port string         Server port (default "8080", env GALAXY_PORT)
    -map string          JSON map file (default: built-in 3 planet map)
    -tick duration       Simulation tick interval (default 1s)
    -min-players int     Players required to start the game (default 2)
    -garrison int        Units on each starting planet (default 50)
    -fleet-speed float   Fleet speed in distance units per second (default 50)
    -queue int           Outbound frames buffered per client (default 256)
    -cmd-rate float      Inbound frames per second per client, 0 disables (default 20)
    -cmd-burst int       Inbound frame burst per client (default 40)
    -log-level string    Set log level (DEBUG, INFO, WARN, ERROR) (default "INFO")
    -log-file string     Mirror server logs to a file (optional)
    -log-dir string      Write per-component log files to a directory (optional)
    -help                Show this help message
    -version             Show version information

EXAMPLES:
    # Start server with default settings
    %s

    # Start on all interfaces with debug logging
    %s -host 0.0.0.0 -port 9000 -log-level DEBUG

    # Four player game on a custom map
    %s -min-players 4 -map maps/quad.json

GAME:
    Players connect over TCP and are given a home planet once enough players
    have joined. Owned planets produce units every tick. Send a percentage of
    a planet's units to another planet; larger fleets capture, smaller ones
    are destroyed. The last player holding planets or fleets wins.
`, version, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}

// showVersion displays version information
func showVersion() {
	fmt.Printf(`Galaxy Wars Server
Version: %s
Build Time: %s
`, version, buildTime)
}
