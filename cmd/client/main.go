// Galaxy Wars Bot Client - Main Entry Point
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"galaxy-wars/internal/client"
	"galaxy-wars/internal/config"
	"galaxy-wars/internal/game"
	"galaxy-wars/pkg/logger"
)

var (
	version    = "1.0.0"
	serverAddr = flag.String("server", config.GetEnvDefault("GALAXY_SERVER", "localhost:8080"), "Server address (host:port)")
	name       = flag.String("name", "bot", "Player name prefix")
	bots       = flag.Int("bots", 1, "Number of bots to connect")
	interval   = flag.Duration("interval", time.Second, "Delay between moves")
	fleetSpeed = flag.Float64("fleet-speed", game.DefaultFleetSpeed, "Server fleet speed, used to estimate defences")
	logLevel   = flag.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	logFile    = flag.String("log-file", "", "Log file path (optional)")
)

func main() {
	flag.Parse()

	if err := initLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	logger.Client.Info("Starting Galaxy Wars bot client v%s", version)
	logger.Client.Info("Connecting %d bot(s) to %s", *bots, *serverAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	for i := 1; i <= *bots; i++ {
		botName := *name
		if *bots > 1 {
			botName = fmt.Sprintf("%s-%d", *name, i)
		}
		eg.Go(func() error {
			bot := client.NewClient(client.Config{
				ServerAddr: *serverAddr,
				Name:       botName,
				Interval:   *interval,
				FleetSpeed: *fleetSpeed,
			})
			over, err := bot.Run(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", botName, err)
			}
			if over != nil {
				logger.Client.Info("%s finished: %s", botName, over.Reason)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		logger.Client.Error("Client failed: %v", err)
		os.Exit(1)
	}
	logger.Client.Info("Client shutting down gracefully")
}

// initLogging sets up the logging system
func initLogging() error {
	logger.SetGlobalLogLevel(logger.ParseLevel(*logLevel))

	if *logFile != "" {
		if err := logger.Client.SetFile(*logFile); err != nil {
			return fmt.Errorf("failed to set log file: %w", err)
		}
		logger.Client.Info("Logging to file: %s", *logFile)
	}
	return nil
}
