// Package config holds the server settings and their environment defaults
package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"galaxy-wars/internal/game"
)

// Config holds every server tunable
type Config struct {
	Host     string
	Port     string
	LogLevel string
	LogFile  string
	LogDir   string

	MapFile          string
	TickInterval     time.Duration
	MinPlayers       int
	StartingGarrison int
	FleetSpeed       float64

	QueueSize int
	CmdRate   float64 // frames per second per session, 0 disables
	CmdBurst  int
}

// Default returns the reference settings, overridden by GALAXY_* environment
// variables where set
func Default() Config {
	return Config{
		Host:     GetEnvDefault("GALAXY_HOST", "localhost"),
		Port:     GetEnvDefault("GALAXY_PORT", "8080"),
		LogLevel: GetEnvDefault("GALAXY_LOG_LEVEL", "INFO"),
		LogFile:  GetEnvDefault("GALAXY_LOG_FILE", ""),
		LogDir:   GetEnvDefault("GALAXY_LOG_DIR", ""),

		MapFile:          GetEnvDefault("GALAXY_MAP", ""),
		TickInterval:     getEnvDuration("GALAXY_TICK", game.DefaultTickInterval),
		MinPlayers:       getEnvInt("GALAXY_MIN_PLAYERS", game.DefaultMinPlayers),
		StartingGarrison: getEnvInt("GALAXY_STARTING_GARRISON", game.DefaultStartingGarrison),
		FleetSpeed:       getEnvFloat("GALAXY_FLEET_SPEED", game.DefaultFleetSpeed),

		QueueSize: getEnvInt("GALAXY_QUEUE", 256),
		CmdRate:   getEnvFloat("GALAXY_CMD_RATE", 20),
		CmdBurst:  getEnvInt("GALAXY_CMD_BURST", 40),
	}
}

// RegisterFlags binds the config fields to command-line flags. The current
// field values become the flag defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Host, "host", c.Host, "Server host")
	fs.StringVar(&c.Port, "port", c.Port, "Server port")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (DEBUG, INFO, WARN, ERROR)")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Log file path (optional)")
	fs.StringVar(&c.LogDir, "log-dir", c.LogDir, "Directory for per-component log files (optional)")
	fs.StringVar(&c.MapFile, "map", c.MapFile, "JSON map file (default: built-in 3 planet map)")
	fs.DurationVar(&c.TickInterval, "tick", c.TickInterval, "Simulation tick interval")
	fs.IntVar(&c.MinPlayers, "min-players", c.MinPlayers, "Players required to start the game")
	fs.IntVar(&c.StartingGarrison, "garrison", c.StartingGarrison, "Units on each starting planet")
	fs.Float64Var(&c.FleetSpeed, "fleet-speed", c.FleetSpeed, "Fleet speed in distance units per second")
	fs.IntVar(&c.QueueSize, "queue", c.QueueSize, "Outbound frames buffered per session")
	fs.Float64Var(&c.CmdRate, "cmd-rate", c.CmdRate, "Inbound frames per second per session (0 disables)")
	fs.IntVar(&c.CmdBurst, "cmd-burst", c.CmdBurst, "Inbound frame burst per session")
}

// Validate checks the config for values the server cannot run with
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port must not be empty"))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick interval must be positive, got %s", c.TickInterval))
	}
	if c.MinPlayers < 1 {
		errs = append(errs, fmt.Errorf("min players must be at least 1, got %d", c.MinPlayers))
	}
	if c.StartingGarrison < 0 {
		errs = append(errs, fmt.Errorf("starting garrison must not be negative, got %d", c.StartingGarrison))
	}
	if c.FleetSpeed <= 0 {
		errs = append(errs, fmt.Errorf("fleet speed must be positive, got %g", c.FleetSpeed))
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("queue size must be at least 1, got %d", c.QueueSize))
	}
	if c.CmdRate < 0 {
		errs = append(errs, fmt.Errorf("command rate must not be negative, got %g", c.CmdRate))
	}
	if c.CmdRate > 0 && c.CmdBurst < 1 {
		errs = append(errs, fmt.Errorf("command burst must be at least 1, got %d", c.CmdBurst))
	}
	return errors.Join(errs...)
}

// Address returns the listen address
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Rules returns the game rules the config describes
func (c Config) Rules() game.Rules {
	rules := game.DefaultRules()
	rules.MinPlayers = c.MinPlayers
	rules.StartingGarrison = c.StartingGarrison
	rules.FleetSpeed = c.FleetSpeed
	return rules
}

// LoadMap returns the configured map, or the built-in one
func (c Config) LoadMap() (game.MapSpec, error) {
	if c.MapFile == "" {
		return game.DefaultMap(), nil
	}
	return game.LoadMapFile(c.MapFile)
}

// GetEnvDefault returns the value of key, or defaultValue when unset or empty
func GetEnvDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(GetEnvDefault(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(GetEnvDefault(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(GetEnvDefault(key, ""))
	if err != nil {
		return defaultValue
	}
	return d
}
