package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultUsesReferenceValues(t *testing.T) {
	for _, key := range []string{"GALAXY_PORT", "GALAXY_TICK", "GALAXY_MIN_PLAYERS", "GALAXY_MAP"} {
		t.Setenv(key, "")
	}

	c := Default()
	if c.Port != "8080" {
		t.Errorf("Port = %q, want 8080", c.Port)
	}
	if c.TickInterval != time.Second {
		t.Errorf("TickInterval = %s, want 1s", c.TickInterval)
	}
	if c.MinPlayers != 2 {
		t.Errorf("MinPlayers = %d, want 2", c.MinPlayers)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestDefaultReadsEnvironment(t *testing.T) {
	t.Setenv("GALAXY_PORT", "9000")
	t.Setenv("GALAXY_TICK", "250ms")
	t.Setenv("GALAXY_MIN_PLAYERS", "3")
	t.Setenv("GALAXY_CMD_RATE", "not-a-number")

	c := Default()
	if c.Port != "9000" {
		t.Errorf("Port = %q, want 9000", c.Port)
	}
	if c.TickInterval != 250*time.Millisecond {
		t.Errorf("TickInterval = %s, want 250ms", c.TickInterval)
	}
	if c.MinPlayers != 3 {
		t.Errorf("MinPlayers = %d, want 3", c.MinPlayers)
	}
	if c.CmdRate != 20 {
		t.Errorf("unparsable env must fall back, CmdRate = %g", c.CmdRate)
	}
}

func TestRegisterFlagsOverridesDefaults(t *testing.T) {
	c := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	if err := fs.Parse([]string{"-host", "0.0.0.0", "-port", "7000", "-tick", "2s", "-cmd-rate", "0"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := c.Address(); got != "0.0.0.0:7000" {
		t.Errorf("Address() = %q", got)
	}
	if c.TickInterval != 2*time.Second {
		t.Errorf("TickInterval = %s", c.TickInterval)
	}
	if c.CmdRate != 0 {
		t.Errorf("CmdRate = %g, want 0", c.CmdRate)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty port", func(c *Config) { c.Port = "" }, "port"},
		{"zero tick", func(c *Config) { c.TickInterval = 0 }, "tick interval"},
		{"no players", func(c *Config) { c.MinPlayers = 0 }, "min players"},
		{"negative garrison", func(c *Config) { c.StartingGarrison = -1 }, "garrison"},
		{"zero speed", func(c *Config) { c.FleetSpeed = 0 }, "fleet speed"},
		{"zero queue", func(c *Config) { c.QueueSize = 0 }, "queue size"},
		{"negative rate", func(c *Config) { c.CmdRate = -1 }, "command rate"},
		{"zero burst", func(c *Config) { c.CmdRate = 5; c.CmdBurst = 0 }, "command burst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestRulesAndMap(t *testing.T) {
	c := Default()
	c.MinPlayers = 4
	c.FleetSpeed = 25
	c.MapFile = ""

	rules := c.Rules()
	if rules.MinPlayers != 4 || rules.FleetSpeed != 25 {
		t.Errorf("Rules() = %+v", rules)
	}
	if len(rules.Palette) == 0 {
		t.Error("Rules() must keep the default palette")
	}

	m, err := c.LoadMap()
	if err != nil {
		t.Fatalf("LoadMap: %v", err)
	}
	if len(m.Planets) != 3 {
		t.Errorf("default map has %d planets, want 3", len(m.Planets))
	}
}

func TestLoadMapFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.json")
	body := `{"width":100,"height":100,"planets":[{"planetId":7,"x":1,"y":2,"size":3,"units":4,"productionRate":5}]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	c := Default()
	c.MapFile = path
	m, err := c.LoadMap()
	if err != nil {
		t.Fatalf("LoadMap: %v", err)
	}
	if len(m.Planets) != 1 || m.Planets[0].ID != 7 || m.Width != 100 {
		t.Errorf("LoadMap() = %+v", m)
	}

	c.MapFile = filepath.Join(t.TempDir(), "missing.json")
	if _, err := c.LoadMap(); err == nil {
		t.Error("missing map file must fail")
	}
}
