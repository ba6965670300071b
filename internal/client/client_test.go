package client

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"galaxy-wars/internal/config"
	"galaxy-wars/internal/network"
	"galaxy-wars/internal/server"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func owner(id string) *string { return &id }

func startedView() *View {
	v := NewView()
	v.Apply(&network.ConnectResponse{Status: network.StatusSuccess, PlayerID: "me"}, t0)
	v.Apply(&network.GameStart{
		Map: network.MapData{Width: 800, Height: 600, Planets: []network.PlanetData{
			{PlanetID: 1, X: 0, Y: 0, OwnerID: owner("me"), Units: 80, ProductionRate: 5},
			{PlanetID: 2, X: 100, Y: 0, OwnerID: owner("foe"), Units: 40, ProductionRate: 3},
			{PlanetID: 3, X: 0, Y: 50, Units: 50, ProductionRate: 2},
			{PlanetID: 4, X: 50, Y: 0, Units: 10, ProductionRate: 1},
		}},
		Players: []network.PlayerData{
			{PlayerID: "me", Name: "Bot", Color: "red"},
			{PlayerID: "foe", Name: "Foe", Color: "blue"},
		},
	}, t0)
	return v
}

func TestViewApply(t *testing.T) {
	v := startedView()
	if v.PlayerID != "me" || !v.Started || len(v.Planets) != 4 {
		t.Fatalf("view = %+v", v)
	}

	v.Apply(&network.PlanetUpdate{Updates: []network.PlanetData{
		{PlanetID: 4, X: 50, Y: 0, OwnerID: owner("foe"), Units: 3, ProductionRate: 1},
	}}, t0)
	if v.Owner(4) != "foe" || v.Planets[4].Units != 3 {
		t.Errorf("planet 4 = %+v", v.Planets[4])
	}
	if v.PlayerName("foe") != "Foe" || v.PlayerName("") != "neutral" || v.PlayerName("ghost") != "ghost" {
		t.Error("PlayerName resolution is wrong")
	}

	v.Apply(&network.GameOver{Reason: "stalemate"}, t0)
	if v.Over == nil || v.Over.WinnerID != nil {
		t.Errorf("Over = %+v", v.Over)
	}
}

func TestViewExpiresArrivedFleets(t *testing.T) {
	v := startedView()
	v.Apply(&network.FleetLaunched{
		FleetID: "f1", OwnerID: "me", FromPlanetID: 1, ToPlanetID: 4, UnitCount: 10,
		StartTime: t0, EstimatedArrivalTime: t0.Add(time.Second),
	}, t0)
	if len(v.Fleets) != 1 {
		t.Fatalf("fleets = %d, want 1", len(v.Fleets))
	}

	v.Apply(&network.PlanetUpdate{}, t0.Add(time.Second))
	if len(v.Fleets) != 0 {
		t.Errorf("arrived fleet still tracked")
	}
}

func TestChooseMove(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v *View)
		want   network.SendUnits
		ok     bool
	}{
		{
			// 75% of 80 is 60: planet 4 (10) is the weakest beatable target.
			name: "weakest beatable target",
			want: network.SendUnits{FromPlanetID: 1, ToPlanetID: 4, Percentage: AttackPercentage},
			ok:   true,
		},
		{
			name: "skips planets already targeted",
			mutate: func(v *View) {
				v.Apply(&network.FleetLaunched{
					FleetID: "f", OwnerID: "me", FromPlanetID: 1, ToPlanetID: 4,
					UnitCount: 5, StartTime: t0, EstimatedArrivalTime: t0.Add(time.Hour),
				}, t0)
			},
			// Planet 2 needs 40 + 2 ticks * 3 = 46 < 60.
			want: network.SendUnits{FromPlanetID: 1, ToPlanetID: 2, Percentage: AttackPercentage},
			ok:   true,
		},
		{
			name: "nothing beatable",
			mutate: func(v *View) {
				p := v.Planets[1]
				p.Units = 10
				v.Planets[1] = p
			},
		},
		{
			name: "no planets left",
			mutate: func(v *View) {
				p := v.Planets[1]
				p.OwnerID = owner("foe")
				v.Planets[1] = p
			},
		},
		{
			name:   "game over",
			mutate: func(v *View) { v.Over = &network.GameOver{Reason: "stalemate"} },
		},
		{
			name:   "not started",
			mutate: func(v *View) { v.Started = false },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := startedView()
			if tt.mutate != nil {
				tt.mutate(v)
			}
			got, ok := ChooseMove(v, 50)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v (move %+v)", ok, tt.ok, got)
			}
			if ok && got != tt.want {
				t.Errorf("move = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDisplayGameOver(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	d := NewDisplay(&buf, "bot-1")
	v := startedView()

	d.PrintGameOver(v, network.GameOver{WinnerID: owner("me"), Reason: "Player Bot has conquered the galaxy!"})
	d.PrintGameOver(v, network.GameOver{WinnerID: owner("foe"), Reason: "Player Foe has conquered the galaxy!"})
	d.PrintCapture(v, 4, "", "foe")

	out := buf.String()
	for _, want := range []string{"[bot-1] [VICTORY]", "[bot-1] [DEFEAT]", "planet 4: neutral -> Foe"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBotWinsAgainstIdlePlayer(t *testing.T) {
	color.NoColor = true

	mapFile := filepath.Join(t.TempDir(), "duel.json")
	layout := `{"width":100,"height":100,"planets":[
		{"planetId":1,"x":0,"y":0,"size":10,"units":0,"productionRate":10},
		{"planetId":2,"x":50,"y":0,"size":10,"units":0,"productionRate":0}]}`
	if err := os.WriteFile(mapFile, []byte(layout), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.MapFile = mapFile
	cfg.MinPlayers = 2
	cfg.StartingGarrison = 50
	cfg.FleetSpeed = 500
	cfg.TickInterval = 20 * time.Millisecond
	cfg.CmdRate = 0

	srv, err := server.NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go srv.Serve(ctx, ln)
	<-srv.Ready()

	bot := NewClient(Config{
		ServerAddr: ln.Addr().String(),
		Name:       "Bot",
		Interval:   20 * time.Millisecond,
		FleetSpeed: cfg.FleetSpeed,
		Output:     &bytes.Buffer{},
	})
	type result struct {
		over *network.GameOver
		err  error
	}
	done := make(chan result, 1)
	go func() {
		over, err := bot.Run(ctx)
		done <- result{over, err}
	}()

	// The bot must join first to own the producing planet.
	for len(srv.Engine().Snapshot().Players) == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("bot never joined")
		case <-time.After(5 * time.Millisecond):
		}
	}
	botID := srv.Engine().Snapshot().Players[0].ID

	idle, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer idle.Close()
	data, _ := network.Encode(network.ConnectRequest{PlayerName: "Idle"})
	if _, err := idle.Write(data); err != nil {
		t.Fatalf("write: %v", err)
	}

	res := <-done
	if res.err != nil {
		t.Fatalf("Run: %v", res.err)
	}
	if res.over == nil || res.over.WinnerID == nil || *res.over.WinnerID != botID {
		t.Fatalf("game over = %+v, want bot %s to win", res.over, botID)
	}
	if res.over.Reason != "Player Bot has conquered the galaxy!" {
		t.Errorf("reason = %q", res.over.Reason)
	}
}
