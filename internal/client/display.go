// Package client implements a headless Galaxy Wars bot client
package client

import (
	"io"
	"sync"
	"time"

	"github.com/fatih/color"

	"galaxy-wars/internal/network"
)

// Display prints game events for one bot
type Display struct {
	out  io.Writer
	name string
	mu   sync.Mutex

	serverColor  *color.Color
	connectColor *color.Color
	gameColor    *color.Color
	attackColor  *color.Color
	captureColor *color.Color
	winColor     *color.Color
	loseColor    *color.Color
	warningColor *color.Color
	infoColor    *color.Color
}

// NewDisplay creates a display writing to out, prefixed with the bot's name
func NewDisplay(out io.Writer, name string) *Display {
	if out == nil {
		out = color.Output
	}
	return &Display{
		out:          out,
		name:         name,
		serverColor:  color.New(color.FgCyan, color.Bold),
		connectColor: color.New(color.FgGreen, color.Bold),
		gameColor:    color.New(color.FgYellow, color.Bold),
		attackColor:  color.New(color.FgRed),
		captureColor: color.New(color.FgMagenta, color.Bold),
		winColor:     color.New(color.FgGreen, color.Bold, color.BgBlack),
		loseColor:    color.New(color.FgRed, color.Bold, color.BgBlack),
		warningColor: color.New(color.FgYellow),
		infoColor:    color.New(color.FgWhite),
	}
}

func (d *Display) printf(c *color.Color, tag, format string, args ...interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	timestamp := time.Now().Format("15:04:05")
	c.Fprintf(d.out, "[%s] [%s] [%s] ", timestamp, d.name, tag)
	c.Fprintf(d.out, format+"\n", args...)
}

// PrintServerStatus displays server connection status
func (d *Display) PrintServerStatus(message string) {
	d.printf(d.serverColor, "SERVER", "%s", message)
}

// PrintConnection displays the identity the server assigned
func (d *Display) PrintConnection(playerID string) {
	d.printf(d.connectColor, "CONNECTED", "playing as %s", playerID)
}

// PrintGameStart displays the roster and the map
func (d *Display) PrintGameStart(v *View) {
	d.printf(d.gameColor, "GAME START", "%dx%d map, %d planets, %d players",
		v.Width, v.Height, len(v.Planets), len(v.Players))
	for _, p := range v.SortedPlanets() {
		d.printf(d.infoColor, "PLANET", "#%d at (%d,%d) owner=%s units=%d rate=%d",
			p.PlanetID, p.X, p.Y, v.PlayerName(v.Owner(p.PlanetID)), p.Units, p.ProductionRate)
	}
}

// PrintFleet displays a fleet launch
func (d *Display) PrintFleet(v *View, f network.FleetLaunched) {
	d.printf(d.attackColor, "FLEET", "%s sends %d units %d -> %d (eta %s)",
		v.PlayerName(f.OwnerID), f.UnitCount, f.FromPlanetID, f.ToPlanetID,
		f.EstimatedArrivalTime.Sub(f.StartTime).Round(time.Millisecond))
}

// PrintCapture displays a change of planet ownership
func (d *Display) PrintCapture(v *View, planetID int, from, to string) {
	d.printf(d.captureColor, "CAPTURE", "planet %d: %s -> %s",
		planetID, v.PlayerName(from), v.PlayerName(to))
}

// PrintGameOver displays the result from this bot's point of view
func (d *Display) PrintGameOver(v *View, over network.GameOver) {
	switch {
	case over.WinnerID == nil:
		d.printf(d.warningColor, "GAME OVER", "%s", over.Reason)
	case *over.WinnerID == v.PlayerID:
		d.printf(d.winColor, "VICTORY", "%s", over.Reason)
	default:
		d.printf(d.loseColor, "DEFEAT", "%s", over.Reason)
	}
}

// PrintDisconnect displays another player leaving
func (d *Display) PrintDisconnect(v *View, playerID string) {
	d.printf(d.warningColor, "LEFT", "%s disconnected", v.PlayerName(playerID))
}

// PrintError displays error messages
func (d *Display) PrintError(message string) {
	d.printf(d.loseColor, "ERROR", "%s", message)
}

// PrintInfo displays informational messages
func (d *Display) PrintInfo(message string) {
	d.printf(d.infoColor, "INFO", "%s", message)
}
