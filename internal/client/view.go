package client

import (
	"sort"
	"time"

	"galaxy-wars/internal/network"
)

// View is the client's picture of the game, rebuilt from server messages
type View struct {
	PlayerID string
	Width    int
	Height   int
	Players  map[string]network.PlayerData
	Planets  map[int]network.PlanetData
	Fleets   map[string]network.FleetLaunched
	Started  bool
	Over     *network.GameOver
}

// NewView returns an empty view
func NewView() *View {
	return &View{
		Players: make(map[string]network.PlayerData),
		Planets: make(map[int]network.PlanetData),
		Fleets:  make(map[string]network.FleetLaunched),
	}
}

// Apply folds one server message into the view
func (v *View) Apply(p network.Payload, now time.Time) {
	switch msg := p.(type) {
	case *network.ConnectResponse:
		if msg.Status == network.StatusSuccess {
			v.PlayerID = msg.PlayerID
		}
	case *network.GameStart:
		v.Started = true
		v.Width = msg.Map.Width
		v.Height = msg.Map.Height
		for _, pl := range msg.Players {
			v.Players[pl.PlayerID] = pl
		}
		for _, planet := range msg.Map.Planets {
			v.Planets[planet.PlanetID] = planet
		}
	case *network.PlanetUpdate:
		for _, planet := range msg.Updates {
			v.Planets[planet.PlanetID] = planet
		}
	case *network.FleetLaunched:
		v.Fleets[msg.FleetID] = *msg
	case *network.GameOver:
		over := *msg
		v.Over = &over
	}
	v.expireFleets(now)
}

// expireFleets drops fleets whose arrival time has passed. The server never
// announces arrivals, so this is the only way they leave the view.
func (v *View) expireFleets(now time.Time) {
	for id, f := range v.Fleets {
		if !f.EstimatedArrivalTime.After(now) {
			delete(v.Fleets, id)
		}
	}
}

// Owner returns the player id owning planet id, or ""
func (v *View) Owner(id int) string {
	p, ok := v.Planets[id]
	if !ok || p.OwnerID == nil {
		return ""
	}
	return *p.OwnerID
}

// PlayerName resolves a player id to a display name
func (v *View) PlayerName(id string) string {
	if id == "" {
		return "neutral"
	}
	if p, ok := v.Players[id]; ok {
		return p.Name
	}
	return id
}

// SortedPlanets returns the planets ordered by id
func (v *View) SortedPlanets() []network.PlanetData {
	out := make([]network.PlanetData, 0, len(v.Planets))
	for _, p := range v.Planets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlanetID < out[j].PlanetID })
	return out
}
