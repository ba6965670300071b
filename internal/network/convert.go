package network

import (
	"fmt"

	"galaxy-wars/internal/game"
)

// PlanetDataFrom converts a planet into its wire form
func PlanetDataFrom(p game.Planet) PlanetData {
	data := PlanetData{
		PlanetID:       p.ID,
		X:              p.X,
		Y:              p.Y,
		Size:           p.Size,
		Units:          p.Units,
		ProductionRate: p.ProductionRate,
	}
	if p.Owned() {
		owner := p.OwnerID
		data.OwnerID = &owner
	}
	return data
}

// PlanetDataList converts a slice of planets, preserving order
func PlanetDataList(planets []game.Planet) []PlanetData {
	out := make([]PlanetData, 0, len(planets))
	for _, p := range planets {
		out = append(out, PlanetDataFrom(p))
	}
	return out
}

// PlayerDataFrom converts a player into its wire form
func PlayerDataFrom(p game.Player) PlayerData {
	return PlayerData{PlayerID: p.ID, Name: p.Name, Color: p.Color}
}

// FleetLaunchedFrom converts a fleet into a FleetLaunched message
func FleetLaunchedFrom(f game.Fleet) FleetLaunched {
	return FleetLaunched{
		FleetID:              f.ID,
		OwnerID:              f.OwnerID,
		FromPlanetID:         f.FromPlanetID,
		ToPlanetID:           f.ToPlanetID,
		UnitCount:            f.UnitCount,
		StartTime:            f.LaunchTime.UTC(),
		EstimatedArrivalTime: f.EstimatedArrival.UTC(),
	}
}

// GameOverFrom converts an outcome into a GameOver message
func GameOverFrom(o game.Outcome) GameOver {
	msg := GameOver{Reason: o.Reason}
	if !o.Stalemate() {
		winner := o.WinnerID
		msg.WinnerID = &winner
	}
	return msg
}

// FromEvent maps an engine event to the message broadcast for it
func FromEvent(event game.Event) (Payload, error) {
	switch ev := event.(type) {
	case game.GameStarted:
		players := make([]PlayerData, 0, len(ev.Players))
		for _, p := range ev.Players {
			players = append(players, PlayerDataFrom(p))
		}
		return GameStart{
			Map: MapData{
				Width:   ev.Width,
				Height:  ev.Height,
				Planets: PlanetDataList(ev.Planets),
			},
			Players: players,
		}, nil
	case game.PlanetsChanged:
		return PlanetUpdate{Updates: PlanetDataList(ev.Planets)}, nil
	case game.FleetLaunched:
		return FleetLaunchedFrom(ev.Fleet), nil
	case game.GameOver:
		return GameOverFrom(ev.Outcome), nil
	default:
		return nil, fmt.Errorf("no message for event %T", event)
	}
}

// ToPlanet converts wire planet data back into a game planet
func (d PlanetData) ToPlanet() game.Planet {
	p := game.Planet{
		ID:             d.PlanetID,
		X:              d.X,
		Y:              d.Y,
		Size:           d.Size,
		Units:          d.Units,
		ProductionRate: d.ProductionRate,
	}
	if d.OwnerID != nil {
		p.OwnerID = *d.OwnerID
	}
	return p
}
