package client

import (
	"math"

	"galaxy-wars/internal/game"
	"galaxy-wars/internal/network"
)

// AttackPercentage is the share of the strongest planet's garrison sent per move
const AttackPercentage = 75

// ChooseMove picks the bot's next order: from its strongest planet to the
// weakest foreign planet the fleet would capture. It returns false when no
// such move exists.
func ChooseMove(v *View, fleetSpeed float64) (network.SendUnits, bool) {
	if !v.Started || v.Over != nil || v.PlayerID == "" {
		return network.SendUnits{}, false
	}
	if fleetSpeed <= 0 {
		fleetSpeed = game.DefaultFleetSpeed
	}

	planets := v.SortedPlanets()

	var from *network.PlanetData
	for i := range planets {
		p := &planets[i]
		if v.Owner(p.PlanetID) != v.PlayerID {
			continue
		}
		if from == nil || p.Units > from.Units {
			from = p
		}
	}
	if from == nil {
		return network.SendUnits{}, false
	}
	sent := from.Units * AttackPercentage / 100
	if sent == 0 {
		return network.SendUnits{}, false
	}

	targeted := make(map[int]bool)
	for _, f := range v.Fleets {
		if f.OwnerID == v.PlayerID {
			targeted[f.ToPlanetID] = true
		}
	}

	var (
		best     *network.PlanetData
		bestNeed int
	)
	for i := range planets {
		p := &planets[i]
		if v.Owner(p.PlanetID) == v.PlayerID || targeted[p.PlanetID] {
			continue
		}
		need := defenceAtArrival(*from, *p, fleetSpeed)
		if sent <= need {
			continue
		}
		if best == nil || need < bestNeed {
			best, bestNeed = p, need
		}
	}
	if best == nil {
		return network.SendUnits{}, false
	}

	return network.SendUnits{
		FromPlanetID: from.PlanetID,
		ToPlanetID:   best.PlanetID,
		Percentage:   AttackPercentage,
	}, true
}

// defenceAtArrival estimates the garrison the fleet will face, counting one
// production step per started second of travel on owned planets
func defenceAtArrival(from, to network.PlanetData, fleetSpeed float64) int {
	if to.OwnerID == nil {
		return to.Units
	}
	dist := math.Hypot(float64(to.X-from.X), float64(to.Y-from.Y))
	ticks := int(math.Ceil(dist / fleetSpeed))
	return to.Units + ticks*to.ProductionRate
}
