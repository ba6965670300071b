package game

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// World is the authoritative game state. It is not safe for concurrent use;
// Engine serializes every access.
type World struct {
	rules  Rules
	width  int
	height int
	status Status

	players map[string]*Player
	order   []string // join order

	planets   map[int]*Planet
	planetIDs []int // ascending

	fleets map[string]*Fleet

	newID func() string
}

// NewWorld creates a world in WaitingForPlayers from the given map
func NewWorld(m MapSpec, rules Rules) (*World, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if len(rules.Palette) == 0 {
		rules.Palette = DefaultRules().Palette
	}
	if rules.MinPlayers <= 0 {
		rules.MinPlayers = DefaultMinPlayers
	}
	if rules.FleetSpeed <= 0 {
		rules.FleetSpeed = DefaultFleetSpeed
	}

	w := &World{
		rules:   rules,
		width:   m.Width,
		height:  m.Height,
		status:  StatusWaitingForPlayers,
		players: make(map[string]*Player),
		planets: make(map[int]*Planet, len(m.Planets)),
		fleets:  make(map[string]*Fleet),
		newID:   uuid.NewString,
	}
	for _, spec := range m.Planets {
		w.planets[spec.ID] = &Planet{
			ID:             spec.ID,
			X:              spec.X,
			Y:              spec.Y,
			Size:           spec.Size,
			Units:          spec.Units,
			ProductionRate: spec.ProductionRate,
		}
		w.planetIDs = append(w.planetIDs, spec.ID)
	}
	sort.Ints(w.planetIDs)
	return w, nil
}

// Status returns the lifecycle state
func (w *World) Status() Status {
	return w.status
}

// Rules returns the rule set in effect
func (w *World) Rules() Rules {
	return w.rules
}

// Player returns a copy of the player with the given id
func (w *World) Player(id string) (Player, bool) {
	p, ok := w.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Planet returns a copy of the planet with the given id
func (w *World) Planet(id int) (Planet, bool) {
	p, ok := w.planets[id]
	if !ok {
		return Planet{}, false
	}
	return *p, true
}

// AssignColor picks the palette entry for the n-th joined player (0-based)
func (w *World) AssignColor(joinIndex int) string {
	return w.rules.Palette[joinIndex%len(w.rules.Palette)]
}

// AddPlayer registers a new player with a fresh id and a round-robin color
func (w *World) AddPlayer(name string) (*Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	index := len(w.order)
	p := &Player{
		ID:        w.newID(),
		Name:      name,
		Color:     w.AssignColor(index),
		JoinIndex: index,
	}
	w.players[p.ID] = p
	w.order = append(w.order, p.ID)
	return p, nil
}

// MarkDeparted flags a player as disconnected. Their planets and fleets stay
// in play and keep counting toward the win condition.
func (w *World) MarkDeparted(id string) bool {
	p, ok := w.players[id]
	if !ok || p.Departed {
		return false
	}
	p.Departed = true
	return true
}

func (w *World) presentPlayers() []*Player {
	out := make([]*Player, 0, len(w.order))
	for _, id := range w.order {
		if p := w.players[id]; !p.Departed {
			out = append(out, p)
		}
	}
	return out
}

// TryStart moves WaitingForPlayers to InProgress once enough players are
// present, handing out starting bases in join order. It returns false when
// the guard does not hold; it can succeed at most once per world.
func (w *World) TryStart() bool {
	if w.status != StatusWaitingForPlayers {
		return false
	}
	present := w.presentPlayers()
	if len(present) < w.rules.MinPlayers {
		return false
	}

	w.status = StatusInProgress

	unowned := make([]*Planet, 0, len(w.planetIDs))
	for _, id := range w.planetIDs {
		if p := w.planets[id]; !p.Owned() {
			unowned = append(unowned, p)
		}
	}
	for i, player := range present {
		if i >= len(unowned) {
			break
		}
		unowned[i].OwnerID = player.ID
		unowned[i].Units = w.rules.StartingGarrison
	}
	return true
}

// LaunchFleet validates a send order and, when at least one unit moves,
// deducts the units from the origin and puts a new fleet in flight. A nil
// fleet with a nil error means the order rounded down to zero units.
func (w *World) LaunchFleet(playerID string, fromID, toID, percentage int, now time.Time) (*Fleet, error) {
	if w.status != StatusInProgress {
		return nil, ErrGameNotInProgress
	}
	if _, ok := w.players[playerID]; !ok {
		return nil, ErrUnknownPlayer
	}
	if percentage < 1 || percentage > 100 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPercentage, percentage)
	}
	from, ok := w.planets[fromID]
	if !ok {
		return nil, fmt.Errorf("%w: origin %d", ErrUnknownPlanet, fromID)
	}
	to, ok := w.planets[toID]
	if !ok {
		return nil, fmt.Errorf("%w: destination %d", ErrUnknownPlanet, toID)
	}
	if from.OwnerID != playerID {
		return nil, fmt.Errorf("%w: planet %d", ErrNotOwner, fromID)
	}
	if from.Units <= 0 {
		return nil, fmt.Errorf("%w: planet %d", ErrNoUnits, fromID)
	}

	units := from.Units * percentage / 100
	if units == 0 {
		return nil, nil
	}

	from.Units -= units
	fleet := &Fleet{
		ID:               w.newID(),
		OwnerID:          playerID,
		FromPlanetID:     fromID,
		ToPlanetID:       toID,
		UnitCount:        units,
		LaunchTime:       now,
		EstimatedArrival: now.Add(w.travelTime(from, to)),
	}
	w.fleets[fleet.ID] = fleet
	return fleet, nil
}

func (w *World) travelTime(from, to *Planet) time.Duration {
	dist := math.Hypot(float64(to.X-from.X), float64(to.Y-from.Y))
	return time.Duration(dist / w.rules.FleetSpeed * float64(time.Second))
}

// resolveArrival applies a fleet to its destination planet
func resolveArrival(dest *Planet, fleet *Fleet) {
	if dest.OwnerID == fleet.OwnerID {
		dest.Units += fleet.UnitCount
		return
	}
	if fleet.UnitCount > dest.Units {
		dest.OwnerID = fleet.OwnerID
		dest.Units = fleet.UnitCount - dest.Units
		return
	}
	dest.Units -= fleet.UnitCount
	if dest.Units < 0 {
		dest.Units = 0
	}
}

// planetChanges collects planet snapshots, last write wins per planet id
type planetChanges struct {
	index map[int]int
	list  []Planet
}

func (c *planetChanges) add(p *Planet) {
	if c.index == nil {
		c.index = make(map[int]int)
	}
	if i, ok := c.index[p.ID]; ok {
		c.list[i] = *p
		return
	}
	c.index[p.ID] = len(c.list)
	c.list = append(c.list, *p)
}

// Step advances the world by one tick: production, fleet arrivals, then the
// win check. It returns the changed planets and, if the game just ended, the
// outcome. Outside InProgress it does nothing.
func (w *World) Step(now time.Time) ([]Planet, *Outcome) {
	if w.status != StatusInProgress {
		return nil, nil
	}

	var changes planetChanges

	for _, id := range w.planetIDs {
		p := w.planets[id]
		if p.Owned() {
			p.Units += p.ProductionRate
			changes.add(p)
		}
	}

	arrived := make([]*Fleet, 0)
	for _, f := range w.fleets {
		if !f.EstimatedArrival.After(now) {
			arrived = append(arrived, f)
		}
	}
	sort.Slice(arrived, func(i, j int) bool {
		if !arrived[i].EstimatedArrival.Equal(arrived[j].EstimatedArrival) {
			return arrived[i].EstimatedArrival.Before(arrived[j].EstimatedArrival)
		}
		return arrived[i].ID < arrived[j].ID
	})
	for _, f := range arrived {
		delete(w.fleets, f.ID)
		dest, ok := w.planets[f.ToPlanetID]
		if !ok {
			continue
		}
		resolveArrival(dest, f)
		changes.add(dest)
	}

	return changes.list, w.checkWinner()
}

// ActivePlayers returns the ids of players that own a planet or a fleet in flight
func (w *World) ActivePlayers() []string {
	set := make(map[string]struct{})
	for _, p := range w.planets {
		if p.Owned() {
			set[p.OwnerID] = struct{}{}
		}
	}
	for _, f := range w.fleets {
		set[f.OwnerID] = struct{}{}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (w *World) checkWinner() *Outcome {
	if w.status != StatusInProgress || len(w.players) == 0 {
		return nil
	}

	active := w.ActivePlayers()
	switch len(active) {
	case 0:
		w.status = StatusFinished
		return &Outcome{Reason: StalemateReason}
	case 1:
		w.status = StatusFinished
		name := active[0]
		if p, ok := w.players[active[0]]; ok {
			name = p.Name
		}
		return &Outcome{
			WinnerID: active[0],
			Reason:   fmt.Sprintf("Player %s has conquered the galaxy!", name),
		}
	default:
		return nil
	}
}

// Snapshot copies the full world state
func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		Status:  w.status,
		Width:   w.width,
		Height:  w.height,
		Players: make([]Player, 0, len(w.order)),
		Planets: make([]Planet, 0, len(w.planetIDs)),
		Fleets:  make([]Fleet, 0, len(w.fleets)),
	}
	for _, id := range w.order {
		s.Players = append(s.Players, *w.players[id])
	}
	for _, id := range w.planetIDs {
		s.Planets = append(s.Planets, *w.planets[id])
	}
	for _, f := range w.fleets {
		s.Fleets = append(s.Fleets, *f)
	}
	sort.Slice(s.Fleets, func(i, j int) bool { return s.Fleets[i].ID < s.Fleets[j].ID })
	return s
}
