package game

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a World
type Status int

const (
	StatusWaitingForPlayers Status = iota
	StatusInProgress
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusWaitingForPlayers:
		return "waiting_for_players"
	case StatusInProgress:
		return "in_progress"
	case StatusFinished:
		return "finished"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Player is a connected (or departed) participant
type Player struct {
	ID        string
	Name      string
	Color     string
	JoinIndex int
	Departed  bool
}

// Planet is a map node that produces units for its owner.
// OwnerID is empty for neutral planets.
type Planet struct {
	ID             int
	X              int
	Y              int
	Size           int
	OwnerID        string
	Units          int
	ProductionRate int
}

// Owned reports whether the planet belongs to a player
func (p Planet) Owned() bool {
	return p.OwnerID != ""
}

// Fleet is a committed transfer of units between two planets
type Fleet struct {
	ID               string
	OwnerID          string
	FromPlanetID     int
	ToPlanetID       int
	UnitCount        int
	LaunchTime       time.Time
	EstimatedArrival time.Time
}

// Outcome describes how a finished game ended. WinnerID is empty on stalemate.
type Outcome struct {
	WinnerID string
	Reason   string
}

// Stalemate reports whether nobody survived
func (o Outcome) Stalemate() bool {
	return o.WinnerID == ""
}

// Snapshot is a consistent copy of the World taken under the engine lock
type Snapshot struct {
	Status  Status
	Width   int
	Height  int
	Players []Player
	Planets []Planet
	Fleets  []Fleet
}

// Planet returns the planet with the given id from the snapshot
func (s Snapshot) Planet(id int) (Planet, bool) {
	for _, p := range s.Planets {
		if p.ID == id {
			return p, true
		}
	}
	return Planet{}, false
}

// Rules holds the tunable game constants
type Rules struct {
	MinPlayers       int
	StartingGarrison int
	FleetSpeed       float64 // distance units per second
	Palette          []string
}

// Game constants
const (
	DefaultMinPlayers       = 2
	DefaultStartingGarrison = 50
	DefaultFleetSpeed       = 50.0
	DefaultTickInterval     = time.Second

	StalemateReason = "stalemate"
)

// DefaultPalette is assigned round-robin by join order
var DefaultPalette = []string{"red", "blue", "green", "yellow", "purple", "orange"}

// DefaultRules returns the reference rule set
func DefaultRules() Rules {
	palette := make([]string, len(DefaultPalette))
	copy(palette, DefaultPalette)
	return Rules{
		MinPlayers:       DefaultMinPlayers,
		StartingGarrison: DefaultStartingGarrison,
		FleetSpeed:       DefaultFleetSpeed,
		Palette:          palette,
	}
}

// Command validation errors
var (
	ErrEmptyName         = errors.New("player name must not be empty")
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrGameNotInProgress = errors.New("game is not in progress")
	ErrUnknownPlanet     = errors.New("unknown planet")
	ErrNotOwner          = errors.New("planet is not owned by player")
	ErrNoUnits           = errors.New("planet has no units")
	ErrInvalidPercentage = errors.New("percentage must be between 1 and 100")
	ErrInvalidMap        = errors.New("invalid map")
)
