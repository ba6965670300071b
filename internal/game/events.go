package game

//go:generate go tool mockgen -source=events.go -destination=mocks/mock_events.go -package=mocks -exclude_interfaces=Event

// Event is a state change the engine reports to its sink
type Event interface {
	isEvent()
}

// GameStarted is emitted once, when the world enters InProgress
type GameStarted struct {
	Width   int
	Height  int
	Planets []Planet
	Players []Player
}

// PlanetsChanged carries snapshots of planets mutated by a command or tick
type PlanetsChanged struct {
	Planets []Planet
}

// FleetLaunched is emitted when a send order puts a fleet in flight
type FleetLaunched struct {
	Fleet Fleet
}

// GameOver is emitted once, when the world enters Finished
type GameOver struct {
	Outcome Outcome
}

func (GameStarted) isEvent()    {}
func (PlanetsChanged) isEvent() {}
func (FleetLaunched) isEvent()  {}
func (GameOver) isEvent()       {}

// EventSink receives engine events. Publish is called while the world lock is
// held, so events arrive in the order the state changed; implementations must
// not block and must not call back into the Engine.
type EventSink interface {
	Publish(event Event)
}

// EventSinkFunc adapts a function to EventSink
type EventSinkFunc func(Event)

func (f EventSinkFunc) Publish(event Event) { f(event) }
