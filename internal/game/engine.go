package game

import (
	"context"
	"sync"
	"time"

	"galaxy-wars/pkg/logger"
)

// Engine owns the World and serializes every mutation of it: commands from
// connection goroutines and the periodic simulation tick take the same lock.
type Engine struct {
	mu    sync.Mutex
	world *World
	sink  EventSink

	interval time.Duration
	now      func() time.Time

	finished chan struct{}
	log      *logger.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the time source used for launches and arrivals
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTickInterval overrides the simulation interval
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// NewEngine creates an engine around world reporting changes to sink
func NewEngine(world *World, sink EventSink, opts ...Option) *Engine {
	if sink == nil {
		sink = EventSinkFunc(func(Event) {})
	}
	e := &Engine{
		world:    world,
		sink:     sink,
		interval: DefaultTickInterval,
		now:      time.Now,
		finished: make(chan struct{}),
		log:      logger.Game,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Join registers a player. bind runs under the world lock before the
// game-start check, so anything it sends reaches the session ahead of
// GameStart.
func (e *Engine) Join(name string, bind func(Player)) (Player, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.world.AddPlayer(name)
	if err != nil {
		return Player{}, err
	}
	e.log.Info("Player %s (ID: %s) joined as %s", p.Name, p.ID, p.Color)

	if bind != nil {
		bind(*p)
	}
	e.tryStartLocked()
	return *p, nil
}

func (e *Engine) tryStartLocked() {
	if !e.world.TryStart() {
		return
	}

	snap := e.world.Snapshot()
	players := make([]Player, 0, len(snap.Players))
	for _, p := range snap.Players {
		if !p.Departed {
			players = append(players, p)
		}
	}
	e.log.Info("Minimum players reached, starting game with %d players", len(players))
	e.sink.Publish(GameStarted{
		Width:   snap.Width,
		Height:  snap.Height,
		Planets: snap.Planets,
		Players: players,
	})
}

// Leave marks a player as departed
func (e *Engine) Leave(playerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.world.MarkDeparted(playerID) {
		e.log.Info("Player %s departed", playerID)
	}
}

// SendUnits executes a send order. A nil fleet with a nil error means the
// order moved zero units and nothing was published.
func (e *Engine) SendUnits(playerID string, fromID, toID, percentage int) (*Fleet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fleet, err := e.world.LaunchFleet(playerID, fromID, toID, percentage, e.now())
	if err != nil || fleet == nil {
		return nil, err
	}

	origin, _ := e.world.Planet(fromID)
	e.log.Debug("Fleet %s launched by %s: %d units %d -> %d", fleet.ID, playerID, fleet.UnitCount, fromID, toID)
	e.sink.Publish(FleetLaunched{Fleet: *fleet})
	e.sink.Publish(PlanetsChanged{Planets: []Planet{origin}})

	launched := *fleet
	return &launched, nil
}

// Tick runs one simulation step. It returns false once the game is finished.
func (e *Engine) Tick() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.world.Status() {
	case StatusWaitingForPlayers:
		return true
	case StatusFinished:
		return false
	}

	changed, outcome := e.world.Step(e.now())
	if len(changed) > 0 {
		e.sink.Publish(PlanetsChanged{Planets: changed})
	}
	if outcome == nil {
		return true
	}

	if outcome.Stalemate() {
		e.log.Info("Game over: stalemate")
	} else {
		e.log.Info("Game over! Winner: %s", outcome.WinnerID)
	}
	e.sink.Publish(GameOver{Outcome: *outcome})
	close(e.finished)
	return false
}

// Run drives Tick on a fixed interval until ctx is cancelled or the game ends
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.log.Info("Simulation loop started (interval %s)", e.interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !e.Tick() {
				e.log.Info("Simulation loop stopped")
				return nil
			}
		}
	}
}

// Finished is closed when the game reaches its final state
func (e *Engine) Finished() <-chan struct{} {
	return e.finished
}

// Status returns the current lifecycle state
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.Status()
}

// Snapshot returns a consistent copy of the world
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.Snapshot()
}
