// Package server implements the TCP server for Galaxy Wars
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"galaxy-wars/internal/config"
	"galaxy-wars/internal/game"
	"galaxy-wars/internal/network"
	"galaxy-wars/pkg/logger"
)

// Server accepts client connections and bridges them to the game engine
type Server struct {
	address   string
	engine    *game.Engine
	registry  *Registry
	queueSize int
	cmdRate   rate.Limit
	cmdBurst  int

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}

	logger *logger.Logger
}

// Option configures a Server
type Option func(*serverOptions)

type serverOptions struct {
	engine []game.Option
}

// WithEngineOptions passes options through to the game engine
func WithEngineOptions(opts ...game.Option) Option {
	return func(o *serverOptions) {
		o.engine = append(o.engine, opts...)
	}
}

// NewServer creates a server for one game described by cfg
func NewServer(cfg config.Config, opts ...Option) (*Server, error) {
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	m, err := cfg.LoadMap()
	if err != nil {
		return nil, fmt.Errorf("failed to load map: %w", err)
	}
	world, err := game.NewWorld(m, cfg.Rules())
	if err != nil {
		return nil, fmt.Errorf("failed to create world: %w", err)
	}

	queueSize := cfg.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}
	s := &Server{
		address:   cfg.Address(),
		registry:  NewRegistry(),
		queueSize: queueSize,
		cmdRate:   rate.Limit(cfg.CmdRate),
		cmdBurst:  cfg.CmdBurst,
		ready:     make(chan struct{}),
		logger:    logger.Server,
	}

	engineOpts := append([]game.Option{game.WithTickInterval(cfg.TickInterval)}, o.engine...)
	s.engine = game.NewEngine(world, s, engineOpts...)
	return s, nil
}

// Engine returns the game engine the server drives
func (s *Server) Engine() *game.Engine {
	return s.engine
}

// Addr returns the listening address once the server is ready
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Ready is closed once the server is accepting connections
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Run listens on the configured address and serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and runs the simulation loop until ctx is
// cancelled. It closes ln and every session before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	close(s.ready)

	s.logger.Info("Server started and listening on %s", ln.Addr())

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return s.engine.Run(ctx)
	})
	eg.Go(func() error {
		<-ctx.Done()
		ln.Close()
		s.registry.CloseAll()
		return nil
	})
	eg.Go(func() error {
		return s.acceptLoop(ctx, ln)
	})

	err := eg.Wait()
	s.logger.Info("Server stopped")
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("Failed to accept connection: %v", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleClient(ctx, conn)
		}()
	}
}

// handleClient serves one connection until it closes
func (s *Server) handleClient(ctx context.Context, conn net.Conn) {
	session := newSession(ctx, conn, s.queueSize, s.newLimiter())
	s.logger.Info("New client connected: %s from %s", session.ID, session.remoteAddr)

	s.registry.Add(session)
	defer s.removeClient(session)

	if err := session.Serve(func(line []byte) { s.processMessage(session, line) }); err != nil {
		s.logger.Warn("Connection %s closed with error: %v", session.ID, err)
	}
}

// removeClient deregisters a session and tells the remaining players
func (s *Server) removeClient(session *Session) {
	session.Close()

	playerID, bound := s.registry.Remove(session)
	if !bound {
		s.logger.Info("Client disconnected: %s", session.ID)
		return
	}

	s.engine.Leave(playerID)
	s.registry.Broadcast(network.PlayerDisconnected{PlayerID: playerID}, session.ID)
	s.logger.Info("Client disconnected: %s (player %s)", session.ID, playerID)
}

func (s *Server) newLimiter() *rate.Limiter {
	if s.cmdRate <= 0 {
		return nil
	}
	return rate.NewLimiter(s.cmdRate, s.cmdBurst)
}

// Publish implements game.EventSink. It runs under the world lock and only
// enqueues.
func (s *Server) Publish(event game.Event) {
	msg, err := network.FromEvent(event)
	if err != nil {
		s.logger.Error("Dropping event: %v", err)
		return
	}
	s.registry.Broadcast(msg, "")
}
