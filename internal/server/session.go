package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"galaxy-wars/internal/network"
)

var (
	// ErrBackpressure is returned when a session's outbound queue is full
	ErrBackpressure = errors.New("outbound queue is full")
	// ErrSessionClosed is returned when sending to a closed session
	ErrSessionClosed = errors.New("session is closed")
)

const (
	maxFrameSize = 64 * 1024
	writeTimeout = 10 * time.Second
)

// Session is one client connection. Frames are written by a dedicated
// goroutine draining a bounded queue, so Send never blocks.
type Session struct {
	ID         string
	conn       net.Conn
	remoteAddr string

	writeCh chan []byte
	limiter *rate.Limiter

	mu       sync.RWMutex
	playerID string

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

func newSession(ctx context.Context, conn net.Conn, queueSize int, limiter *rate.Limiter) *Session {
	ctx, cancel := context.WithCancel(ctx)
	return &Session{
		ID:         uuid.NewString(),
		conn:       conn,
		remoteAddr: conn.RemoteAddr().String(),
		writeCh:    make(chan []byte, queueSize),
		limiter:    limiter,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// PlayerID returns the bound player id, or "" before a successful connect
func (s *Session) PlayerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playerID
}

// bind attaches a player id. It fails if one is already bound.
func (s *Session) bind(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playerID != "" {
		return false
	}
	s.playerID = playerID
	return true
}

// Send encodes p and enqueues it
func (s *Session) Send(p network.Payload) error {
	data, err := network.Encode(p)
	if err != nil {
		return err
	}
	return s.sendRaw(data)
}

func (s *Session) sendRaw(data []byte) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case s.writeCh <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

// allow reports whether the inbound rate limit admits another frame
func (s *Session) allow() bool {
	return s.limiter == nil || s.limiter.Allow()
}

// Close tears the connection down. It never blocks and is safe to call
// more than once.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.cancel()
	s.conn.Close()
}

// Done is closed once the session is closing
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Serve runs the read and write loops until the peer disconnects or the
// session is closed. handle is invoked sequentially for each inbound line.
func (s *Session) Serve(handle func(line []byte)) error {
	eg, ctx := errgroup.WithContext(s.ctx)
	eg.Go(func() error {
		defer s.Close()
		return s.readLoop(ctx, handle)
	})
	eg.Go(func() error {
		return s.writeLoop(ctx)
	})
	eg.Go(func() error {
		<-ctx.Done()
		s.Close()
		return nil
	})
	return eg.Wait()
}

func (s *Session) readLoop(ctx context.Context, handle func(line []byte)) error {
	scanner := bufio.NewScanner(s.conn)
	scanner.Buffer(make([]byte, 0, 4096), maxFrameSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		handle(line)
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read from %s: %w", s.remoteAddr, err)
	}
	return nil
}

func (s *Session) writeLoop(ctx context.Context) error {
	w := bufio.NewWriter(s.conn)
	for {
		select {
		case <-ctx.Done():
			return nil
		case data := <-s.writeCh:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := w.Write(data); err != nil {
				s.Close()
				return fmt.Errorf("write to %s: %w", s.remoteAddr, err)
			}
			// Coalesce whatever else is already queued into one flush.
			for n := len(s.writeCh); n > 0; n-- {
				if _, err := w.Write(<-s.writeCh); err != nil {
					s.Close()
					return fmt.Errorf("write to %s: %w", s.remoteAddr, err)
				}
			}
			if err := w.Flush(); err != nil {
				s.Close()
				return fmt.Errorf("write to %s: %w", s.remoteAddr, err)
			}
		}
	}
}
