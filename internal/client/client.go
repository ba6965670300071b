package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"galaxy-wars/internal/game"
	"galaxy-wars/internal/network"
	"galaxy-wars/pkg/logger"
)

var (
	errGameOver        = errors.New("game over")
	errConnectRejected = errors.New("connect rejected")
)

// Config configures one bot client
type Config struct {
	ServerAddr string
	Name       string
	Interval   time.Duration // delay between moves
	FleetSpeed float64       // used to estimate defence at arrival
	Output     io.Writer     // display output, stdout when nil
}

// Client is a bot that plays one game over TCP
type Client struct {
	cfg     Config
	display *Display
	logger  *logger.Logger
	now     func() time.Time

	conn   net.Conn
	writer *bufio.Writer
	wmu    sync.Mutex

	mu   sync.Mutex
	view *View
}

// NewClient creates a new client instance
func NewClient(cfg Config) *Client {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.FleetSpeed <= 0 {
		cfg.FleetSpeed = game.DefaultFleetSpeed
	}
	return &Client{
		cfg:     cfg,
		display: NewDisplay(cfg.Output, cfg.Name),
		logger:  logger.Client,
		now:     time.Now,
		view:    NewView(),
	}
}

// Run connects, joins and plays until the game ends or ctx is cancelled.
// It returns the final GameOver, or nil if the game did not finish.
func (c *Client) Run(ctx context.Context) (*network.GameOver, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.cfg.ServerAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()
	return c.play(ctx, conn)
}

// play runs the bot over an established connection
func (c *Client) play(ctx context.Context, conn net.Conn) (*network.GameOver, error) {
	c.conn = conn
	c.writer = bufio.NewWriter(conn)
	c.display.PrintServerStatus("Connected to " + conn.RemoteAddr().String())

	if err := c.sendMessage(network.ConnectRequest{PlayerName: c.cfg.Name}); err != nil {
		return nil, err
	}

	parent := ctx
	eg, ctx := errgroup.WithContext(parent)
	eg.Go(func() error {
		return c.messageHandler()
	})
	eg.Go(func() error {
		return c.actLoop(ctx)
	})
	eg.Go(func() error {
		<-ctx.Done()
		conn.Close()
		return nil
	})

	err := eg.Wait()

	c.mu.Lock()
	over := c.view.Over
	c.mu.Unlock()
	switch {
	case errors.Is(err, errGameOver):
		return over, nil
	case parent.Err() != nil:
		return nil, nil
	default:
		return over, err
	}
}

// messageHandler processes incoming messages from server
func (c *Client) messageHandler() error {
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	for scanner.Scan() {
		c.logger.Debug("Received raw message: %s", scanner.Text())
		if err := c.processServerMessage(scanner.Bytes()); err != nil {
			if errors.Is(err, errGameOver) || errors.Is(err, errConnectRejected) {
				return err
			}
			c.logger.Error("Error processing server message: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("lost connection to server: %w", err)
	}
	return errors.New("server closed the connection")
}

// processServerMessage updates the view and prints what happened
func (c *Client) processServerMessage(data []byte) error {
	p, err := network.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to parse message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	before := make(map[int]string, len(c.view.Planets))
	for id := range c.view.Planets {
		before[id] = c.view.Owner(id)
	}
	c.view.Apply(p, c.now())

	switch msg := p.(type) {
	case *network.ConnectResponse:
		if msg.Status != network.StatusSuccess {
			return fmt.Errorf("%w: %s", errConnectRejected, msg.Message)
		}
		c.display.PrintConnection(msg.PlayerID)
	case *network.GameStart:
		c.display.PrintGameStart(c.view)
	case *network.PlanetUpdate:
		for _, planet := range msg.Updates {
			prev, known := before[planet.PlanetID]
			if now := c.view.Owner(planet.PlanetID); known && prev != now {
				c.display.PrintCapture(c.view, planet.PlanetID, prev, now)
			}
		}
	case *network.FleetLaunched:
		c.display.PrintFleet(c.view, *msg)
	case *network.PlayerDisconnected:
		c.display.PrintDisconnect(c.view, msg.PlayerID)
	case *network.ErrorMessage:
		c.display.PrintError(msg.Message)
	case *network.GameOver:
		c.display.PrintGameOver(c.view, *msg)
		return errGameOver
	}
	return nil
}

// actLoop issues one move per interval once the game has started
func (c *Client) actLoop(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.mu.Lock()
			move, ok := ChooseMove(c.view, c.cfg.FleetSpeed)
			c.mu.Unlock()
			if !ok {
				continue
			}
			c.logger.Debug("%s sends %d%% from %d to %d", c.cfg.Name, move.Percentage, move.FromPlanetID, move.ToPlanetID)
			if err := c.sendMessage(move); err != nil {
				return err
			}
		}
	}
}

func (c *Client) sendMessage(p network.Payload) error {
	data, err := network.Encode(p)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.writer.Write(data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return c.writer.Flush()
}
