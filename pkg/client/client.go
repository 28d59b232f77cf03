// Package client ties the transport, the credentials and the
// authentication engine into a single bike connection with a
// command-method surface.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openmoof/moof-go/pkg/auth"
	"github.com/openmoof/moof-go/pkg/ble"
	"github.com/openmoof/moof-go/pkg/cert"
	"github.com/openmoof/moof-go/pkg/command"
	"github.com/openmoof/moof-go/pkg/log"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultHandshakeTimeout = 30 * time.Second
	DefaultConnectAttempts  = 3
)

// Client errors.
var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrHandshakeTimeout = errors.New("handshake timed out")
)

// Config assembles a Client.
type Config struct {
	// Address identifies the bike; its meaning belongs to the Connector
	// (a MAC address for the BLE connector).
	Address string

	// Credentials hold the rider key and certificate.
	Credentials *cert.Credentials

	// Connector establishes the link.
	Connector ble.Connector

	// Logger receives protocol events. Nil disables logging.
	Logger log.Logger

	// HandshakeTimeout bounds Authenticate. Zero means
	// DefaultHandshakeTimeout.
	HandshakeTimeout time.Duration

	// ConnectAttempts is how often Connect retries with backoff. Zero
	// means DefaultConnectAttempts.
	ConnectAttempts int
}

// Client is one bike connection. Connect, then Authenticate, then issue
// commands. Safe for concurrent use after Authenticate returns.
type Client struct {
	cfg    Config
	logger log.Logger

	mu      sync.Mutex
	link    ble.Link
	session *auth.Session
	done    chan struct{}
}

// New validates the configuration and creates a client. No I/O happens
// until Connect.
func New(cfg Config) (*Client, error) {
	if cfg.Connector == nil {
		return nil, errors.New("client: connector is required")
	}
	if cfg.Credentials == nil || cfg.Credentials.Certificate == nil || cfg.Credentials.PrivateKey == nil {
		return nil, errors.New("client: complete credentials are required")
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if cfg.ConnectAttempts <= 0 {
		cfg.ConnectAttempts = DefaultConnectAttempts
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Client{cfg: cfg, logger: logger}, nil
}

// Connect establishes the link, retrying with exponential backoff up to
// the configured attempt count.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.link != nil {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.mu.Unlock()

	backoff := ble.NewBackoff()
	var lastErr error
	for attempt := 0; attempt < c.cfg.ConnectAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff.Next()):
			}
		}

		link, err := c.cfg.Connector.Connect(ctx, c.cfg.Address)
		if err == nil {
			c.mu.Lock()
			c.link = link
			c.mu.Unlock()
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to connect to %s after %d attempts: %w",
		c.cfg.Address, c.cfg.ConnectAttempts, lastErr)
}

// Authenticate runs the handshake to completion. On success a
// background reader keeps consuming the bike's keep-alive traffic until
// Close.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	link := c.link
	c.mu.Unlock()
	if link == nil {
		return ErrNotConnected
	}

	session := auth.NewSession(c.cfg.Credentials.Certificate,
		auth.NewKeySigner(c.cfg.Credentials.PrivateKey))
	session.SetLogger(c.logger)

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	defer cancel()

	for !session.Authenticated() {
		select {
		case <-ctx.Done():
			session.Fail(ErrHandshakeTimeout)
			return fmt.Errorf("%w: %v", ErrHandshakeTimeout, ctx.Err())

		case frame := <-link.Frames():
			c.logger.Log(log.NewFrameEvent(session.ID(), log.DirectionIn, frame, ""))
			out, err := session.HandleFrame(frame)
			if err != nil {
				return fmt.Errorf("handshake failed: %w", err)
			}
			for _, f := range out {
				c.logger.Log(log.NewFrameEvent(session.ID(), log.DirectionOut, f, ""))
				if err := link.Send(f); err != nil {
					session.Fail(err)
					return fmt.Errorf("handshake write failed: %w", err)
				}
			}
		}
	}

	c.mu.Lock()
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()
	go c.readLoop(session, link, done)

	return nil
}

// readLoop drains post-handshake traffic (status keep-alives, command
// acks) so the link buffer never fills.
func (c *Client) readLoop(session *auth.Session, link ble.Link, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case frame := <-link.Frames():
			c.logger.Log(log.NewFrameEvent(session.ID(), log.DirectionIn, frame, ""))
			c.mu.Lock()
			_, err := session.HandleFrame(frame)
			c.mu.Unlock()
			if err != nil {
				c.logger.Log(log.NewErrorEvent(session.ID(), err, "read loop"))
				return
			}
		}
	}
}

// Send frames and writes one control command.
func (c *Client) Send(cmd *command.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.link == nil || c.session == nil {
		return ErrNotConnected
	}
	frame, err := c.session.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	c.logger.Log(log.NewFrameEvent(c.session.ID(), log.DirectionOut, frame, cmd.Name))
	return c.link.Send(frame)
}

// Phase reports the handshake phase, or PhaseIdle before Authenticate.
func (c *Client) Phase() auth.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return auth.PhaseIdle
	}
	return c.session.Phase()
}

// Authenticated reports whether commands can be sent.
func (c *Client) Authenticated() bool {
	return c.Phase() == auth.PhaseAuthenticated
}

// Close stops the reader and tears the link down. Safe to call more
// than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done != nil {
		select {
		case <-c.done:
		default:
			close(c.done)
		}
	}
	if c.link == nil {
		return nil
	}
	err := c.link.Close()
	c.link = nil
	return err
}

// Lock locks the bike.
func (c *Client) Lock() error { return c.Send(command.Lock()) }

// Unlock unlocks the bike.
func (c *Client) Unlock() error { return c.Send(command.Unlock()) }

// ArmAlarm arms the alarm.
func (c *Client) ArmAlarm() error { return c.Send(command.ArmAlarm()) }

// DisarmAlarm disarms the alarm.
func (c *Client) DisarmAlarm() error { return c.Send(command.DisarmAlarm()) }

// TriggerAlarm manually triggers the alarm.
func (c *Client) TriggerAlarm() error { return c.Send(command.TriggerAlarm()) }

// BellSingle rings the bell once.
func (c *Client) BellSingle() error { return c.Send(command.BellSingle()) }

// BellDouble rings the bell twice.
func (c *Client) BellDouble() error { return c.Send(command.BellDouble()) }

// Horn sounds the horn.
func (c *Client) Horn() error { return c.Send(command.Horn()) }

// PowerOn enables motor support.
func (c *Client) PowerOn() error { return c.Send(command.PowerOn()) }

// PowerOff disables motor support.
func (c *Client) PowerOff() error { return c.Send(command.PowerOff()) }

// BoostOn enables boost.
func (c *Client) BoostOn() error { return c.Send(command.BoostOn()) }

// BoostOff disables boost.
func (c *Client) BoostOff() error { return c.Send(command.BoostOff()) }

// PlaySound plays one of the built-in sounds.
func (c *Client) PlaySound(sound int) error {
	cmd, err := command.PlaySound(sound)
	if err != nil {
		return err
	}
	return c.Send(cmd)
}

// SetPowerLevel sets the assistance level (0 to command.MaxPowerLevel).
func (c *Client) SetPowerLevel(level int) error {
	cmd, err := command.SetPowerLevel(level)
	if err != nil {
		return err
	}
	return c.Send(cmd)
}

// SetLightMode sets the light mode.
func (c *Client) SetLightMode(mode command.LightMode) error {
	cmd, err := command.SetLightMode(mode)
	if err != nil {
		return err
	}
	return c.Send(cmd)
}
