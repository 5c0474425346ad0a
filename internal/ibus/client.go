// Package ibus connects to the IBus input method daemon as an input-context
// client and turns its signals into composition events.
package ibus

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"imecompose/internal/ime"
	"imecompose/internal/logging"
)

// Config holds IBus client configuration.
type Config struct {
	// Address is the IBus bus address. Empty means IBUS_ADDRESS or the
	// output of `ibus address`.
	Address string

	// ClientName is reported to IBus when creating the input context.
	ClientName string

	// BufferSize is the capacity of the event queue between the D-Bus
	// goroutine and the GUI thread.
	BufferSize int

	// Notify, if set, is called from the D-Bus goroutine after an event
	// is queued. GUIs use it to request a redraw.
	Notify func()
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ClientName: "imecompose",
		BufferSize: 64,
	}
}

// Stats counts the traffic of a client.
type Stats struct {
	Signals uint64
	Events  uint64
	Dropped uint64

	// Keys is the number of keys offered to the input method and
	// Consumed how many of them it kept.
	Keys     uint64
	Consumed uint64
}

// keyTimeout bounds how long the GUI thread waits for the input method to
// answer a key.
const keyTimeout = 100 * time.Millisecond

// Client is an IBus input context.
type Client struct {
	conn    *dbus.Conn
	ic      dbus.BusObject
	path    dbus.ObjectPath
	signals chan *dbus.Signal
	events  chan ime.Event
	log     *logging.Logger
	notify  func()

	mu     sync.Mutex
	stats  Stats
	pos    image.Point
	hasPos bool

	cancel context.CancelFunc
	done   chan struct{}
}

// ErrNoAddress is returned when no IBus daemon address can be found.
var ErrNoAddress = errors.New("ibus: no bus address")

// ResolveAddress returns the IBus bus address for cfg.
func ResolveAddress(ctx context.Context, cfg Config) (string, error) {
	if cfg.Address != "" {
		return cfg.Address, nil
	}
	if addr := os.Getenv("IBUS_ADDRESS"); addr != "" {
		return addr, nil
	}
	out, err := exec.CommandContext(ctx, "ibus", "address").Output()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoAddress, err)
	}
	addr := strings.TrimSpace(string(out))
	if addr == "" || addr == "(null)" {
		return "", ErrNoAddress
	}
	return addr, nil
}

// Dial connects to IBus, creates an input context and starts forwarding its
// signals. Close releases the connection.
func Dial(ctx context.Context, cfg Config, log *logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.Default().WithComponent("ibus")
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}

	addr, err := ResolveAddress(ctx, cfg)
	if err != nil {
		return nil, err
	}
	conn, err := dbus.Connect(addr)
	if err != nil {
		return nil, fmt.Errorf("connect ibus bus: %w", err)
	}

	var path dbus.ObjectPath
	err = conn.Object(Service, Path).
		CallWithContext(ctx, Interface+".CreateInputContext", 0, cfg.ClientName).
		Store(&path)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create input context: %w", err)
	}

	c := &Client{
		conn:    conn,
		ic:      conn.Object(Service, path),
		path:    path,
		signals: make(chan *dbus.Signal, cfg.BufferSize),
		events:  make(chan ime.Event, cfg.BufferSize),
		log:     log,
		notify:  cfg.Notify,
		done:    make(chan struct{}),
	}

	caps := CapPreeditText | CapFocus
	if err := c.ic.CallWithContext(ctx, InputContextInterface+".SetCapabilities", 0, caps).Err; err != nil {
		conn.Close()
		return nil, fmt.Errorf("set capabilities: %w", err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(InputContextInterface),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("match input context signals: %w", err)
	}
	conn.Signal(c.signals)

	loopCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.forward(loopCtx)

	log.Info("ibus input context created", "path", string(path))
	return c, nil
}

// forward translates signals until ctx is cancelled or the connection drops.
func (c *Client) forward(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-c.signals:
			if !ok {
				return
			}
			if sig.Path != c.path {
				continue
			}
			c.mu.Lock()
			c.stats.Signals++
			c.mu.Unlock()

			ev, ok := translate(sig)
			if !ok {
				continue
			}
			c.push(ev)
		}
	}
}

func (c *Client) push(ev ime.Event) {
	select {
	case c.events <- ev:
		c.mu.Lock()
		c.stats.Events++
		c.mu.Unlock()
		if c.notify != nil {
			c.notify()
		}
	default:
		c.mu.Lock()
		c.stats.Dropped++
		c.mu.Unlock()
		c.log.Warn("event queue full, dropping", "event", ev.String())
	}
}

// Pending drains the queued events without blocking. Call it once per frame
// before drawing.
func (c *Client) Pending() []ime.Event {
	var out []ime.Event
	for {
		select {
		case ev := <-c.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

// FocusIn tells IBus the application's text area gained focus.
func (c *Client) FocusIn() error {
	return c.send("FocusIn")
}

// FocusOut tells IBus the application's text area lost focus.
func (c *Client) FocusOut() error {
	return c.send("FocusOut")
}

// Reset aborts the current composition.
func (c *Client) Reset() error {
	return c.send("Reset")
}

// ProcessKey offers a key to the input method and reports whether it was
// consumed. keysym is an X keysym and state an X modifier mask. A key the
// input method does not answer within keyTimeout is left to the caller.
func (c *Client) ProcessKey(keysym, state uint32) bool {
	ctx, cancel := context.WithTimeout(context.Background(), keyTimeout)
	defer cancel()

	var handled bool
	err := c.ic.CallWithContext(ctx, InputContextInterface+".ProcessKeyEvent", 0,
		keysym, uint32(0), state).Store(&handled)

	c.mu.Lock()
	c.stats.Keys++
	if err == nil && handled {
		c.stats.Consumed++
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Debug("process key failed", "keysym", keysym, "error", err)
		return false
	}
	return handled
}

// SetIMEPosition moves the candidate window to p. Positions equal to the
// last one sent are not sent again.
func (c *Client) SetIMEPosition(p image.Point) {
	c.mu.Lock()
	same := c.hasPos && c.pos == p
	c.pos, c.hasPos = p, true
	c.mu.Unlock()
	if same {
		return
	}
	if err := c.send("SetCursorLocation", int32(p.X), int32(p.Y), int32(0), int32(0)); err != nil {
		c.log.Debug("set cursor location failed", "error", err)
	}
}

// send calls method without waiting for a reply.
func (c *Client) send(method string, args ...interface{}) error {
	call := c.ic.Go(InputContextInterface+"."+method, dbus.FlagNoReplyExpected, nil, args...)
	if call != nil && call.Err != nil {
		return fmt.Errorf("%s: %w", strings.ToLower(method), call.Err)
	}
	return nil
}

// Stats returns a snapshot of the signal counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Close destroys the input context and closes the connection.
func (c *Client) Close() error {
	c.cancel()
	<-c.done
	c.conn.RemoveSignal(c.signals)
	_ = c.send("Destroy")
	return c.conn.Close()
}

var _ ime.CandidateWindow = (*Client)(nil)
