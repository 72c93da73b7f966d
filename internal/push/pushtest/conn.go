// Package pushtest provides an in-memory push.Conn for tests.
package pushtest

import (
	"encoding/json"
	"io"
	"sync"

	"rider-booking/internal/events"
)

// Conn is an in-memory push connection. Frames given to Push are returned
// by ReadJSON; frames written by the channel are recorded.
type Conn struct {
	in     chan []byte
	closed chan struct{}
	once   sync.Once

	mu  sync.Mutex
	out []events.Envelope
}

// NewConn returns an open Conn.
func NewConn() *Conn {
	return &Conn{
		in:     make(chan []byte),
		closed: make(chan struct{}),
	}
}

func (c *Conn) ReadJSON(v any) error {
	select {
	case data := <-c.in:
		return json.Unmarshal(data, v)
	case <-c.closed:
		return io.EOF
	}
}

func (c *Conn) WriteJSON(v any) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var env events.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	c.mu.Lock()
	c.out = append(c.out, env)
	c.mu.Unlock()
	return nil
}

func (c *Conn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// Push delivers an inbound event. It blocks until the reader takes it.
func (c *Conn) Push(event string, payload any) error {
	env, err := events.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	select {
	case c.in <- data:
		return nil
	case <-c.closed:
		return io.ErrClosedPipe
	}
}

// Written returns the frames written so far.
func (c *Conn) Written() []events.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.Envelope, len(c.out))
	copy(out, c.out)
	return out
}
