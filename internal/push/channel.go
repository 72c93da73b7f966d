package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"rider-booking/internal/events"
)

// ErrClosed is returned by writes on a closed channel.
var ErrClosed = errors.New("push: channel closed")

// Conn is the wire under a Channel. *websocket.Conn satisfies it.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

// Handler receives the raw data of one inbound event.
type Handler func(data json.RawMessage)

// Channel is a persistent, process-wide push connection shared by every
// booking session. Sessions attach to it through Subscriptions.
type Channel struct {
	conn Conn
	wmu  sync.Mutex // gorilla/websocket allows one concurrent writer

	mu     sync.Mutex
	subs   map[string][]*Subscription // per key, oldest holder first
	joined map[string]bool
	closed bool
	err    error
	done   chan struct{}
}

// Dial opens a websocket push channel, authenticating with a bearer token.
func Dial(ctx context.Context, url, token string) (*Channel, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("push: dial %s: %w", url, err)
	}
	log.Printf("[push] connected to %s", url)
	return New(ws), nil
}

// New starts a Channel over an established connection.
func New(conn Conn) *Channel {
	c := &Channel{
		conn:   conn,
		subs:   make(map[string][]*Subscription),
		joined: make(map[string]bool),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Join announces {role, identity} on the channel. It is sent at most once
// per identity for the lifetime of the connection.
func (c *Channel) Join(role, identity string) error {
	key := role + ":" + identity

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.joined[key] {
		c.mu.Unlock()
		return nil
	}
	c.joined[key] = true
	c.mu.Unlock()

	env, err := events.NewEnvelope(events.EventJoin, events.JoinPayload{Role: role, Identity: identity})
	if err == nil {
		err = c.write(env)
	}
	if err != nil {
		c.mu.Lock()
		delete(c.joined, key)
		c.mu.Unlock()
		return fmt.Errorf("push: join: %w", err)
	}
	log.Printf("[push] joined as %s %s", role, identity)
	return nil
}

// Subscribe registers handlers under key and returns a handle owned by the
// caller. Only the newest live holder of a key receives events, so each
// event has at most one handler per key however many times the key is
// acquired. Releasing the newest holder hands delivery back to the one
// before it.
func (c *Channel) Subscribe(key string, handlers map[string]Handler) *Subscription {
	hs := make(map[string]Handler, len(handlers))
	for ev, h := range handlers {
		hs[ev] = h
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Subscription{ch: c, key: key, handlers: hs}
	c.subs[key] = append(c.subs[key], s)
	return s
}

// current returns the holder that receives events for key. c.mu must be held.
func (c *Channel) current(key string) *Subscription {
	holders := c.subs[key]
	if len(holders) == 0 {
		return nil
	}
	return holders[len(holders)-1]
}

// HandlerCount reports how many handlers are registered for event.
func (c *Channel) HandlerCount(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key := range c.subs {
		if _, ok := c.current(key).handlers[event]; ok {
			n++
		}
	}
	return n
}

// Done is closed once the read loop has exited.
func (c *Channel) Done() <-chan struct{} { return c.done }

// Err returns the read error that ended the channel, if any.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close shuts the connection and waits for the read loop to exit.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		<-c.done
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Channel) write(v any) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *Channel) readLoop() {
	defer close(c.done)
	for {
		var env events.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			c.mu.Lock()
			wasClosed := c.closed
			if !wasClosed {
				c.closed = true
				c.err = err
			}
			c.mu.Unlock()
			if !wasClosed {
				log.Printf("[push] read error: %v", err)
				c.conn.Close()
			}
			return
		}
		c.dispatch(env)
	}
}

func (c *Channel) dispatch(env events.Envelope) {
	c.mu.Lock()
	var hs []Handler
	for key := range c.subs {
		if h, ok := c.current(key).handlers[env.Event]; ok {
			hs = append(hs, h)
		}
	}
	c.mu.Unlock()

	if len(hs) == 0 {
		log.Printf("[push] no handler for %q", env.Event)
		return
	}
	for _, h := range hs {
		h(env.Data)
	}
}

// Subscription is one holder's handle on a key. The key stays registered
// while any holder remains.
type Subscription struct {
	ch       *Channel
	key      string
	released bool
	handlers map[string]Handler
}

// Release deregisters this holder's handlers. Releasing twice does nothing.
func (s *Subscription) Release() {
	c := s.ch
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.released {
		return
	}
	s.released = true
	s.handlers = nil

	holders := c.subs[s.key]
	for i, h := range holders {
		if h == s {
			holders = append(holders[:i:i], holders[i+1:]...)
			break
		}
	}
	if len(holders) == 0 {
		delete(c.subs, s.key)
		return
	}
	c.subs[s.key] = holders
}

// Active reports whether the handle has not been released.
func (s *Subscription) Active() bool {
	s.ch.mu.Lock()
	defer s.ch.mu.Unlock()
	return !s.released
}
