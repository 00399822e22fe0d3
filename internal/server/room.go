package server

import (
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cxd309/roadgrid-engine/internal/engine"
	"github.com/cxd309/roadgrid-engine/internal/event"
)

// room owns one engine session. Its goroutine is the only code that touches the
// session, so the engine stays single-threaded; everything else sends closures.
type room struct {
	id      string
	session *engine.Session
	logger  *log.Logger
	tick    time.Duration

	calls      chan func()
	register   chan *client
	unregister chan *client
	done       chan struct{}
	stopped    chan struct{}

	clients map[*client]bool // loop goroutine only
}

func newRoom(id string, s *engine.Session, tick time.Duration, logger *log.Logger) *room {
	return &room{
		id:         id,
		session:    s,
		logger:     logger,
		tick:       tick,
		calls:      make(chan func()),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		clients:    map[*client]bool{},
	}
}

func (r *room) run() {
	defer close(r.stopped)
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-r.done:
			for c := range r.clients {
				r.drop(c)
			}
			return
		case fn := <-r.calls:
			fn()
			r.flush()
		case c := <-r.register:
			r.clients[c] = true
			r.sendTo(c, msgSnapshot, r.session.Snapshot())
			r.logger.Debug("client joined", "session", r.id, "clients", len(r.clients))
		case c := <-r.unregister:
			if r.clients[c] {
				r.drop(c)
				r.logger.Debug("client left", "session", r.id, "clients", len(r.clients))
			}
		case now := <-ticker.C:
			r.session.Advance(now.Sub(last).Seconds())
			last = now
			r.flush()
		}
	}
}

// do runs fn on the room goroutine and waits for it. It reports false when the
// room has shut down.
func (r *room) do(fn func(s *engine.Session)) bool {
	finished := make(chan struct{})
	select {
	case r.calls <- func() { fn(r.session); close(finished) }:
	case <-r.done:
		return false
	}
	select {
	case <-finished:
		return true
	case <-r.stopped:
		return false
	}
}

func (r *room) close() {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
	<-r.stopped
}

// flush broadcasts the events the session queued since the last flush.
func (r *room) flush() {
	for _, st := range r.session.DrainEvents() {
		data, err := event.Marshal(st.Event, st.At)
		if err != nil {
			r.logger.Error("encoding event", "session", r.id, "err", err)
			continue
		}
		r.broadcast(data)
	}
}

func (r *room) broadcast(data []byte) {
	for c := range r.clients {
		select {
		case c.send <- data:
		default:
			r.logger.Warn("client too slow, dropping", "session", r.id)
			r.drop(c)
		}
	}
}

func (r *room) sendTo(c *client, typ string, payload any) {
	if !r.clients[c] {
		return
	}
	data, err := encode(typ, payload)
	if err != nil {
		r.logger.Error("encoding message", "type", typ, "err", err)
		return
	}
	select {
	case c.send <- data:
	default:
		r.drop(c)
	}
}

func (r *room) broadcastMsg(typ string, payload any) {
	data, err := encode(typ, payload)
	if err != nil {
		r.logger.Error("encoding message", "type", typ, "err", err)
		return
	}
	r.broadcast(data)
}

func (r *room) drop(c *client) {
	delete(r.clients, c)
	close(c.send)
}

func encode(typ string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(message{Type: typ, Payload: raw})
}
