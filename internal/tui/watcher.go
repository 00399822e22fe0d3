// Package tui watches a session in the terminal.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/cxd309/roadgrid-engine/internal/engine"
	"github.com/cxd309/roadgrid-engine/internal/event"
)

const (
	renderRate  = 50 * time.Millisecond
	maxMessages = 8
	maxSpeed    = 8
	minSpeed    = 0.25
)

// Watcher drives a session from its own loop and draws it on a tcell screen.
// Every session call happens on the Run goroutine.
type Watcher struct {
	screen  tcell.Screen
	session *engine.Session

	speed    float64
	paused   bool
	messages []string
}

// New returns a watcher for a session whose roads are already placed.
func New(screen tcell.Screen, session *engine.Session) *Watcher {
	return &Watcher{screen: screen, session: session, speed: 1}
}

// Run starts the session and loops until the user quits or ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.session.Start(); err != nil {
		return fmt.Errorf("starting run: %w", err)
	}

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go w.screen.ChannelEvents(events, quit)

	tick := time.Duration(w.session.Config().TickSeconds * float64(time.Second))
	simTicker := time.NewTicker(tick)
	defer simTicker.Stop()
	renderTicker := time.NewTicker(renderRate)
	defer renderTicker.Stop()

	w.Step(0)
	w.Render()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-simTicker.C:
			if !w.paused {
				w.Step(tick.Seconds() * w.speed)
			}
		case <-renderTicker.C:
			w.Render()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				w.screen.Sync()
			case *tcell.EventKey:
				if !w.HandleKey(ev) {
					return nil
				}
				w.Render()
			}
		}
	}
}

// Step advances the session by elapsed seconds and collects its events.
func (w *Watcher) Step(elapsed float64) {
	w.session.Advance(elapsed)
	for _, st := range w.session.DrainEvents() {
		if msg := describe(st.Event); msg != "" {
			w.addMessage(fmt.Sprintf("%6.1fs %s", st.At, msg))
		}
	}
}

// HandleKey applies one key press. It returns false when the user quits.
func (w *Watcher) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		return false
	case tcell.KeyRune:
	default:
		return true
	}

	switch ev.Rune() {
	case 'q', 'Q':
		return false
	case ' ', 'p':
		w.paused = !w.paused
	case '+':
		if w.speed < maxSpeed {
			w.speed *= 2
		}
	case '-':
		if w.speed > minSpeed {
			w.speed /= 2
		}
	case 'r':
		if err := w.session.Start(); err != nil {
			w.addMessage("restart: " + err.Error())
		}
		w.paused = false
		w.Step(0)
	case 's':
		if err := w.session.Stop(); err != nil {
			w.addMessage("stop: " + err.Error())
		}
		w.Step(0)
	}
	return true
}

func (w *Watcher) addMessage(msg string) {
	w.messages = append(w.messages, msg)
	if len(w.messages) > maxMessages {
		w.messages = w.messages[len(w.messages)-maxMessages:]
	}
}

// describe renders the events worth a log line; moves and stat updates are
// visible on the board already.
func describe(e event.Event) string {
	switch e := e.(type) {
	case event.RunStarted:
		return fmt.Sprintf("run %d started", e.Run)
	case event.RunStopped:
		return fmt.Sprintf("run %d stopped", e.Run)
	case event.VehicleSpawned:
		return fmt.Sprintf("#%d (%s) spawned at %v", e.Vehicle, e.Color, e.Cell)
	case event.VehicleReachedExit:
		return fmt.Sprintf("#%d reached its exit in %.1fs", e.Vehicle, e.Elapsed)
	case event.VehicleFailed:
		return fmt.Sprintf("#%d failed at %v: %s", e.Vehicle, e.Cell, e.Reason)
	case event.LevelWon:
		return fmt.Sprintf("LEVEL WON at %.0f%%", e.SuccessRate*100)
	case event.LevelLost:
		return fmt.Sprintf("LEVEL LOST (%s) at %.0f%%", e.Reason, e.SuccessRate*100)
	}
	return ""
}
