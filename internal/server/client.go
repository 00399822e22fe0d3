package server

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cxd309/roadgrid-engine/internal/action"
	"github.com/cxd309/roadgrid-engine/internal/engine"
)

// Server -> client message types, besides the simulation events.
const (
	msgSnapshot     = "snapshot"
	msgActionResult = "action_result"
)

const writeWait = 10 * time.Second

// message is the wire envelope for actions and server messages. Simulation
// events use the same {type, payload} shape.
type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) reader(r *room) {
	defer func() {
		select {
		case r.unregister <- c:
		case <-r.done:
		}
		c.conn.Close()
	}()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg message
		if json.Unmarshal(data, &msg) != nil {
			continue
		}
		if !r.do(func(s *engine.Session) { r.apply(c, s, msg) }) {
			return
		}
	}
}

func (c *client) writer() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// apply runs one client action on the room goroutine. Road edits are followed
// by a snapshot broadcast so every client redraws the layout.
func (r *room) apply(c *client, s *engine.Session, msg message) {
	if msg.Type == action.Snapshot {
		r.sendTo(c, msgSnapshot, s.Snapshot())
		return
	}
	res, edited := action.Apply(s, msg.Type, msg.Payload)
	if !res.OK {
		r.logger.Debug("action rejected", "session", r.id, "action", msg.Type, "err", res.Error)
	}
	r.sendTo(c, msgActionResult, res)
	if edited {
		r.broadcastMsg(msgSnapshot, s.Snapshot())
	}
}
