package websocket

import (
	"campuslink/pkg/logger"
)

// command is executed on the room actor. finished is closed once fn has run
// and, if the room became empty, after the actor has left the hub map.
type command struct {
	fn       func(r *room)
	finished chan struct{}
}

type room struct {
	id      string
	hub     *Hub
	inbox   chan command
	done    chan struct{}
	clients map[*Client]struct{}
}

func newRoom(id string, hub *Hub) *room {
	return &room{
		id:      id,
		hub:     hub,
		inbox:   make(chan command),
		done:    make(chan struct{}),
		clients: make(map[*Client]struct{}),
	}
}

// run owns r.clients. It exits once the room is empty after a command, or
// when the hub shuts down.
func (r *room) run() {
	defer r.hub.wg.Done()
	defer close(r.done)

	for {
		select {
		case cmd := <-r.inbox:
			cmd.fn(r)
			empty := len(r.clients) == 0
			if empty {
				r.hub.retire(r)
			}
			close(cmd.finished)
			if empty {
				return
			}
		case <-r.hub.quit:
			for c := range r.clients {
				r.remove(c)
			}
			return
		}
	}
}

// fanout never blocks. A client whose buffer is full is dropped.
func (r *room) fanout(payload []byte) {
	for c := range r.clients {
		r.deliver(c, payload)
	}
}

func (r *room) deliver(c *Client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		logger.With("room_id", r.id, "client_id", c.ID, "user_id", c.Identity.ID).
			Warn("send buffer full, dropping connection")
		r.remove(c)
	}
}

// remove is the only place a client's send channel is closed.
func (r *room) remove(c *Client) {
	delete(r.clients, c)
	close(c.send)
	c.setState(StateClosed)
}
