package websocket

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"campuslink/internal/domain/entity"
	"campuslink/pkg/logger"
)

type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Client is one live connection bound to a single room and identity.
type Client struct {
	ID       string
	RoomID   string
	Identity entity.Identity

	conn  *websocket.Conn
	send  chan []byte
	state atomic.Int32
	opts  Options
}

func newClient(conn *websocket.Conn, roomID string, identity entity.Identity, opts Options) *Client {
	return &Client{
		ID:       uuid.New().String(),
		RoomID:   roomID,
		Identity: identity,
		conn:     conn,
		send:     make(chan []byte, opts.SendBuffer),
		opts:     opts,
	}
}

func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

// ReadPump delivers each inbound text frame to onFrame until the connection
// fails or the peer goes away. It must run on a single goroutine.
func (c *Client) ReadPump(onFrame func(data []byte)) {
	defer c.conn.Close()

	c.conn.SetReadLimit(c.opts.MaxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.Warn("WebSocket read error for client %s: %v", c.ID, err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		onFrame(data)
	}
}

// WritePump is the only writer on the connection. It exits when the send
// channel is closed by the hub or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.opts.PongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Warn("WebSocket write to client %s failed: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Reject closes a connection that was never admitted to a room. The peer sees
// a policy-violation close with no reason and no data frame, whatever the
// cause, so room existence and membership cannot be probed.
func Reject(conn *websocket.Conn, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ""), deadline)
	conn.Close()
}
