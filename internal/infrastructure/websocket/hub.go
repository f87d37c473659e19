package websocket

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"campuslink/internal/domain/entity"
	"campuslink/pkg/logger"
)

var ErrHubClosed = stderrors.New("websocket hub closed")

type Options struct {
	SendBuffer    int
	WriteTimeout  time.Duration
	PongTimeout   time.Duration
	MaxFrameBytes int64
}

func DefaultOptions() Options {
	return Options{
		SendBuffer:    64,
		WriteTimeout:  10 * time.Second,
		PongTimeout:   60 * time.Second,
		MaxFrameBytes: 64 * 1024,
	}
}

// Job runs inside a room's actor. The payload it returns is fanned out to
// every live connection of the room before the next command for that room
// is processed; a nil payload is not broadcast.
type Job func(ctx context.Context) ([]byte, error)

// Publisher receives every payload dispatched locally, after local fan-out.
type Publisher func(roomID string, payload []byte)

// Hub tracks live connections per room. Each active room is owned by a single
// actor goroutine; the hub map is only consulted to find or start that actor,
// so rooms never wait on each other.
type Hub struct {
	opts Options

	mu     sync.Mutex
	rooms  map[string]*room
	closed bool
	quit   chan struct{}
	wg     sync.WaitGroup

	publisher Publisher
}

func NewHub(opts Options) *Hub {
	defaults := DefaultOptions()
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaults.SendBuffer
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaults.WriteTimeout
	}
	if opts.PongTimeout <= 0 {
		opts.PongTimeout = defaults.PongTimeout
	}
	if opts.MaxFrameBytes <= 0 {
		opts.MaxFrameBytes = defaults.MaxFrameBytes
	}

	return &Hub{
		opts:  opts,
		rooms: make(map[string]*room),
		quit:  make(chan struct{}),
	}
}

// Start shuts the hub down when ctx is cancelled.
func (h *Hub) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		h.Shutdown()
	}()
}

// SetPublisher must be called before the hub serves traffic.
func (h *Hub) SetPublisher(p Publisher) {
	h.publisher = p
}

// Shutdown closes every live connection and waits for all room actors to exit.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.quit)
	h.mu.Unlock()

	h.wg.Wait()
	logger.Info("WebSocket hub stopped")
}

// Register adds c to its room's live set and moves it to StateOpen.
func (h *Hub) Register(c *Client) error {
	return h.do(context.Background(), c.RoomID, true, func(r *room) {
		r.clients[c] = struct{}{}
		c.setState(StateOpen)
		logger.Debug("Client %s registered in room %s (%d live)", c.ID, r.id, len(r.clients))
	})
}

// Unregister removes c from the live set. It is safe to call any number of
// times, including for clients that were never registered.
func (h *Hub) Unregister(c *Client) {
	err := h.do(context.Background(), c.RoomID, false, func(r *room) {
		if _, ok := r.clients[c]; ok {
			r.remove(c)
			logger.Debug("Client %s unregistered from room %s (%d live)", c.ID, r.id, len(r.clients))
		}
	})
	if err != nil && !stderrors.Is(err, ErrHubClosed) {
		logger.Warn("Unregister client %s: %v", c.ID, err)
	}
	c.setState(StateClosed)
}

// Dispatch runs job in roomID's actor and fans its payload out to the room.
// Jobs for the same room run one at a time in the order they were accepted.
func (h *Hub) Dispatch(ctx context.Context, roomID string, job Job) error {
	var (
		payload []byte
		jobErr  error
	)
	err := h.do(ctx, roomID, true, func(r *room) {
		payload, jobErr = job(ctx)
		if jobErr == nil && payload != nil {
			r.fanout(payload)
		}
	})
	if err != nil {
		return err
	}
	if jobErr != nil {
		return jobErr
	}

	if h.publisher != nil && payload != nil {
		h.publisher(roomID, payload)
	}
	return nil
}

// Broadcast fans payload out to roomID's live connections, if any.
func (h *Hub) Broadcast(roomID string, payload []byte) {
	if err := h.do(context.Background(), roomID, false, func(r *room) {
		r.fanout(payload)
	}); err != nil && !stderrors.Is(err, ErrHubClosed) {
		logger.Warn("Broadcast to room %s: %v", roomID, err)
	}
}

// Direct queues payload for a single live client.
func (h *Hub) Direct(c *Client, payload []byte) {
	_ = h.do(context.Background(), c.RoomID, false, func(r *room) {
		if _, ok := r.clients[c]; ok {
			r.deliver(c, payload)
		}
	})
}

func (h *Hub) Count(roomID string) int {
	n := 0
	_ = h.do(context.Background(), roomID, false, func(r *room) {
		n = len(r.clients)
	})
	return n
}

// ActiveRooms reports how many room actors are running.
func (h *Hub) ActiveRooms() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

func (h *Hub) NewClient(conn *websocket.Conn, roomID string, identity entity.Identity) *Client {
	return newClient(conn, roomID, identity, h.opts)
}

// do hands cmd to the actor owning roomID. When create is false and the room
// has no actor, cmd is skipped. A retiring actor is never handed a command:
// the caller observes its done channel and looks the room up again.
func (h *Hub) do(ctx context.Context, roomID string, create bool, cmd func(r *room)) error {
	for {
		r, err := h.lookup(roomID, create)
		if err != nil {
			return err
		}
		if r == nil {
			return nil
		}

		c := command{fn: cmd, finished: make(chan struct{})}
		select {
		case r.inbox <- c:
			<-c.finished
			return nil
		case <-r.done:
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *Hub) lookup(roomID string, create bool) (*room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if r, ok := h.rooms[roomID]; ok {
		return r, nil
	}
	if !create {
		return nil, nil
	}

	r := newRoom(roomID, h)
	h.rooms[roomID] = r
	h.wg.Add(1)
	go r.run()
	return r, nil
}

// retire removes r from the hub map so the next command for its room starts
// a fresh actor.
func (h *Hub) retire(r *room) {
	h.mu.Lock()
	if h.rooms[r.id] == r {
		delete(h.rooms, r.id)
	}
	h.mu.Unlock()
}
