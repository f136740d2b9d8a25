package services

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/rahulkarmakar28/code-sandbox/models"
)

// RoomEmitter is the subscriber-facing side of the realtime gateway.
type RoomEmitter interface {
	Broadcast(roomID, output string)
}

// clientSendBuffer bounds per-socket backlog; a client that falls this far
// behind starts losing frames rather than stalling its roommates.
const clientSendBuffer = 16

// Hub tracks which sockets are joined to which room and fans results out.
// Membership is in-process only: a room exists exactly as long as it has
// connected sockets, and a broadcast to an absent room is a no-op.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*SocketClient]struct{}
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*SocketClient]struct{}),
		logger: logger,
	}
}

// SocketClient is the hub's handle on one connected socket. A client starts
// unjoined; Join scopes it to a single room at a time.
type SocketClient struct {
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	room string // guarded by hub.mu
}

func NewSocketClient() *SocketClient {
	return &SocketClient{
		send: make(chan []byte, clientSendBuffer),
		done: make(chan struct{}),
	}
}

// Outbox returns the frames queued for this socket.
func (c *SocketClient) Outbox() <-chan []byte { return c.send }

// Done is closed when the client is shut down.
func (c *SocketClient) Done() <-chan struct{} { return c.done }

// Close stops the client's writer. The send channel is never closed so a
// concurrent broadcast can never panic on it.
func (c *SocketClient) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Join scopes the client to roomID, leaving any previous room first.
func (h *Hub) Join(c *SocketClient, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(c)
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[*SocketClient]struct{})
		h.rooms[roomID] = members
	}
	members[c] = struct{}{}
	c.room = roomID
}

// Leave removes the client from its room; the last member out deletes the
// room entirely.
func (h *Hub) Leave(c *SocketClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *SocketClient) {
	if c.room == "" {
		return
	}
	if members, ok := h.rooms[c.room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, c.room)
		}
	}
	c.room = ""
}

// RoomSize reports the current membership of roomID.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Broadcast emits a codeOutput event to every socket joined to roomID.
// Deliveries are independent: a full send buffer drops that client's frame
// and nothing else. An empty or unknown room discards the message.
func (h *Hub) Broadcast(roomID, output string) {
	frame, err := json.Marshal(models.SocketEvent{Event: models.EventCodeOutput, Data: output})
	if err != nil {
		h.logger.Error("failed to encode output event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	members := h.rooms[roomID]
	if len(members) == 0 {
		return
	}
	for c := range members {
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("dropping frame for slow socket", zap.String("room", roomID))
		}
	}
}
