package channel

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/minimagame/minima/internal/protocol"
)

// Bus is an in-process transport: every endpoint created from the same
// Bus and connected to the same room receives the others' messages.
// Delivery is synchronous on the sender's goroutine, which preserves
// per-sender ordering for free. The Bus doubles as the transport test
// double and as the single-process demo mode.
type Bus struct {
	mu    sync.Mutex
	rooms map[string]map[*BusEndpoint]bool
}

// NewBus creates an empty bus. A Bus is owned by whoever constructs it;
// there is deliberately no process-wide instance.
func NewBus() *Bus {
	return &Bus{rooms: make(map[string]map[*BusEndpoint]bool)}
}

// Endpoint creates a new unconnected endpoint on this bus.
func (b *Bus) Endpoint(logger *log.Logger) *BusEndpoint {
	return &BusEndpoint{
		bus:      b,
		handlers: newHandlerSet(),
		logger:   logger.WithPrefix("bus"),
	}
}

func (b *Bus) join(roomID string, ep *BusEndpoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rooms[roomID] == nil {
		b.rooms[roomID] = make(map[*BusEndpoint]bool)
	}
	b.rooms[roomID][ep] = true
}

func (b *Bus) leave(roomID string, ep *BusEndpoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rooms[roomID], ep)
	if len(b.rooms[roomID]) == 0 {
		delete(b.rooms, roomID)
	}
}

// others returns the room's endpoints except the sender.
func (b *Bus) others(roomID string, sender *BusEndpoint) []*BusEndpoint {
	b.mu.Lock()
	defer b.mu.Unlock()
	peers := make([]*BusEndpoint, 0, len(b.rooms[roomID]))
	for ep := range b.rooms[roomID] {
		if ep != sender {
			peers = append(peers, ep)
		}
	}
	return peers
}

// BusEndpoint is one participant's connection to a Bus room.
type BusEndpoint struct {
	bus      *Bus
	handlers *handlerSet
	logger   *log.Logger

	mu     sync.Mutex
	roomID string
}

var _ Channel = (*BusEndpoint)(nil)

// Connect joins the named room, replacing any existing connection.
func (ep *BusEndpoint) Connect(roomID string) error {
	ep.mu.Lock()
	prev := ep.roomID
	ep.roomID = roomID
	ep.mu.Unlock()

	if prev != "" {
		ep.bus.leave(prev, ep)
	}
	ep.bus.join(roomID, ep)
	return nil
}

// Disconnect leaves the room and clears all subscriptions.
func (ep *BusEndpoint) Disconnect() {
	ep.mu.Lock()
	roomID := ep.roomID
	ep.roomID = ""
	ep.mu.Unlock()

	if roomID != "" {
		ep.bus.leave(roomID, ep)
	}
	ep.handlers.clear()
}

// Send publishes to every other endpoint in the room. No-op when not
// connected or when the payload cannot be encoded.
func (ep *BusEndpoint) Send(msgType protocol.MessageType, payload interface{}) {
	ep.mu.Lock()
	roomID := ep.roomID
	ep.mu.Unlock()
	if roomID == "" {
		return
	}

	msg, err := protocol.NewMessage(msgType, roomID, payload)
	if err != nil {
		ep.logger.Error("Failed to encode message", "type", msgType, "error", err)
		return
	}

	for _, peer := range ep.bus.others(roomID, ep) {
		peer.deliver(msg)
	}
}

// On registers a handler for a message type.
func (ep *BusEndpoint) On(msgType protocol.MessageType, fn Handler) Subscription {
	return ep.handlers.add(msgType, fn)
}

// Off removes a previously registered handler.
func (ep *BusEndpoint) Off(sub Subscription) {
	ep.handlers.remove(sub)
}

func (ep *BusEndpoint) deliver(msg *protocol.Message) {
	ep.mu.Lock()
	roomID := ep.roomID
	ep.mu.Unlock()
	// Frames for a room this endpoint has left are dropped.
	if msg.RoomID != roomID {
		return
	}
	ep.handlers.dispatch(msg)
}
