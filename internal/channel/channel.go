// Package channel provides the room-scoped publish/subscribe primitive
// the replication protocol runs over. A Channel delivers every sent
// message to all other participants connected to the same room,
// fire-and-forget: no acknowledgments, no retry, no cross-sender
// ordering. Messages from a single sender are observed in send order.
package channel

import (
	"sync"

	"github.com/minimagame/minima/internal/protocol"
)

// Handler receives a decoded message envelope.
type Handler func(msg *protocol.Message)

// Subscription identifies a registered handler so it can be removed.
type Subscription struct {
	msgType protocol.MessageType
	id      int
}

// Channel is the transport contract. Connect is idempotent and replaces
// any existing connection; Send silently no-ops when not connected;
// Disconnect releases resources and clears local subscriptions.
// Handlers run in registration order.
type Channel interface {
	Connect(roomID string) error
	Disconnect()
	Send(msgType protocol.MessageType, payload interface{})
	On(msgType protocol.MessageType, fn Handler) Subscription
	Off(sub Subscription)
}

// handlerSet is the shared multi-subscriber registry used by every
// Channel implementation.
type handlerSet struct {
	mu     sync.Mutex
	nextID int
	subs   map[protocol.MessageType][]subscriber
}

type subscriber struct {
	id int
	fn Handler
}

func newHandlerSet() *handlerSet {
	return &handlerSet{subs: make(map[protocol.MessageType][]subscriber)}
}

func (h *handlerSet) add(msgType protocol.MessageType, fn Handler) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.subs[msgType] = append(h.subs[msgType], subscriber{id: h.nextID, fn: fn})
	return Subscription{msgType: msgType, id: h.nextID}
}

func (h *handlerSet) remove(sub Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.subs[sub.msgType]
	for i, s := range list {
		if s.id == sub.id {
			h.subs[sub.msgType] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

func (h *handlerSet) clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = make(map[protocol.MessageType][]subscriber)
}

// dispatch invokes the handlers registered for the message's type, in
// registration order, on the calling goroutine.
func (h *handlerSet) dispatch(msg *protocol.Message) {
	h.mu.Lock()
	list := append([]subscriber(nil), h.subs[msg.Type]...)
	h.mu.Unlock()

	for _, s := range list {
		s.fn(msg)
	}
}
