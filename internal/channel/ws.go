package channel

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/minimagame/minima/internal/protocol"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
)

// WSEndpoint implements Channel over a websocket connection to a relay
// server. The relay forwards every frame to all other connections in
// the same room; TCP plus the relay's per-connection forwarding loop
// preserves per-sender ordering.
type WSEndpoint struct {
	relayURL string
	handlers *handlerSet
	logger   *log.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	roomID string
	done   chan struct{}
}

var _ Channel = (*WSEndpoint)(nil)

// NewWSEndpoint creates an unconnected websocket endpoint. relayURL is
// the relay's base URL, e.g. "ws://localhost:8080".
func NewWSEndpoint(relayURL string, logger *log.Logger) *WSEndpoint {
	return &WSEndpoint{
		relayURL: relayURL,
		handlers: newHandlerSet(),
		logger:   logger.WithPrefix("ws"),
	}
}

// Connect dials the relay for the given room, replacing any existing
// connection.
func (w *WSEndpoint) Connect(roomID string) error {
	u, err := url.Parse(w.relayURL)
	if err != nil {
		return fmt.Errorf("parse relay url: %w", err)
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"room": {roomID}}.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial relay: %w", err)
	}

	w.mu.Lock()
	if w.conn != nil {
		close(w.done)
		_ = w.conn.Close()
	}
	w.conn = conn
	w.roomID = roomID
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	go w.readPump(conn, roomID, done)
	return nil
}

// Disconnect closes the connection and clears all subscriptions.
func (w *WSEndpoint) Disconnect() {
	w.mu.Lock()
	if w.conn != nil {
		close(w.done)
		_ = w.conn.Close()
		w.conn = nil
	}
	w.roomID = ""
	w.mu.Unlock()
	w.handlers.clear()
}

// Send writes a message to the relay. Fire-and-forget: encode and write
// failures are logged, never surfaced, and sending while disconnected
// is a no-op.
func (w *WSEndpoint) Send(msgType protocol.MessageType, payload interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return
	}

	msg, err := protocol.NewMessage(msgType, w.roomID, payload)
	if err != nil {
		w.logger.Error("Failed to encode message", "type", msgType, "error", err)
		return
	}

	_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := w.conn.WriteJSON(msg); err != nil {
		w.logger.Error("Failed to write message", "type", msgType, "error", err)
	}
}

// On registers a handler for a message type.
func (w *WSEndpoint) On(msgType protocol.MessageType, fn Handler) Subscription {
	return w.handlers.add(msgType, fn)
}

// Off removes a previously registered handler.
func (w *WSEndpoint) Off(sub Subscription) {
	w.handlers.remove(sub)
}

func (w *WSEndpoint) readPump(conn *websocket.Conn, roomID string, done chan struct{}) {
	for {
		var msg protocol.Message
		if err := conn.ReadJSON(&msg); err != nil {
			select {
			case <-done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					w.logger.Error("WebSocket read error", "error", err)
				}
			}
			return
		}
		if msg.RoomID != roomID {
			continue
		}
		w.handlers.dispatch(&msg)
	}
}
