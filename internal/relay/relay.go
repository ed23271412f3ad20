// Package relay implements the transport backend for websocket-backed
// rooms: a dumb fan-out server that forwards every frame it receives to
// all other connections in the same room. It never inspects payloads
// beyond framing; the replication protocol is entirely between the host
// and its clients.
package relay

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 65536

	sendBuffer = 64
)

// Relay is the websocket fan-out server.
type Relay struct {
	addr     string
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu    sync.RWMutex
	rooms map[string]map[*conn]bool
	srv   *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a relay listening on addr.
func New(addr string, logger *log.Logger) *Relay {
	ctx, cancel := context.WithCancel(context.Background())
	return &Relay{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.WithPrefix("relay"),
		rooms:  make(map[string]map[*conn]bool),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Handler returns the relay's HTTP handler, so tests and embedding
// servers can mount it without binding a listener.
func (r *Relay) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", r.handleWebSocket)
	mux.HandleFunc("/health", r.handleHealth)
	return mux
}

// Start serves until the listener fails or Shutdown is called.
func (r *Relay) Start() error {
	r.logger.Info("Starting relay", "addr", r.addr)
	r.mu.Lock()
	r.srv = &http.Server{Addr: r.addr, Handler: r.Handler()}
	srv := r.srv
	r.mu.Unlock()
	return srv.ListenAndServe()
}

// Shutdown closes every connection and stops the listener. The rooms
// map is emptied first so an in-flight forward cannot reach a send
// channel after it is closed.
func (r *Relay) Shutdown(ctx context.Context) error {
	r.cancel()
	r.mu.Lock()
	rooms := r.rooms
	r.rooms = make(map[string]map[*conn]bool)
	srv := r.srv
	r.mu.Unlock()
	for _, conns := range rooms {
		for c := range conns {
			c.close()
		}
	}
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// RoomSize returns the number of connections in a room.
func (r *Relay) RoomSize(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

func (r *Relay) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	roomID := req.URL.Query().Get("room")
	if roomID == "" {
		http.Error(w, "room query parameter required", http.StatusBadRequest)
		return
	}

	ws, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	c := &conn{
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		roomID: roomID,
		relay:  r,
		logger: r.logger.With("room", roomID),
	}
	r.register(c)

	go c.writePump()
	c.readPump()
}

func (r *Relay) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (r *Relay) register(c *conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rooms[c.roomID] == nil {
		r.rooms[c.roomID] = make(map[*conn]bool)
	}
	r.rooms[c.roomID][c] = true
	r.logger.Info("Client connected", "room", c.roomID, "roomSize", len(r.rooms[c.roomID]))
}

func (r *Relay) unregister(c *conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[c.roomID][c]; !ok {
		return
	}
	delete(r.rooms[c.roomID], c)
	if len(r.rooms[c.roomID]) == 0 {
		delete(r.rooms, c.roomID)
	}
	r.logger.Info("Client disconnected", "room", c.roomID, "roomSize", len(r.rooms[c.roomID]))
}

// forward sends a frame to every connection in the room except the sender.
func (r *Relay) forward(sender *conn, frame []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.rooms[sender.roomID] {
		if c == sender {
			continue
		}
		select {
		case c.send <- frame:
		default:
			// Slow consumer; the protocol tolerates drops, so don't
			// let one stalled client back up the whole room.
			c.logger.Warn("Dropping frame for slow consumer")
		}
	}
}

// conn is one websocket participant.
type conn struct {
	ws     *websocket.Conn
	send   chan []byte
	roomID string
	relay  *Relay
	logger *log.Logger

	closeOnce sync.Once
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.send)
		_ = c.ws.Close()
	})
}

func (c *conn) readPump() {
	defer func() {
		c.relay.unregister(c)
		c.close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.relay.forward(c, frame)
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Error("Failed to write frame", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
