package room

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/minimagame/minima/internal/channel"
	"github.com/minimagame/minima/internal/game"
	"github.com/minimagame/minima/internal/protocol"
)

// Client is a room participant without authority: it submits intents
// and replaces its entire local view with every GAME_UPDATE it
// receives — last broadcast wins, no merging, no diffing. The hand
// selection is client-local ephemeral UI state and never part of the
// replicated aggregate.
type Client struct {
	ch     channel.Channel
	logger *log.Logger

	mu       sync.Mutex
	roomID   string
	name     string
	token    string
	playerID int
	state    *game.State
	selected []int

	joined   chan struct{}
	onUpdate func(*game.State)
}

// NewClient creates a client bound to a channel. onUpdate, if non-nil,
// is invoked with each adopted state snapshot.
func NewClient(ch channel.Channel, logger *log.Logger, onUpdate func(*game.State)) *Client {
	return &Client{
		ch:       ch,
		logger:   logger.WithPrefix("client"),
		playerID: -1,
		joined:   make(chan struct{}),
		onUpdate: onUpdate,
	}
}

// Join connects to the room and requests a seat. Identity arrives
// asynchronously via the JOIN_ACK; Joined() is closed once it does.
// The request carries a generated token so the ack can be correlated
// even when another joiner picked the same display name.
func (c *Client) Join(roomID, name string) error {
	return c.join(roomID, name, false)
}

// JoinAsBot is Join with the seat flagged as a bot in the shared
// roster.
func (c *Client) JoinAsBot(roomID, name string) error {
	return c.join(roomID, name, true)
}

func (c *Client) join(roomID, name string, isBot bool) error {
	if err := c.ch.Connect(roomID); err != nil {
		return err
	}

	c.mu.Lock()
	c.roomID = roomID
	c.name = name
	c.token = uuid.NewString()
	token := c.token
	c.mu.Unlock()

	c.ch.On(protocol.TypeJoinAck, func(msg *protocol.Message) {
		var data protocol.JoinAckData
		if err := msg.Decode(&data); err != nil {
			c.logger.Debug("Dropping malformed join ack", "error", err)
			return
		}
		c.handleJoinAck(data)
	})
	c.ch.On(protocol.TypeGameUpdate, func(msg *protocol.Message) {
		var state game.State
		if err := msg.Decode(&state); err != nil {
			c.logger.Debug("Dropping malformed game update", "error", err)
			return
		}
		c.adopt(&state)
	})

	c.ch.Send(protocol.TypeJoinRequest, protocol.JoinRequestData{
		Name:  name,
		Token: token,
		IsBot: isBot,
	})
	c.logger.Info("Join requested", "room", roomID, "name", name)
	return nil
}

// Leave disconnects from the room.
func (c *Client) Leave() {
	c.ch.Disconnect()
}

// Joined is closed once the host has acknowledged this client's join.
func (c *Client) Joined() <-chan struct{} {
	return c.joined
}

// PlayerID returns the assigned player id, or -1 before the ack.
func (c *Client) PlayerID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

// State returns the last adopted state snapshot, or nil before the
// first update.
func (c *Client) State() *game.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil {
		return nil
	}
	return c.state.Clone()
}

// ToggleSelect flips the local selection of a hand index, only while
// it is this player's turn to choose an action.
func (c *Client) ToggleSelect(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil || c.state.CurrentPlayerIndex != c.playerID || c.state.TurnPhase != game.TurnStart {
		return
	}
	for i, sel := range c.selected {
		if sel == index {
			c.selected = append(c.selected[:i], c.selected[i+1:]...)
			return
		}
	}
	c.selected = append(c.selected, index)
}

// Selected returns the current local selection.
func (c *Client) Selected() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.selected...)
}

// SubmitDiscard sends a DISCARD intent for the given hand indices and
// optimistically clears the local selection; the authoritative outcome
// arrives with the next broadcast.
func (c *Client) SubmitDiscard(indices []int) {
	c.mu.Lock()
	id := c.playerID
	c.selected = nil
	c.mu.Unlock()
	c.submit(protocol.ActionDiscard, id, protocol.DiscardData{Indices: indices})
}

// SubmitDraw sends a DRAW intent.
func (c *Client) SubmitDraw(fromDiscard bool) {
	c.submit(protocol.ActionDraw, c.PlayerID(), protocol.DrawData{FromDiscard: fromDiscard})
}

// SubmitShow sends a SHOW intent.
func (c *Client) SubmitShow() {
	c.submit(protocol.ActionShow, c.PlayerID(), nil)
}

func (c *Client) submit(actionType protocol.ActionType, playerID int, data interface{}) {
	if playerID < 0 {
		c.logger.Debug("Ignoring intent before join ack", "actionType", actionType)
		return
	}
	action, err := protocol.NewPlayerAction(actionType, playerID, data)
	if err != nil {
		c.logger.Error("Failed to encode intent", "actionType", actionType, "error", err)
		return
	}
	c.ch.Send(protocol.TypePlayerAction, action)
}

// handleJoinAck adopts the assigned id when the ack is ours: token
// match when the host echoed one, first unacknowledged name match as
// the fallback for token-less hosts.
func (c *Client) handleJoinAck(data protocol.JoinAckData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playerID >= 0 {
		return
	}
	if data.Token != "" {
		if data.Token != c.token {
			return
		}
	} else if data.Name != c.name {
		return
	}

	c.playerID = data.AssignedID
	close(c.joined)
	c.logger.Info("Seat assigned", "id", data.AssignedID)
}

// adopt replaces the local view with the broadcast state. Any local
// selection is cleared when it is no longer this player's turn to
// choose, mirroring the turn/phase change that made it stale.
func (c *Client) adopt(state *game.State) {
	c.mu.Lock()
	c.state = state
	if state.CurrentPlayerIndex != c.playerID || state.TurnPhase != game.TurnStart {
		c.selected = nil
	}
	onUpdate := c.onUpdate
	c.mu.Unlock()

	if onUpdate != nil {
		onUpdate(state.Clone())
	}
}
