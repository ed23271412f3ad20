// Package room implements both ends of the replication protocol: the
// Host, which owns the authoritative game state and is the room's only
// writer, and the Client, a pure state sink that submits intents and
// adopts whatever the host broadcasts.
package room

import (
	"encoding/json"
	"errors"
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/minimagame/minima/internal/channel"
	"github.com/minimagame/minima/internal/game"
	"github.com/minimagame/minima/internal/protocol"
)

// TurnAdvanceDelay is the pause between a successful draw and the
// automatic turn-advance broadcast. It exists purely to let the drawn
// card render before the turn visibly passes; correctness never
// depends on it.
const TurnAdvanceDelay = time.Second

// ErrClosed is returned for operations against a closed host.
var ErrClosed = errors.New("room host is closed")

const mailboxSize = 64

// Host owns the canonical state for one room. Every transition — a
// validated client intent, a join, the delayed turn advance, a
// host-local command — funnels through one mailbox goroutine, so
// intents arriving concurrently are applied strictly one at a time in
// arrival order and there is never a second writer.
type Host struct {
	ch     channel.Channel
	clock  quartz.Clock
	rng    *rand.Rand
	logger *log.Logger

	state        *game.State
	maxPlayers   int
	handSize     int
	advanceDelay time.Duration
	advanceTimer *quartz.Timer
	onUpdate     func(*game.State)

	commands chan func()
	done     chan struct{}
}

// NewHost creates a host bound to a channel. onUpdate, if non-nil, is
// invoked with a state snapshot after every broadcast: the host process
// is a state sink for its own broadcasts like any client.
func NewHost(ch channel.Channel, clock quartz.Clock, rng *rand.Rand, logger *log.Logger, onUpdate func(*game.State)) *Host {
	return &Host{
		ch:           ch,
		clock:        clock,
		rng:          rng,
		logger:       logger.WithPrefix("host"),
		advanceDelay: TurnAdvanceDelay,
		onUpdate:     onUpdate,
		commands:     make(chan func(), mailboxSize),
		done:         make(chan struct{}),
	}
}

// SetTurnAdvanceDelay overrides the draw-to-advance pause. Call before
// Open.
func (h *Host) SetTurnAdvanceDelay(d time.Duration) {
	h.advanceDelay = d
}

// SetTableLimits overrides the seat cap and dealt hand size. Call
// before Open; non-positive values keep the defaults.
func (h *Host) SetTableLimits(maxPlayers, handSize int) {
	h.maxPlayers = maxPlayers
	h.handSize = handSize
}

// Open connects the channel, seats the host itself as player 0 and
// starts accepting joins and intents.
func (h *Host) Open(roomID, hostName string) error {
	if err := h.ch.Connect(roomID); err != nil {
		return err
	}

	h.state = game.New(roomID)
	h.state.SetLimits(h.maxPlayers, h.handSize)
	h.state.EnterLobby(0)
	if _, err := h.state.AddPlayer(hostName, false); err != nil {
		return err
	}

	h.ch.On(protocol.TypeJoinRequest, func(msg *protocol.Message) {
		var data protocol.JoinRequestData
		if err := msg.Decode(&data); err != nil {
			h.logger.Debug("Dropping malformed join request", "error", err)
			return
		}
		h.enqueue(func() { h.handleJoin(data) })
	})
	h.ch.On(protocol.TypePlayerAction, func(msg *protocol.Message) {
		var data protocol.PlayerActionData
		if err := msg.Decode(&data); err != nil {
			h.logger.Debug("Dropping malformed action", "error", err)
			return
		}
		h.enqueue(func() { h.handleAction(data) })
	})

	go h.run()

	h.logger.Info("Room open", "room", roomID, "host", hostName)
	return h.do(func() error {
		h.broadcast()
		return nil
	})
}

// Close stops the host and releases the channel.
func (h *Host) Close() {
	select {
	case <-h.done:
		return
	default:
	}
	close(h.done)
	h.ch.Disconnect()
}

// StartGame deals the first round. Host-only; also serves as the
// "play again" command from ROUND_OVER.
func (h *Host) StartGame() error {
	return h.do(func() error {
		h.cancelAdvance()
		if err := h.state.StartRound(h.rng); err != nil {
			return err
		}
		h.broadcast()
		return nil
	})
}

// Submit applies an intent from the host's own seat (or a co-resident
// bot seat). It runs through exactly the same validation path as a
// remote intent.
func (h *Host) Submit(action protocol.PlayerActionData) {
	h.enqueue(func() { h.handleAction(action) })
}

// State returns a snapshot of the authoritative state.
func (h *Host) State() *game.State {
	var snap *game.State
	err := h.do(func() error {
		snap = h.state.Clone()
		return nil
	})
	if err != nil {
		return nil
	}
	return snap
}

func (h *Host) run() {
	for {
		select {
		case fn := <-h.commands:
			fn()
		case <-h.done:
			return
		}
	}
}

func (h *Host) enqueue(fn func()) {
	select {
	case h.commands <- fn:
	case <-h.done:
	}
}

func (h *Host) do(fn func() error) error {
	errc := make(chan error, 1)
	select {
	case h.commands <- func() { errc <- fn() }:
	case <-h.done:
		return ErrClosed
	}
	select {
	case err := <-errc:
		return err
	case <-h.done:
		return ErrClosed
	}
}

// handleJoin admits a joiner if the lobby has space, then acks the
// specific requester and broadcasts the grown roster. Rejections are
// silent: the requester simply never sees an ack.
func (h *Host) handleJoin(data protocol.JoinRequestData) {
	id, err := h.state.AddPlayer(data.Name, data.IsBot)
	if err != nil {
		h.logger.Debug("Rejected join", "name", data.Name, "reason", err)
		return
	}

	h.logger.Info("Player joined", "name", data.Name, "id", id)
	h.ch.Send(protocol.TypeJoinAck, protocol.JoinAckData{
		Name:       data.Name,
		Token:      data.Token,
		AssignedID: id,
	})
	h.broadcast()
}

// handleAction validates and applies a single intent. Illegal intents
// leave the state untouched and are dropped without a response.
func (h *Host) handleAction(action protocol.PlayerActionData) {
	switch action.ActionType {
	case protocol.ActionDiscard:
		var data protocol.DiscardData
		if err := decodeActionData(action.Data, &data); err != nil {
			h.logger.Debug("Dropping malformed discard", "player", action.PlayerID, "error", err)
			return
		}
		if err := h.state.ApplyDiscard(action.PlayerID, data.Indices); err != nil {
			h.logger.Debug("Rejected discard", "player", action.PlayerID, "reason", err)
			return
		}
		h.broadcast()

	case protocol.ActionDraw:
		var data protocol.DrawData
		if err := decodeActionData(action.Data, &data); err != nil {
			h.logger.Debug("Dropping malformed draw", "player", action.PlayerID, "error", err)
			return
		}
		if err := h.state.ApplyDraw(action.PlayerID, data.FromDiscard, h.rng); err != nil {
			h.logger.Debug("Rejected draw", "player", action.PlayerID, "reason", err)
			return
		}
		h.broadcast()
		h.scheduleAdvance()

	case protocol.ActionShow:
		if err := h.state.ApplyShow(action.PlayerID); err != nil {
			h.logger.Debug("Rejected show", "player", action.PlayerID, "reason", err)
			return
		}
		// The round is over; a pending turn advance must not fire
		// against the terminal state.
		h.cancelAdvance()
		h.broadcast()

	default:
		h.logger.Debug("Dropping unknown action", "actionType", action.ActionType)
	}
}

// scheduleAdvance arms the delayed turn-advance transition. The timer
// routes back through the mailbox so the advance is serialized like
// every other write, and re-arming or cancelling always supersedes a
// pending one.
func (h *Host) scheduleAdvance() {
	h.cancelAdvance()
	h.advanceTimer = h.clock.AfterFunc(h.advanceDelay, func() {
		_ = h.do(func() error {
			h.advanceTimer = nil
			if h.state.Phase != game.PhasePlaying {
				return nil
			}
			h.state.AdvanceTurn()
			h.broadcast()
			return nil
		})
	})
}

func (h *Host) cancelAdvance() {
	if h.advanceTimer != nil {
		h.advanceTimer.Stop()
		h.advanceTimer = nil
	}
}

// broadcast publishes a snapshot as the room's new truth and feeds the
// same snapshot to the host's local observer.
func (h *Host) broadcast() {
	snap := h.state.Clone()
	h.ch.Send(protocol.TypeGameUpdate, snap)
	if h.onUpdate != nil {
		h.onUpdate(snap)
	}
}

func decodeActionData(raw json.RawMessage, v interface{}) error {
	if raw == nil {
		return errors.New("missing action data")
	}
	return json.Unmarshal(raw, v)
}
