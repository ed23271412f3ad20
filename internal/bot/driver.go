package bot

import (
	"github.com/charmbracelet/log"

	"github.com/minimagame/minima/internal/deck"
	"github.com/minimagame/minima/internal/game"
)

// Actor is the intent surface a policy drives. room.Client satisfies
// it; the host's own seat uses a thin adapter over Host.Submit.
type Actor interface {
	SubmitDiscard(indices []int)
	SubmitDraw(fromDiscard bool)
	SubmitShow()
}

// Driver runs a Policy against state snapshots, emitting intents for
// one seat whenever that seat holds the turn.
//
// Decisions run on the driver's own goroutine. Acting inside the
// update callback would publish back into the channel mid-dispatch, so
// snapshots are handed off instead, keeping only the newest.
type Driver struct {
	policy   Policy
	actor    Actor
	playerID func() int
	logger   *log.Logger
	updates  chan *game.State
	done     chan struct{}
}

// NewDriver creates a driver for the seat playerID reports. Call Start
// to begin reacting.
func NewDriver(policy Policy, actor Actor, playerID func() int, logger *log.Logger) *Driver {
	return &Driver{
		policy:   policy,
		actor:    actor,
		playerID: playerID,
		logger:   logger.WithPrefix("bot"),
		updates:  make(chan *game.State, 1),
		done:     make(chan struct{}),
	}
}

// Start begins the decision loop.
func (d *Driver) Start() {
	go d.run()
}

// Stop ends the decision loop.
func (d *Driver) Stop() {
	select {
	case <-d.done:
	default:
		close(d.done)
	}
}

// Push hands a fresh snapshot to the decision loop, dropping any stale
// one still queued.
func (d *Driver) Push(state *game.State) {
	select {
	case <-d.updates:
	default:
	}
	select {
	case d.updates <- state:
	case <-d.done:
	}
}

func (d *Driver) run() {
	for {
		select {
		case <-d.done:
			return
		case state := <-d.updates:
			d.act(state)
		}
	}
}

// act plays out the seat's share of the turn the snapshot describes.
// Anything it gets wrong is rejected by the host like any other
// illegal intent.
func (d *Driver) act(state *game.State) {
	id := d.playerID()
	if id < 0 || state.Phase != game.PhasePlaying {
		return
	}
	player := state.ActivePlayer()
	if player == nil || player.ID != id {
		return
	}

	switch state.TurnPhase {
	case game.TurnStart:
		// A non-zero discard count in START means the draw is done and
		// the host will pass the turn shortly. Reacting to that snapshot
		// would start the same turn over.
		if state.CardsPlayedThisTurn > 0 {
			return
		}
		if d.policy.ShouldShow(player.Hand) {
			d.logger.Debug("Calling show", "name", player.Name, "handValue", deck.HandValue(player.Hand))
			d.actor.SubmitShow()
			return
		}
		indices := d.policy.ChooseDiscard(player.Hand)
		d.logger.Debug("Discarding", "name", player.Name, "indices", indices)
		d.actor.SubmitDiscard(indices)
	case game.TurnDraw:
		takeable := takeableDiscard(state)
		fromDiscard := d.policy.TakeFromDiscard(takeable)
		d.logger.Debug("Drawing", "name", player.Name, "fromDiscard", fromDiscard)
		d.actor.SubmitDraw(fromDiscard)
	}
}

// takeableDiscard returns the card a draw from the pile would yield:
// the top as it stood before this turn's discards went down.
func takeableDiscard(state *game.State) *deck.Card {
	target := len(state.DiscardPile) - 1 - state.CardsPlayedThisTurn
	if target < 0 {
		return nil
	}
	return &state.DiscardPile[target]
}
