package game

import (
	"github.com/minimagame/minima/internal/deck"
)

// Game sizing constants.
const (
	StartingHandSize = 5
	MinPlayers       = 2
	MaxPlayers       = 5

	// DoubleDeckThreshold is the player count at which a second deck is
	// shuffled in. Unreachable at the default MaxPlayers but kept with
	// the rule so raising the cap keeps the game playable.
	DoubleDeckThreshold = 6
)

// Phase is the top-level lifecycle phase of a room.
type Phase string

const (
	PhaseSetup     Phase = "SETUP"
	PhaseLobby     Phase = "LOBBY"
	PhasePlaying   Phase = "PLAYING"
	PhaseRoundOver Phase = "ROUND_OVER"
)

// TurnPhase is the sub-state within the active player's turn: in START
// the player chooses to discard or call show, after a legal discard the
// turn moves to DRAW until a card is drawn.
type TurnPhase string

const (
	TurnStart TurnPhase = "START"
	TurnDraw  TurnPhase = "DRAW"
)

// Player last-action labels, shown transiently until the turn passes.
const (
	ActionLabelDiscarded = "Discarded"
	ActionLabelDrewCard  = "Drew Card"
	ActionLabelSwapped   = "Swapped"
)

// Player is a seated participant. The ID doubles as the player's index
// in State.Players and as the turn-order position; it is assigned at
// join time and never reused or reordered for the room's lifetime.
type Player struct {
	ID         int         `json:"id"`
	Name       string      `json:"name"`
	IsBot      bool        `json:"isBot"`
	Hand       []deck.Card `json:"hand"`
	Score      int         `json:"score"`
	LastAction string      `json:"lastAction,omitempty"`
}

// State is the single replicated aggregate. Only the host ever runs the
// transition methods; every other process replaces its copy wholesale
// with whatever the host last broadcast.
type State struct {
	Phase               Phase       `json:"phase"`
	Players             []Player    `json:"players"`
	Deck                []deck.Card `json:"deck"`
	DiscardPile         []deck.Card `json:"discardPile"`
	CurrentPlayerIndex  int         `json:"currentPlayerIndex"`
	TurnPhase           TurnPhase   `json:"turnPhase"`
	WinnerID            *int        `json:"winnerId"`
	RoundLog            []string    `json:"roundLog"`
	CardsPlayedThisTurn int         `json:"cardsPlayedThisTurn"`
	RoomID              string      `json:"roomId"`
	HostID              int         `json:"hostId"`

	// Table limits only matter on the host; replicas never run the
	// transitions that consult them, so they stay off the wire.
	maxPlayers int
	handSize   int
}

// New creates an empty state in SETUP for the given room.
func New(roomID string) *State {
	return &State{
		Phase:       PhaseSetup,
		Players:     []Player{},
		Deck:        []deck.Card{},
		DiscardPile: []deck.Card{},
		TurnPhase:   TurnStart,
		RoundLog:    []string{},
		RoomID:      roomID,
		maxPlayers:  MaxPlayers,
		handSize:    StartingHandSize,
	}
}

// SetLimits overrides the seat cap and dealt hand size. Non-positive
// values keep the current setting.
func (s *State) SetLimits(maxPlayers, handSize int) {
	if maxPlayers > 0 {
		s.maxPlayers = maxPlayers
	}
	if handSize > 0 {
		s.handSize = handSize
	}
}

// ActivePlayer returns the player whose turn it is, or nil outside PLAYING.
func (s *State) ActivePlayer() *Player {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return &s.Players[s.CurrentPlayerIndex]
}

// PlayerByID returns the player with the given id, or nil. Because the
// id-equals-index invariant holds this is a direct index lookup.
func (s *State) PlayerByID(id int) *Player {
	if id < 0 || id >= len(s.Players) {
		return nil
	}
	return &s.Players[id]
}

// TotalCards counts every card across the deck, the discard pile and
// all hands. Conserved across every transition once a round is dealt.
func (s *State) TotalCards() int {
	total := len(s.Deck) + len(s.DiscardPile)
	for _, p := range s.Players {
		total += len(p.Hand)
	}
	return total
}

// Clone returns a deep copy, safe to hand to another goroutine or to
// serialize while the original keeps mutating.
func (s *State) Clone() *State {
	c := *s

	c.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		c.Players[i] = p
		c.Players[i].Hand = make([]deck.Card, len(p.Hand))
		copy(c.Players[i].Hand, p.Hand)
	}
	c.Deck = make([]deck.Card, len(s.Deck))
	copy(c.Deck, s.Deck)
	c.DiscardPile = make([]deck.Card, len(s.DiscardPile))
	copy(c.DiscardPile, s.DiscardPile)
	c.RoundLog = make([]string, len(s.RoundLog))
	copy(c.RoundLog, s.RoundLog)

	if s.WinnerID != nil {
		id := *s.WinnerID
		c.WinnerID = &id
	}

	return &c
}
