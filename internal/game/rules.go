package game

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/minimagame/minima/internal/deck"
)

// EnterLobby opens the room for joiners.
func (s *State) EnterLobby(hostID int) {
	s.Phase = PhaseLobby
	s.HostID = hostID
}

// AddPlayer seats a new player and returns its assigned id. The id is
// always the current player count, which keeps the id-equals-index
// invariant by construction; players are only ever appended.
func (s *State) AddPlayer(name string, isBot bool) (int, error) {
	if s.Phase != PhaseLobby {
		return 0, ErrWrongPhase
	}
	if len(s.Players) >= s.maxPlayers {
		return 0, ErrRoomFull
	}

	id := len(s.Players)
	s.Players = append(s.Players, Player{
		ID:    id,
		Name:  name,
		IsBot: isBot,
		Hand:  []deck.Card{},
	})
	return id, nil
}

// StartRound deals a fresh round: a new shuffled deck (two decks at six
// or more players), a full hand to every player round-robin in player
// order, and one exposed card seeding the discard pile. Legal
// from the lobby with enough players seated, and from ROUND_OVER as the
// "play again" path with the roster preserved.
func (s *State) StartRound(rng *rand.Rand) error {
	if s.Phase != PhaseLobby && s.Phase != PhaseRoundOver {
		return ErrWrongPhase
	}
	if len(s.Players) < MinPlayers {
		return ErrNotEnoughPlayers
	}

	numDecks := 1
	if len(s.Players) >= DoubleDeckThreshold {
		numDecks = 2
	}
	s.Deck = deck.Build(numDecks, rng)

	for i := range s.Players {
		s.Players[i].Hand = []deck.Card{}
		s.Players[i].Score = 0
		s.Players[i].LastAction = ""
	}
	for round := 0; round < s.handSize; round++ {
		for i := range s.Players {
			if card, ok := s.popDeck(); ok {
				s.Players[i].Hand = append(s.Players[i].Hand, card)
			}
		}
	}

	s.DiscardPile = []deck.Card{}
	if card, ok := s.popDeck(); ok {
		s.DiscardPile = append(s.DiscardPile, card)
	}

	s.Phase = PhasePlaying
	s.CurrentPlayerIndex = 0
	s.TurnPhase = TurnStart
	s.WinnerID = nil
	s.CardsPlayedThisTurn = 0
	s.RoundLog = []string{"Game Started!"}
	return nil
}

// ApplyDiscard removes the cards at the given hand indices from the
// active player's hand and stacks them on the discard pile in
// submission order, moving the turn to its DRAW phase.
func (s *State) ApplyDiscard(playerID int, indices []int) error {
	if err := s.checkActive(playerID, TurnStart); err != nil {
		return err
	}
	// CardsPlayedThisTurn is non-zero in START only between a draw and
	// the delayed advance; a second discard there would let one player
	// replay the turn indefinitely.
	if s.CardsPlayedThisTurn > 0 {
		return ErrTurnComplete
	}
	cards, err := s.resolveDiscard(playerID, indices)
	if err != nil {
		return err
	}

	player := s.PlayerByID(playerID)
	discarded := make(map[int]bool, len(indices))
	for _, idx := range indices {
		discarded[idx] = true
	}
	kept := make([]deck.Card, 0, len(player.Hand)-len(indices))
	for i, c := range player.Hand {
		if !discarded[i] {
			kept = append(kept, c)
		}
	}

	player.Hand = kept
	player.LastAction = ActionLabelDiscarded
	s.DiscardPile = append(s.DiscardPile, cards...)
	s.CardsPlayedThisTurn = len(cards)
	s.TurnPhase = TurnDraw
	return nil
}

// ApplyDraw gives the active player one card, either from the deck or
// from the discard pile position that was on top before this turn's
// discards were added ("steal the previous top"). The turn returns to
// START; advancing to the next player is a separate transition so the
// coordinator can delay it. The rng is only consulted when an empty
// deck forces a discard-pile reshuffle.
func (s *State) ApplyDraw(playerID int, fromDiscard bool, rng *rand.Rand) error {
	if err := s.checkActive(playerID, TurnDraw); err != nil {
		return err
	}
	player := s.PlayerByID(playerID)

	var drawn deck.Card
	if fromDiscard {
		// The pre-turn top sits below whatever this player just played.
		target := len(s.DiscardPile) - 1 - s.CardsPlayedThisTurn
		if target < 0 {
			return ErrNoDrawSource
		}
		drawn = s.DiscardPile[target]
		s.DiscardPile = append(s.DiscardPile[:target], s.DiscardPile[target+1:]...)
		player.LastAction = ActionLabelSwapped
	} else {
		if len(s.Deck) == 0 && len(s.DiscardPile) > 1 {
			s.reshuffleDiscards(rng)
		}
		card, ok := s.popDeck()
		if !ok {
			return ErrNoDrawSource
		}
		drawn = card
		player.LastAction = ActionLabelDrewCard
	}

	player.Hand = append(player.Hand, drawn)
	s.TurnPhase = TurnStart
	return nil
}

// AdvanceTurn passes play to the next player in seating order and
// resets per-turn bookkeeping, including every transient action label.
func (s *State) AdvanceTurn() {
	if s.Phase != PhasePlaying || len(s.Players) == 0 {
		return
	}
	s.CurrentPlayerIndex = (s.CurrentPlayerIndex + 1) % len(s.Players)
	s.TurnPhase = TurnStart
	s.CardsPlayedThisTurn = 0
	for i := range s.Players {
		s.Players[i].LastAction = ""
	}
}

// ApplyShow ends the round on the active player's claim to hold the
// lowest hand. The caller wins only with a strictly lower value than
// every other player; otherwise the win goes to the global minimum,
// ties broken by first-encountered in player order.
func (s *State) ApplyShow(playerID int) error {
	if err := s.checkActive(playerID, TurnStart); err != nil {
		return err
	}
	caller := s.PlayerByID(playerID)

	s.RoundLog = append(s.RoundLog, fmt.Sprintf("%s called SHOW!", caller.Name))

	callerSum := deck.HandValue(caller.Hand)
	strictlyLowest := true
	for _, p := range s.Players {
		if p.ID == caller.ID {
			continue
		}
		if deck.HandValue(p.Hand) <= callerSum {
			strictlyLowest = false
			break
		}
	}

	var winnerID int
	if strictlyLowest {
		winnerID = caller.ID
		s.RoundLog = append(s.RoundLog,
			fmt.Sprintf("%s has the lowest hand (%d)! They WIN!", caller.Name, callerSum))
	} else {
		s.RoundLog = append(s.RoundLog,
			fmt.Sprintf("%s (%d) was caught! Someone has equal or lower.", caller.Name, callerSum))
		bestSum := -1
		for _, p := range s.Players {
			if sum := deck.HandValue(p.Hand); bestSum == -1 || sum < bestSum {
				bestSum = sum
				winnerID = p.ID
			}
		}
	}

	s.Phase = PhaseRoundOver
	s.WinnerID = &winnerID
	return nil
}

// popDeck draws from the top of the deck stack (the last element).
func (s *State) popDeck() (deck.Card, bool) {
	if len(s.Deck) == 0 {
		return deck.Card{}, false
	}
	card := s.Deck[len(s.Deck)-1]
	s.Deck = s.Deck[:len(s.Deck)-1]
	return card, true
}

// reshuffleDiscards rebuilds the deck from the stale part of the
// discard pile when the deck runs dry. The most recent
// max(CardsPlayedThisTurn, 1) cards stay as the pile so the current
// turn's discards (or at least the visible top) survive the shuffle.
func (s *State) reshuffleDiscards(rng *rand.Rand) {
	kept := s.CardsPlayedThisTurn
	if kept < 1 {
		kept = 1
	}
	if kept >= len(s.DiscardPile) {
		return
	}

	cut := len(s.DiscardPile) - kept
	recycled := append([]deck.Card(nil), s.DiscardPile[:cut]...)
	s.DiscardPile = append([]deck.Card(nil), s.DiscardPile[cut:]...)
	s.Deck = deck.Shuffle(rng, recycled)
}
