package game

import (
	"errors"

	"github.com/minimagame/minima/internal/deck"
)

// Rejection sentinels. The coordinator treats all of these as "drop the
// intent silently": the state is left untouched and no error is sent
// back to the submitter. They stay distinct so logs and tests can tell
// rejections apart.
var (
	ErrWrongPhase       = errors.New("action not legal in current phase")
	ErrNotYourTurn      = errors.New("not the active player")
	ErrBadDiscard       = errors.New("discard set is not legal")
	ErrBadIndices       = errors.New("discard indices do not resolve to hand slots")
	ErrNoDrawSource     = errors.New("no card available from requested draw source")
	ErrTurnComplete     = errors.New("turn already completed, waiting for advance")
	ErrRoomFull         = errors.New("room is at capacity")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrUnknownPlayer    = errors.New("no such player")
)

// checkActive validates that the submitting player exists, it is their
// turn, and the turn is in the expected sub-phase. Every transition
// re-checks from scratch: the UI layer is expected to prevent most
// illegal intents but the validator is the authority.
func (s *State) checkActive(playerID int, want TurnPhase) error {
	if s.Phase != PhasePlaying {
		return ErrWrongPhase
	}
	active := s.ActivePlayer()
	if active == nil || active.ID != playerID {
		return ErrNotYourTurn
	}
	if s.TurnPhase != want {
		return ErrWrongPhase
	}
	return nil
}

// resolveDiscard maps hand indices to cards, rejecting empty sets,
// duplicate indices, out-of-range slots and rank-mixed sets. Cards are
// returned in submission order. Resolution is by index rather than card
// identity so duplicate-valued cards are never ambiguous.
func (s *State) resolveDiscard(playerID int, indices []int) ([]deck.Card, error) {
	player := s.PlayerByID(playerID)
	if player == nil {
		return nil, ErrUnknownPlayer
	}
	if len(indices) == 0 {
		return nil, ErrBadIndices
	}

	seen := make(map[int]bool, len(indices))
	cards := make([]deck.Card, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(player.Hand) || seen[idx] {
			return nil, ErrBadIndices
		}
		seen[idx] = true
		cards = append(cards, player.Hand[idx])
	}

	if !deck.IsLegalDiscardSet(cards) {
		return nil, ErrBadDiscard
	}
	return cards, nil
}
