package bot

import (
	"github.com/minimagame/minima/internal/deck"
)

// Original tuning constants.
const (
	DefaultShowThreshold        = 6
	DefaultTakeDiscardThreshold = 3
)

// Policy is a deterministic, stateless decision procedure. It sees only
// what a remote player would see: its own hand and the takeable discard
// card.
type Policy struct {
	ShowThreshold        int
	TakeDiscardThreshold int
}

// NewPolicy returns a policy with the default thresholds.
func NewPolicy() Policy {
	return Policy{
		ShowThreshold:        DefaultShowThreshold,
		TakeDiscardThreshold: DefaultTakeDiscardThreshold,
	}
}

// ShouldShow reports whether the hand is low enough to call SHOW.
func (p Policy) ShouldShow(hand []deck.Card) bool {
	return deck.HandValue(hand) <= p.ShowThreshold
}

// ChooseDiscard picks the hand indices to shed: the single
// highest-value card, unless a same-rank group sums strictly higher.
// The single is evaluated first, so equal sums keep it.
func (p Policy) ChooseDiscard(hand []deck.Card) []int {
	if len(hand) == 0 {
		return nil
	}

	bestIndices := []int{0}
	bestValue := hand[0].Value
	for i, c := range hand {
		if c.Value > bestValue {
			bestIndices = []int{i}
			bestValue = c.Value
		}
	}

	groups := make(map[deck.Rank][]int)
	order := make([]deck.Rank, 0, len(hand))
	for i, c := range hand {
		if _, seen := groups[c.Rank]; !seen {
			order = append(order, c.Rank)
		}
		groups[c.Rank] = append(groups[c.Rank], i)
	}
	for _, rank := range order {
		indices := groups[rank]
		if len(indices) < 2 {
			continue
		}
		sum := 0
		for _, i := range indices {
			sum += hand[i].Value
		}
		if sum > bestValue {
			bestIndices = indices
			bestValue = sum
		}
	}
	return bestIndices
}

// TakeFromDiscard reports whether the takeable discard card is worth
// picking up over a blind deck draw.
func (p Policy) TakeFromDiscard(takeable *deck.Card) bool {
	return takeable != nil && takeable.Value <= p.TakeDiscardThreshold
}
