package deck

import (
	"fmt"
	rand "math/rand/v2"
)

// JokersPerDeck is the number of Jokers added to each 52-card set.
const JokersPerDeck = 2

// Build produces numDecks standard 52-card sets plus two Jokers per set,
// pre-shuffled with the provided rng. Card IDs encode the set index so
// duplicate cards across sets stay distinguishable.
func Build(numDecks int, rng *rand.Rand) []Card {
	cards := make([]Card, 0, numDecks*(52+JokersPerDeck))

	for d := 0; d < numDecks; d++ {
		for suit := Hearts; suit <= Spades; suit++ {
			for rank := Ace; rank <= King; rank++ {
				id := fmt.Sprintf("%d-%s-%s", d, suit, rank)
				cards = append(cards, NewCard(id, suit, rank))
			}
		}
		for j := 1; j <= JokersPerDeck; j++ {
			id := fmt.Sprintf("%d-joker-%d", d, j)
			cards = append(cards, NewCard(id, JokerSuit, JokerRank))
		}
	}

	return Shuffle(rng, cards)
}

// Shuffle returns a uniformly random permutation of cards without
// mutating the input. Fisher-Yates.
func Shuffle(rng *rand.Rand, cards []Card) []Card {
	shuffled := make([]Card, len(cards))
	copy(shuffled, cards)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// HandValue sums the counting values of a hand. Order-independent.
func HandValue(hand []Card) int {
	total := 0
	for _, c := range hand {
		total += c.Value
	}
	return total
}

// IsLegalDiscardSet reports whether the cards may be discarded together.
// A single card is always legal; multiple cards must all share one rank.
// Joker counts as its own rank, so an all-Joker set is legal but a Joker
// mixed with non-Jokers is not.
func IsLegalDiscardSet(cards []Card) bool {
	if len(cards) == 0 {
		return false
	}
	first := cards[0].Rank
	for _, c := range cards[1:] {
		if c.Rank != first {
			return false
		}
	}
	return true
}
