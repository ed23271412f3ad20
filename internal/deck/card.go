package deck

import "fmt"

// Suit represents a card suit. Jokers carry their own marker suit.
type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
	JokerSuit
)

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	case JokerSuit:
		return "★"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank. Joker is a distinct rank of its own:
// two Jokers form a legal same-rank discard, a Joker mixed with any
// other rank does not.
type Rank int

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	JokerRank
)

// String returns the string representation of a rank
func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Ten:
		return "10"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case JokerRank:
		return "Joker"
	default:
		if r >= Two && r <= Nine {
			return fmt.Sprintf("%d", int(r))
		}
		return "?"
	}
}

// Points returns the counting value of a rank: Ace counts one, number
// cards count face value, tens and court cards count ten, Jokers zero.
func (r Rank) Points() int {
	switch {
	case r == JokerRank:
		return 0
	case r >= Ten:
		return 10
	default:
		return int(r)
	}
}

// Card represents a playing card. The ID is unique within a built deck
// and stable for the deck's lifetime, so replicated copies of the same
// physical card compare equal.
type Card struct {
	ID    string `json:"id"`
	Suit  Suit   `json:"suit"`
	Rank  Rank   `json:"rank"`
	Value int    `json:"value"`
}

// NewCard creates a new card with its counting value derived from the rank
func NewCard(id string, suit Suit, rank Rank) Card {
	return Card{ID: id, Suit: suit, Rank: rank, Value: rank.Points()}
}

// String returns the string representation of a card (e.g., "A♠")
func (c Card) String() string {
	if c.Rank == JokerRank {
		return "Joker★"
	}
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// IsRed returns true if the card is red
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// IsJoker returns true if the card is a Joker
func (c Card) IsJoker() bool {
	return c.Rank == JokerRank
}
