package game

import (
	"reflect"
	"testing"

	"github.com/minimagame/minima/internal/deck"
	"github.com/minimagame/minima/internal/randutil"
)

func newLobbyState(t *testing.T, names ...string) *State {
	t.Helper()
	s := New("4242")
	s.EnterLobby(0)
	for _, name := range names {
		if _, err := s.AddPlayer(name, false); err != nil {
			t.Fatalf("AddPlayer(%q): %v", name, err)
		}
	}
	return s
}

func newPlayingState(t *testing.T, names ...string) *State {
	t.Helper()
	s := newLobbyState(t, names...)
	if err := s.StartRound(randutil.New(7)); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	return s
}

func TestAddPlayerAssignsSequentialIDs(t *testing.T) {
	s := newLobbyState(t, "alice", "bob", "carol")

	for i, p := range s.Players {
		if p.ID != i {
			t.Errorf("player %q has id %d at index %d", p.Name, p.ID, i)
		}
	}
}

func TestAddPlayerCapacity(t *testing.T) {
	s := newLobbyState(t, "p0", "p1", "p2", "p3", "p4")

	if _, err := s.AddPlayer("p5", false); err != ErrRoomFull {
		t.Errorf("6th join: got %v, want ErrRoomFull", err)
	}
	if len(s.Players) != MaxPlayers {
		t.Errorf("players.length changed on rejected join: %d", len(s.Players))
	}
}

func TestAddPlayerRequiresLobby(t *testing.T) {
	s := newPlayingState(t, "alice", "bob")

	if _, err := s.AddPlayer("late", false); err != ErrWrongPhase {
		t.Errorf("join during PLAYING: got %v, want ErrWrongPhase", err)
	}
}

func TestStartRoundDeals(t *testing.T) {
	s := newPlayingState(t, "alice", "bob")

	for _, p := range s.Players {
		if len(p.Hand) != StartingHandSize {
			t.Errorf("%s dealt %d cards, want %d", p.Name, len(p.Hand), StartingHandSize)
		}
	}
	if len(s.DiscardPile) != 1 {
		t.Errorf("discard pile seeded with %d cards, want 1", len(s.DiscardPile))
	}
	if s.TotalCards() != 54 {
		t.Errorf("card conservation broken at deal: %d cards in play", s.TotalCards())
	}
	if s.Phase != PhasePlaying || s.TurnPhase != TurnStart || s.CurrentPlayerIndex != 0 {
		t.Errorf("round start state: phase=%s turnPhase=%s idx=%d",
			s.Phase, s.TurnPhase, s.CurrentPlayerIndex)
	}
	if len(s.RoundLog) != 1 || s.RoundLog[0] != "Game Started!" {
		t.Errorf("round log = %v", s.RoundLog)
	}
}

func TestStartRoundNeedsTwoPlayers(t *testing.T) {
	s := newLobbyState(t, "solo")
	if err := s.StartRound(randutil.New(1)); err != ErrNotEnoughPlayers {
		t.Errorf("StartRound with one player: got %v", err)
	}
}

func TestPlayAgainPreservesRoster(t *testing.T) {
	s := newPlayingState(t, "alice", "bob")
	winner := 1
	s.Phase = PhaseRoundOver
	s.WinnerID = &winner

	if err := s.StartRound(randutil.New(9)); err != nil {
		t.Fatalf("play again: %v", err)
	}
	if len(s.Players) != 2 || s.Players[0].Name != "alice" {
		t.Errorf("roster changed across rounds: %+v", s.Players)
	}
	if s.WinnerID != nil {
		t.Error("winner not cleared on new round")
	}
	if s.TotalCards() != 54 {
		t.Errorf("fresh round has %d cards in play, want 54", s.TotalCards())
	}
}

func TestDiscardMovesCardsAndPhase(t *testing.T) {
	s := newPlayingState(t, "alice", "bob")
	alice := &s.Players[0]
	pileBefore := len(s.DiscardPile)
	first := alice.Hand[0]

	if err := s.ApplyDiscard(0, []int{0}); err != nil {
		t.Fatalf("ApplyDiscard: %v", err)
	}

	if len(alice.Hand) != StartingHandSize-1 {
		t.Errorf("hand size after discard: %d", len(alice.Hand))
	}
	if got := s.DiscardPile[len(s.DiscardPile)-1]; got.ID != first.ID {
		t.Errorf("discard pile top = %v, want %v", got, first)
	}
	if len(s.DiscardPile) != pileBefore+1 {
		t.Errorf("discard pile size = %d", len(s.DiscardPile))
	}
	if s.TurnPhase != TurnDraw || s.CardsPlayedThisTurn != 1 {
		t.Errorf("turnPhase=%s cardsPlayed=%d", s.TurnPhase, s.CardsPlayedThisTurn)
	}
	if alice.LastAction != ActionLabelDiscarded {
		t.Errorf("lastAction = %q", alice.LastAction)
	}
	if s.TotalCards() != 54 {
		t.Errorf("card conservation broken: %d", s.TotalCards())
	}
}

func TestDiscardByNonActivePlayerLeavesStateUnchanged(t *testing.T) {
	s := newPlayingState(t, "alice", "bob")
	before := s.Clone()

	if err := s.ApplyDiscard(1, []int{0}); err != ErrNotYourTurn {
		t.Fatalf("got %v, want ErrNotYourTurn", err)
	}
	if !reflect.DeepEqual(s, before) {
		t.Error("state mutated by rejected discard")
	}
}

func TestDiscardRejectsIllegalSets(t *testing.T) {
	s := newPlayingState(t, "alice", "bob")
	// Force a known hand: a king, a queen and two fives.
	s.Players[0].Hand = []deck.Card{
		deck.NewCard("k", deck.Spades, deck.King),
		deck.NewCard("q", deck.Hearts, deck.Queen),
		deck.NewCard("f1", deck.Clubs, deck.Five),
		deck.NewCard("f2", deck.Diamonds, deck.Five),
	}

	tests := []struct {
		name    string
		indices []int
		wantErr error
	}{
		{name: "empty selection", indices: nil, wantErr: ErrBadIndices},
		{name: "out of range", indices: []int{9}, wantErr: ErrBadIndices},
		{name: "duplicate index", indices: []int{0, 0}, wantErr: ErrBadIndices},
		{name: "mixed ranks", indices: []int{0, 1}, wantErr: ErrBadDiscard},
		{name: "pair of fives", indices: []int{2, 3}, wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clone := s.Clone()
			err := clone.ApplyDiscard(0, tt.indices)
			if err != tt.wantErr {
				t.Errorf("ApplyDiscard(%v) = %v, want %v", tt.indices, err, tt.wantErr)
			}
		})
	}
}

func TestSecondDiscardAfterDrawRejected(t *testing.T) {
	s := newPlayingState(t, "alice", "bob")
	if err := s.ApplyDiscard(0, []int{0}); err != nil {
		t.Fatal(err)
	}
	if err := s.ApplyDraw(0, false, randutil.New(1)); err != nil {
		t.Fatal(err)
	}
	before := s.Clone()

	// Between the draw and the turn advance the state is back in START;
	// another discard would start this turn over.
	if err := s.ApplyDiscard(0, []int{0}); err != ErrTurnComplete {
		t.Fatalf("discard after draw: got %v, want ErrTurnComplete", err)
	}
	if !reflect.DeepEqual(s, before) {
		t.Error("state mutated by rejected discard")
	}

	s.AdvanceTurn()
	if err := s.ApplyDiscard(1, []int{0}); err != nil {
		t.Errorf("next player's discard after advance: %v", err)
	}
}

func TestDrawFromDeck(t *testing.T) {
	s := newPlayingState(t, "alice", "bob")
	if err := s.ApplyDiscard(0, []int{0}); err != nil {
		t.Fatal(err)
	}
	deckBefore := len(s.Deck)

	if err := s.ApplyDraw(0, false, randutil.New(1)); err != nil {
		t.Fatalf("ApplyDraw: %v", err)
	}

	if len(s.Deck) != deckBefore-1 {
		t.Errorf("deck size = %d, want %d", len(s.Deck), deckBefore-1)
	}
	if len(s.Players[0].Hand) != StartingHandSize {
		t.Errorf("hand size = %d after discard+draw", len(s.Players[0].Hand))
	}
	if s.TurnPhase != TurnStart {
		t.Errorf("turnPhase = %s after draw", s.TurnPhase)
	}
	if s.Players[0].LastAction != ActionLabelDrewCard {
		t.Errorf("lastAction = %q", s.Players[0].LastAction)
	}
	if s.TotalCards() != 54 {
		t.Errorf("card conservation broken: %d", s.TotalCards())
	}
}

func TestDrawInStartPhaseRejected(t *testing.T) {
	s := newPlayingState(t, "alice", "bob")
	if err := s.ApplyDraw(0, false, randutil.New(1)); err != ErrWrongPhase {
		t.Errorf("draw before discard: got %v, want ErrWrongPhase", err)
	}
}

func TestDrawPreviousTopAddressing(t *testing.T) {
	s := newPlayingState(t, "alice", "bob")

	// Seed a known pile: starter card, then alice discards two fours on
	// top of it. The pre-turn top is the starter.
	starter := deck.NewCard("starter", deck.Clubs, deck.Nine)
	s.DiscardPile = []deck.Card{starter}
	s.Players[0].Hand = []deck.Card{
		deck.NewCard("f1", deck.Spades, deck.Four),
		deck.NewCard("f2", deck.Hearts, deck.Four),
		deck.NewCard("x", deck.Clubs, deck.King),
	}
	if err := s.ApplyDiscard(0, []int{0, 1}); err != nil {
		t.Fatal(err)
	}

	if err := s.ApplyDraw(0, true, randutil.New(1)); err != nil {
		t.Fatalf("draw from discard: %v", err)
	}

	hand := s.Players[0].Hand
	if got := hand[len(hand)-1]; got.ID != "starter" {
		t.Errorf("drew %v, want the pre-turn top %v", got, starter)
	}
	if len(s.DiscardPile) != 2 {
		t.Errorf("discard pile = %v, want only this turn's discards", s.DiscardPile)
	}
	if s.Players[0].LastAction != ActionLabelSwapped {
		t.Errorf("lastAction = %q", s.Players[0].LastAction)
	}
}

func TestDrawPreviousTopExhaustedFailsSilently(t *testing.T) {
	s := newPlayingState(t, "alice", "bob")

	// Empty pre-turn pile: every pile card belongs to the current turn.
	s.DiscardPile = []deck.Card{
		deck.NewCard("f1", deck.Spades, deck.Four),
		deck.NewCard("f2", deck.Hearts, deck.Four),
	}
	s.CardsPlayedThisTurn = 2
	s.TurnPhase = TurnDraw
	before := s.Clone()

	if err := s.ApplyDraw(0, true, randutil.New(1)); err != ErrNoDrawSource {
		t.Fatalf("got %v, want ErrNoDrawSource", err)
	}
	if !reflect.DeepEqual(s, before) {
		t.Error("state mutated by failed draw")
	}
}

func TestDrawReshufflesEmptyDeck(t *testing.T) {
	s := newPlayingState(t, "alice", "bob")

	pile := []deck.Card{
		deck.NewCard("old1", deck.Clubs, deck.Two),
		deck.NewCard("old2", deck.Spades, deck.Three),
		deck.NewCard("old3", deck.Hearts, deck.Six),
		deck.NewCard("new1", deck.Spades, deck.Four),
		deck.NewCard("new2", deck.Hearts, deck.Four),
	}
	s.Deck = []deck.Card{}
	s.DiscardPile = append([]deck.Card(nil), pile...)
	s.CardsPlayedThisTurn = 2
	s.TurnPhase = TurnDraw
	handBefore := len(s.Players[0].Hand)

	if err := s.ApplyDraw(0, false, randutil.New(5)); err != nil {
		t.Fatalf("draw with reshuffle: %v", err)
	}

	// The two current-turn discards stay as the pile; the other three
	// become the deck, minus the one just drawn.
	if len(s.DiscardPile) != 2 {
		t.Errorf("pile after reshuffle = %d cards, want 2", len(s.DiscardPile))
	}
	if s.DiscardPile[0].ID != "new1" || s.DiscardPile[1].ID != "new2" {
		t.Errorf("pile kept wrong cards: %v", s.DiscardPile)
	}
	if len(s.Deck) != 2 {
		t.Errorf("deck after reshuffle+draw = %d cards, want 2", len(s.Deck))
	}
	if len(s.Players[0].Hand) != handBefore+1 {
		t.Errorf("hand grew by %d", len(s.Players[0].Hand)-handBefore)
	}
}

func TestDrawReshuffleKeepsOneWhenNothingPlayed(t *testing.T) {
	s := newPlayingState(t, "alice", "bob")
	s.Deck = []deck.Card{}
	s.DiscardPile = []deck.Card{
		deck.NewCard("old", deck.Clubs, deck.Two),
		deck.NewCard("top", deck.Spades, deck.Three),
	}
	s.CardsPlayedThisTurn = 0
	s.TurnPhase = TurnDraw

	if err := s.ApplyDraw(0, false, randutil.New(5)); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if len(s.DiscardPile) != 1 || s.DiscardPile[0].ID != "top" {
		t.Errorf("pile = %v, want just the old top", s.DiscardPile)
	}
	if len(s.Deck) != 0 {
		t.Errorf("deck = %d cards after drawing the single recycled card", len(s.Deck))
	}
}

func TestDrawFailsWhenNoSourceAtAll(t *testing.T) {
	s := newPlayingState(t, "alice", "bob")
	s.Deck = []deck.Card{}
	s.DiscardPile = []deck.Card{deck.NewCard("only", deck.Clubs, deck.Two)}
	s.CardsPlayedThisTurn = 0
	s.TurnPhase = TurnDraw
	before := s.Clone()

	if err := s.ApplyDraw(0, false, randutil.New(5)); err != ErrNoDrawSource {
		t.Fatalf("got %v, want ErrNoDrawSource", err)
	}
	if !reflect.DeepEqual(s, before) {
		t.Error("state mutated by failed draw")
	}
}

func TestAdvanceTurnWrapsAndClearsLabels(t *testing.T) {
	s := newPlayingState(t, "alice", "bob", "carol")
	s.CurrentPlayerIndex = 2
	s.CardsPlayedThisTurn = 3
	s.Players[2].LastAction = ActionLabelDrewCard

	s.AdvanceTurn()

	if s.CurrentPlayerIndex != 0 {
		t.Errorf("currentPlayerIndex = %d, want 0", s.CurrentPlayerIndex)
	}
	if s.CardsPlayedThisTurn != 0 || s.TurnPhase != TurnStart {
		t.Errorf("per-turn state not reset: cardsPlayed=%d turnPhase=%s",
			s.CardsPlayedThisTurn, s.TurnPhase)
	}
	for _, p := range s.Players {
		if p.LastAction != "" {
			t.Errorf("%s lastAction not cleared: %q", p.Name, p.LastAction)
		}
	}
}

func setHandValue(p *Player, values ...deck.Rank) {
	p.Hand = nil
	for i, r := range values {
		p.Hand = append(p.Hand, deck.NewCard(
			p.Name+"-"+r.String()+string(rune('a'+i)), deck.Clubs, r))
	}
}

func TestShowStrictlyLowestWins(t *testing.T) {
	s := newPlayingState(t, "alice", "bob", "carol")
	setHandValue(&s.Players[0], deck.Two, deck.Three) // 5
	setHandValue(&s.Players[1], deck.Four, deck.Four) // 8
	setHandValue(&s.Players[2], deck.Ten)             // 10

	if err := s.ApplyShow(0); err != nil {
		t.Fatalf("ApplyShow: %v", err)
	}
	if s.Phase != PhaseRoundOver {
		t.Errorf("phase = %s", s.Phase)
	}
	if s.WinnerID == nil || *s.WinnerID != 0 {
		t.Errorf("winner = %v, want caller", s.WinnerID)
	}
	wantLog := "alice has the lowest hand (5)! They WIN!"
	if got := s.RoundLog[len(s.RoundLog)-1]; got != wantLog {
		t.Errorf("log = %q, want %q", got, wantLog)
	}
}

func TestShowTieBreaksByPlayerOrder(t *testing.T) {
	s := newPlayingState(t, "alice", "bob", "carol")
	setHandValue(&s.Players[0], deck.Five)            // 5
	setHandValue(&s.Players[1], deck.Two, deck.Three) // 5
	setHandValue(&s.Players[2], deck.Eight)           // 8
	s.CurrentPlayerIndex = 1

	// Caller bob ties with alice at 5, so bob is not strictly lowest;
	// the global minimum resolves to the first value-5 player in order.
	if err := s.ApplyShow(1); err != nil {
		t.Fatalf("ApplyShow: %v", err)
	}
	if s.WinnerID == nil || *s.WinnerID != 0 {
		t.Errorf("winner = %v, want player 0 by order tie-break", s.WinnerID)
	}
	wantLog := "bob (5) was caught! Someone has equal or lower."
	if got := s.RoundLog[len(s.RoundLog)-1]; got != wantLog {
		t.Errorf("log = %q, want %q", got, wantLog)
	}
}

func TestShowByNonActivePlayerRejected(t *testing.T) {
	s := newPlayingState(t, "alice", "bob")
	before := s.Clone()

	if err := s.ApplyShow(1); err != ErrNotYourTurn {
		t.Fatalf("got %v, want ErrNotYourTurn", err)
	}
	if !reflect.DeepEqual(s, before) {
		t.Error("state mutated by rejected show")
	}
}

func TestShowInDrawPhaseRejected(t *testing.T) {
	s := newPlayingState(t, "alice", "bob")
	if err := s.ApplyDiscard(0, []int{0}); err != nil {
		t.Fatal(err)
	}
	if err := s.ApplyShow(0); err != ErrWrongPhase {
		t.Errorf("show in DRAW phase: got %v, want ErrWrongPhase", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := newPlayingState(t, "alice", "bob")
	winner := 1
	s.WinnerID = &winner

	c := s.Clone()
	c.Players[0].Hand[0] = deck.NewCard("poison", deck.JokerSuit, deck.JokerRank)
	c.RoundLog = append(c.RoundLog, "tampered")
	*c.WinnerID = 0

	if s.Players[0].Hand[0].ID == "poison" {
		t.Error("clone shares hand storage")
	}
	if len(s.RoundLog) != 1 {
		t.Error("clone shares log storage")
	}
	if *s.WinnerID != 1 {
		t.Error("clone shares winner pointer")
	}
}

func TestCardConservationAcrossFullTurns(t *testing.T) {
	s := newPlayingState(t, "alice", "bob", "carol")
	rng := randutil.New(11)

	for turn := 0; turn < 30 && s.Phase == PhasePlaying; turn++ {
		pid := s.CurrentPlayerIndex
		if err := s.ApplyDiscard(pid, []int{0}); err != nil {
			t.Fatalf("turn %d discard: %v", turn, err)
		}
		fromDiscard := turn%3 == 0
		if err := s.ApplyDraw(pid, fromDiscard, rng); err != nil {
			// Discard source can legitimately dry up; fall back to deck.
			if err = s.ApplyDraw(pid, false, rng); err != nil {
				t.Fatalf("turn %d draw: %v", turn, err)
			}
		}
		if s.TotalCards() != 54 {
			t.Fatalf("turn %d: %d cards in play, want 54", turn, s.TotalCards())
		}
		s.AdvanceTurn()
	}
}
