// Package display renders a replicated game snapshot as styled text.
// It is a pure view: nothing here feeds back into the state machine.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/minimagame/minima/internal/deck"
	"github.com/minimagame/minima/internal/game"
)

// Styles contains styling for game display
type Styles struct {
	Header    lipgloss.Style
	SubHeader lipgloss.Style
	Winner    lipgloss.Style
	CardRed   lipgloss.Style
	CardBlack lipgloss.Style
	Active    lipgloss.Style
	Muted     lipgloss.Style
}

// NewStyles creates a new set of display styles
func NewStyles() *Styles {
	return &Styles{
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 2).
			Bold(true),
		SubHeader: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true),
		Winner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		CardRed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		CardBlack: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true),
		Active: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#74B9FF")).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
	}
}

// Renderer turns state snapshots into terminal output.
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a renderer with the default styles.
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

// Render formats the whole snapshot from the given viewer's seat. Only
// the viewer's own hand is shown face up.
func (r *Renderer) Render(s *game.State, viewerID int) string {
	if s == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(r.styles.Header.Render(fmt.Sprintf("MINIMA · Room %s", s.RoomID)))
	b.WriteString("\n\n")

	switch s.Phase {
	case game.PhaseLobby:
		r.renderLobby(&b, s)
	case game.PhasePlaying, game.PhaseRoundOver:
		r.renderTable(&b, s, viewerID)
	}

	if len(s.RoundLog) > 0 {
		b.WriteString("\n")
		b.WriteString(r.styles.SubHeader.Render("Log"))
		b.WriteString("\n")
		for _, line := range s.RoundLog {
			b.WriteString("  " + line + "\n")
		}
	}

	if s.Phase == game.PhaseRoundOver && s.WinnerID != nil {
		if winner := s.PlayerByID(*s.WinnerID); winner != nil {
			b.WriteString("\n")
			b.WriteString(r.styles.Winner.Render(fmt.Sprintf("%s wins the round!", winner.Name)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (r *Renderer) renderLobby(b *strings.Builder, s *game.State) {
	b.WriteString(r.styles.SubHeader.Render(fmt.Sprintf("Lobby · %d/%d players", len(s.Players), game.MaxPlayers)))
	b.WriteString("\n")
	for _, p := range s.Players {
		tag := ""
		if p.IsBot {
			tag = " " + r.styles.Muted.Render("(bot)")
		}
		if p.ID == s.HostID {
			tag += " " + r.styles.Muted.Render("(host)")
		}
		b.WriteString(fmt.Sprintf("  %d. %s%s\n", p.ID, p.Name, tag))
	}
}

func (r *Renderer) renderTable(b *strings.Builder, s *game.State, viewerID int) {
	b.WriteString(fmt.Sprintf("Deck: %s cards", r.styles.Active.Render(fmt.Sprintf("%d", len(s.Deck)))))
	if top := topDiscard(s); top != nil {
		b.WriteString(fmt.Sprintf("  Discard: %s", r.formatCard(*top)))
	}
	if takeable := takeableDiscard(s); takeable != nil && s.CardsPlayedThisTurn > 0 {
		b.WriteString(fmt.Sprintf("  Takeable: %s", r.formatCard(*takeable)))
	}
	b.WriteString("\n\n")

	for _, p := range s.Players {
		r.renderPlayer(b, s, p, viewerID)
	}
}

func (r *Renderer) renderPlayer(b *strings.Builder, s *game.State, p game.Player, viewerID int) {
	name := p.Name
	if p.ID == viewerID {
		name = r.styles.SubHeader.Render(name + " (You)")
	}
	marker := "  "
	if s.Phase == game.PhasePlaying && p.ID == s.CurrentPlayerIndex {
		marker = r.styles.Active.Render("> ")
	}

	hand := r.formatHand(p.Hand, p.ID == viewerID || s.Phase == game.PhaseRoundOver)
	line := fmt.Sprintf("%s%s %s", marker, name, hand)
	if p.LastAction != "" {
		line += " " + r.styles.Muted.Render("["+p.LastAction+"]")
	}
	b.WriteString(line + "\n")
}

// formatHand shows cards face up for the viewer (and everyone once the
// round is over), face down otherwise.
func (r *Renderer) formatHand(cards []deck.Card, faceUp bool) string {
	if !faceUp {
		return r.styles.Muted.Render(fmt.Sprintf("[%d cards]", len(cards)))
	}

	parts := make([]string, 0, len(cards))
	for _, c := range cards {
		parts = append(parts, r.formatCard(c))
	}
	value := r.styles.Muted.Render(fmt.Sprintf("(%d)", deck.HandValue(cards)))
	return "[" + strings.Join(parts, " ") + "] " + value
}

func (r *Renderer) formatCard(c deck.Card) string {
	if c.IsRed() {
		return r.styles.CardRed.Render(c.String())
	}
	return r.styles.CardBlack.Render(c.String())
}

func topDiscard(s *game.State) *deck.Card {
	if len(s.DiscardPile) == 0 {
		return nil
	}
	return &s.DiscardPile[len(s.DiscardPile)-1]
}

func takeableDiscard(s *game.State) *deck.Card {
	target := len(s.DiscardPile) - 1 - s.CardsPlayedThisTurn
	if target < 0 {
		return nil
	}
	return &s.DiscardPile[target]
}
