package bot

import (
	"github.com/charmbracelet/log"

	"github.com/minimagame/minima/internal/channel"
	"github.com/minimagame/minima/internal/game"
	"github.com/minimagame/minima/internal/room"
)

// Seat occupies one player slot with a Policy behind it. It joins over
// the same channel and emits the same intents a remote human would, so
// the host validates it like any other player.
type Seat struct {
	client *room.Client
	driver *Driver
}

// NewSeat wires a policy to a fresh client on the given channel.
func NewSeat(ch channel.Channel, policy Policy, logger *log.Logger) *Seat {
	s := &Seat{}
	s.client = room.NewClient(ch, logger, func(state *game.State) {
		s.driver.Push(state)
	})
	s.driver = NewDriver(policy, s.client, s.client.PlayerID, logger)
	return s
}

// Join requests a seat in the room and starts reacting to updates.
func (s *Seat) Join(roomID, name string) error {
	if err := s.client.JoinAsBot(roomID, name); err != nil {
		return err
	}
	s.driver.Start()
	return nil
}

// Leave stops the decision loop and disconnects.
func (s *Seat) Leave() {
	s.driver.Stop()
	s.client.Leave()
}

// Joined is closed once the host has acknowledged the seat.
func (s *Seat) Joined() <-chan struct{} {
	return s.client.Joined()
}

// PlayerID returns the assigned player id, or -1 before the ack.
func (s *Seat) PlayerID() int {
	return s.client.PlayerID()
}
