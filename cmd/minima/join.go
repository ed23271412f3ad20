package main

import (
	"fmt"
	"time"

	"github.com/minimagame/minima/internal/bot"
	"github.com/minimagame/minima/internal/channel"
	"github.com/minimagame/minima/internal/config"
	"github.com/minimagame/minima/internal/display"
	"github.com/minimagame/minima/internal/game"
	"github.com/minimagame/minima/internal/room"
)

// JoinCmd takes a seat in an existing room. The seat plays itself with
// the bot policy; the terminal shows the replicated view.
type JoinCmd struct {
	Name   string `kong:"required,help='Display name'"`
	Room   string `kong:"required,help='Room code to join'"`
	Relay  string `kong:"default='ws://localhost:8080',help='Relay URL'"`
	Config string `kong:"default='minima.hcl',help='Path to HCL config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *JoinCmd) Run() error {
	logger := setupLogger("", c.Debug)

	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	renderer := display.NewRenderer()

	var client *room.Client
	var driver *bot.Driver
	client = room.NewClient(channel.NewWSEndpoint(c.Relay, logger), logger, func(s *game.State) {
		fmt.Print(renderer.Render(s, client.PlayerID()))
		driver.Push(s)
	})
	driver = bot.NewDriver(cfg.BotPolicy(), client, client.PlayerID, logger)

	if err := client.Join(c.Room, c.Name); err != nil {
		return err
	}
	defer client.Leave()

	select {
	case <-client.Joined():
	case <-time.After(10 * time.Second):
		return fmt.Errorf("no seat in room %s: the room may be full or mid-game", c.Room)
	}
	logger.Info("Seated", "room", c.Room, "player", client.PlayerID())

	driver.Start()
	defer driver.Stop()

	ctx := signalContext(logger)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(100 * time.Millisecond):
		}
		if s := client.State(); s != nil && s.Phase == game.PhaseRoundOver {
			return nil
		}
	}
}
