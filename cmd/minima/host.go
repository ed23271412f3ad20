package main

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/minimagame/minima/internal/bot"
	"github.com/minimagame/minima/internal/channel"
	"github.com/minimagame/minima/internal/config"
	"github.com/minimagame/minima/internal/display"
	"github.com/minimagame/minima/internal/game"
	"github.com/minimagame/minima/internal/protocol"
	"github.com/minimagame/minima/internal/randutil"
	"github.com/minimagame/minima/internal/room"
)

// HostCmd opens a room, seats the host as player 0 and runs the game.
type HostCmd struct {
	Name   string `kong:"required,help='Display name for the host seat'"`
	Bots   int    `kong:"default='0',help='Number of bot seats to add'"`
	Room   string `kong:"help='Room code (default: generated)'"`
	Relay  string `kong:"default='ws://localhost:8080',help='Relay URL'"`
	Local  bool   `kong:"help='Run host and bots in-process without a relay'"`
	Seed   *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	Config string `kong:"default='minima.hcl',help='Path to HCL config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *HostCmd) Run() error {
	logger := setupLogger("", c.Debug)

	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if 1+c.Bots > cfg.Game.MaxPlayers {
		return fmt.Errorf("host plus %d bots exceeds the %d-seat table", c.Bots, cfg.Game.MaxPlayers)
	}

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("Using deterministic seed", "seed", seed)
	} else {
		seed = time.Now().UnixNano()
	}
	rng := randutil.New(seed)

	roomID := c.Room
	if roomID == "" {
		roomID = randutil.RoomCode(rng)
	}

	// Every participant gets its own endpoint; with --local they all
	// share one in-process bus instead of dialing the relay.
	var endpoint func() channel.Channel
	if c.Local {
		bus := channel.NewBus()
		endpoint = func() channel.Channel { return bus.Endpoint(logger) }
	} else {
		endpoint = func() channel.Channel { return channel.NewWSEndpoint(c.Relay, logger) }
	}

	renderer := display.NewRenderer()
	actor := &hostActor{}
	driver := bot.NewDriver(cfg.BotPolicy(), actor, func() int { return 0 }, logger)

	host := room.NewHost(endpoint(), quartz.NewReal(), rng, logger, func(s *game.State) {
		fmt.Print(renderer.Render(s, 0))
		driver.Push(s)
	})
	actor.host = host
	host.SetTurnAdvanceDelay(cfg.TurnAdvanceDelay())
	host.SetTableLimits(cfg.Game.MaxPlayers, cfg.Game.HandSize)

	if err := host.Open(roomID, c.Name); err != nil {
		return err
	}
	defer host.Close()

	logger.Info("Room open", "room", roomID, "relay", c.Relay, "local", c.Local, "bots", c.Bots)

	ctx := signalContext(logger)

	seats := make([]*bot.Seat, c.Bots)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.Bots; i++ {
		i := i
		g.Go(func() error {
			seat := bot.NewSeat(endpoint(), cfg.BotPolicy(), logger)
			if err := seat.Join(roomID, fmt.Sprintf("Bot-%d", i+1)); err != nil {
				return err
			}
			select {
			case <-seat.Joined():
			case <-gctx.Done():
				return gctx.Err()
			case <-time.After(10 * time.Second):
				return fmt.Errorf("bot %d never got a seat", i+1)
			}
			seats[i] = seat
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	defer func() {
		for _, seat := range seats {
			if seat != nil {
				seat.Leave()
			}
		}
	}()

	// Deal once the table fills up, then drive the host's own seat.
	wantPlayers := 1 + c.Bots
	if wantPlayers < game.MinPlayers {
		wantPlayers = game.MinPlayers
	}
	if err := waitPlayers(ctx, host, wantPlayers); err != nil {
		return err
	}
	if err := host.StartGame(); err != nil {
		return err
	}
	driver.Start()
	defer driver.Stop()

	// Run until the round resolves or we are interrupted.
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(100 * time.Millisecond):
		}
		if s := host.State(); s.Phase == game.PhaseRoundOver {
			if s.WinnerID != nil {
				if winner := s.PlayerByID(*s.WinnerID); winner != nil {
					logger.Info("Round over", "winner", winner.Name)
				}
			}
			return nil
		}
	}
}

func waitPlayers(ctx context.Context, host *room.Host, want int) error {
	for {
		if len(host.State().Players) >= want {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// hostActor lets the policy driver play the host's own seat through
// the same intent vocabulary remote clients use.
type hostActor struct {
	host *room.Host
}

func (a *hostActor) SubmitDiscard(indices []int) {
	a.submit(protocol.ActionDiscard, protocol.DiscardData{Indices: indices})
}

func (a *hostActor) SubmitDraw(fromDiscard bool) {
	a.submit(protocol.ActionDraw, protocol.DrawData{FromDiscard: fromDiscard})
}

func (a *hostActor) SubmitShow() {
	a.submit(protocol.ActionShow, nil)
}

func (a *hostActor) submit(actionType protocol.ActionType, data interface{}) {
	action, err := protocol.NewPlayerAction(actionType, 0, data)
	if err != nil {
		return
	}
	a.host.Submit(*action)
}
