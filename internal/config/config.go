package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/minimagame/minima/internal/bot"
	"github.com/minimagame/minima/internal/game"
)

// Config represents the complete configuration
type Config struct {
	Relay RelaySettings `hcl:"relay,block"`
	Game  GameSettings  `hcl:"game,block"`
	Bot   BotSettings   `hcl:"bot,block"`
}

// RelaySettings contains relay server configuration
type RelaySettings struct {
	Addr     string `hcl:"addr,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings contains the table rules a host applies
type GameSettings struct {
	MaxPlayers    int `hcl:"max_players,optional"`
	HandSize      int `hcl:"hand_size,optional"`
	TurnAdvanceMs int `hcl:"turn_advance_ms,optional"`
}

// BotSettings contains bot policy tuning
type BotSettings struct {
	ShowThreshold        int `hcl:"show_threshold,optional"`
	TakeDiscardThreshold int `hcl:"take_discard_threshold,optional"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Relay: RelaySettings{
			Addr:     "localhost:8080",
			LogLevel: "info",
		},
		Game: GameSettings{
			MaxPlayers:    game.MaxPlayers,
			HandSize:      game.StartingHandSize,
			TurnAdvanceMs: 1000,
		},
		Bot: BotSettings{
			ShowThreshold:        bot.DefaultShowThreshold,
			TakeDiscardThreshold: bot.DefaultTakeDiscardThreshold,
		},
	}
}

// Load loads configuration from an HCL file, falling back to defaults
// when the file does not exist.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := Default()
	if config.Relay.Addr == "" {
		config.Relay.Addr = defaults.Relay.Addr
	}
	if config.Relay.LogLevel == "" {
		config.Relay.LogLevel = defaults.Relay.LogLevel
	}
	if config.Game.MaxPlayers == 0 {
		config.Game.MaxPlayers = defaults.Game.MaxPlayers
	}
	if config.Game.HandSize == 0 {
		config.Game.HandSize = defaults.Game.HandSize
	}
	if config.Game.TurnAdvanceMs == 0 {
		config.Game.TurnAdvanceMs = defaults.Game.TurnAdvanceMs
	}
	if config.Bot.ShowThreshold == 0 {
		config.Bot.ShowThreshold = defaults.Bot.ShowThreshold
	}
	if config.Bot.TakeDiscardThreshold == 0 {
		config.Bot.TakeDiscardThreshold = defaults.Bot.TakeDiscardThreshold
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Game.MaxPlayers < game.MinPlayers {
		return fmt.Errorf("max_players must be at least %d", game.MinPlayers)
	}
	if c.Game.HandSize < 1 {
		return fmt.Errorf("hand_size must be positive")
	}
	if c.Game.TurnAdvanceMs < 0 {
		return fmt.Errorf("turn_advance_ms must not be negative")
	}
	if c.Bot.ShowThreshold < 0 {
		return fmt.Errorf("show_threshold must not be negative")
	}
	return nil
}

// TurnAdvanceDelay returns the configured pause between a draw and the
// turn-advance broadcast.
func (c *Config) TurnAdvanceDelay() time.Duration {
	return time.Duration(c.Game.TurnAdvanceMs) * time.Millisecond
}

// BotPolicy returns a bot policy tuned from the configuration.
func (c *Config) BotPolicy() bot.Policy {
	return bot.Policy{
		ShowThreshold:        c.Bot.ShowThreshold,
		TakeDiscardThreshold: c.Bot.TakeDiscardThreshold,
	}
}
