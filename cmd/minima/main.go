package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Relay   RelayCmd         `cmd:"" help:"Run a message relay for rooms"`
	Host    HostCmd          `cmd:"" help:"Open a room and host a game"`
	Join    JoinCmd          `cmd:"" help:"Join an existing room"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("minima"),
		kong.Description("Lowest hand wins. A replicated multiplayer card game."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
