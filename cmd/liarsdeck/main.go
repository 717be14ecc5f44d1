package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  ServerCmd        `cmd:"" help:"Run a stateless game worker"`
	Relay   RelayCmd         `cmd:"" help:"Run the round-robin connection relay"`
	Spawn   SpawnCmd         `cmd:"" help:"Spawn a worker pool with a relay in front"`
	Client  ClientCmd        `cmd:"" help:"Query and pretty-print game state"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("liarsdeck"),
		kong.Description("Liar's Deck bluffing card game server"),
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
