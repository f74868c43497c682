package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/lorasensor/cmd/lorasensor/commands"
	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
	"git.home.luguber.info/inful/lorasensor/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("lorasensor"),
		kong.Description("Battery-powered LoRa sensor node runtime"),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)
	if err := parser.Run(&commands.Global{}, &cli); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
	}
}
