package commands

import (
	"fmt"

	"git.home.luguber.info/inful/lorasensor/internal/version"
)

// BuildCmd implements the 'version' command.
type BuildCmd struct{}

func (BuildCmd) Run(g *Global, _ *CLI) error {
	_, _ = fmt.Fprintf(g.out(), "lorasensor %s (encoded %d)\nbuilt %s from %s\n",
		version.Version, version.Encoded(), version.BuildTime, version.GitCommit)
	return nil
}
