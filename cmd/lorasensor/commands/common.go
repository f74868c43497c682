package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/lorasensor/internal/app"
	"git.home.luguber.info/inful/lorasensor/internal/config"
	"git.home.luguber.info/inful/lorasensor/internal/power"
)

// Global is shared state passed to subcommands.
type Global struct {
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"lorasensor.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run    RunCmd    `cmd:"" default:"1" help:"Run the sensor node"`
	Init   InitCmd   `cmd:"" help:"Write an example configuration file"`
	Sleep  SleepCmd  `cmd:"" help:"Send one sleep command to the power controller"`
	Status StatusCmd `cmd:"" help:"Send a status request to the power controller"`
	Encode EncodeCmd `cmd:"" help:"Print a power controller command frame as hex"`
	Build  BuildCmd  `cmd:"" name:"version" help:"Print version and build information"`
}

// AfterApply runs after flag parsing; set up console logging once. The run
// command replaces it with the configured handler.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// openPowerManager loads the node file and opens its command channel for a
// one-shot command. Hold is disabled: the CLI returns once frames are written.
func openPowerManager(configPath string) (*power.Manager, io.Closer, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	return app.OpenPowerManager(cfg, power.WithHold(false))
}
