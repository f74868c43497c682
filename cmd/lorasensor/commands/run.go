package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/lorasensor/internal/app"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Watch bool `help:"Restart the node when the configuration file changes" default:"true" negatable:""`
}

func (r *RunCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s := app.NewSupervisor(root.Config, app.WithWatch(r.Watch), app.WithVerbose(root.Verbose))
	if err := s.Run(ctx); err != nil {
		return err
	}
	slog.Info("Node stopped")
	return nil
}
