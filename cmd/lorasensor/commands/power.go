package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
	"git.home.luguber.info/inful/lorasensor/internal/power/protocol"
)

// SleepCmd implements the 'sleep' command.
type SleepCmd struct {
	Seconds uint32 `help:"Seconds until the controller wakes the node" xor:"mode" required:""`
	Forever bool   `help:"Sleep with no wake time" xor:"mode" required:""`
}

func (s *SleepCmd) Run(g *Global, root *CLI) error {
	m, channel, err := openPowerManager(root.Config)
	if err != nil {
		return err
	}
	defer func() { _ = channel.Close() }()

	ctx := context.Background()
	if s.Forever {
		err = m.DeepSleepForever(ctx)
	} else {
		err = m.DeepSleep(ctx, time.Duration(s.Seconds)*time.Second)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.out(), "Sleep command sent")
	return nil
}

// StatusCmd implements the 'status' command. The controller defines no
// reply, so success only means the request frame was written.
type StatusCmd struct{}

func (StatusCmd) Run(g *Global, root *CLI) error {
	m, channel, err := openPowerManager(root.Config)
	if err != nil {
		return err
	}
	defer func() { _ = channel.Close() }()

	if err := m.Status(context.Background()); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.out(), "Status request sent")
	return nil
}

// EncodeCmd implements the 'encode' command.
type EncodeCmd struct {
	Seconds *uint32 `help:"Sleep seconds" xor:"cmd"`
	Forever bool    `help:"Encode the sleep-forever frame" xor:"cmd"`
	Status  bool    `help:"Encode a status request" xor:"cmd"`
}

func (e *EncodeCmd) Run(g *Global, _ *CLI) error {
	var cmd protocol.Command
	switch {
	case e.Status:
		cmd = protocol.Status()
	case e.Forever:
		cmd = protocol.Sleep(protocol.ForeverSeconds)
	case e.Seconds != nil:
		cmd = protocol.Sleep(*e.Seconds)
	default:
		return errors.ValidationError("one of --seconds, --forever or --status is required").Build()
	}
	frame, err := protocol.Encode(cmd)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.out(), hex.EncodeToString(frame))
	return nil
}
