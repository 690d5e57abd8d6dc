package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-modsynth/internal/audio"
	"github.com/cwbudde/algo-modsynth/synth/engine"
)

func newPlayCmd(g *globalFlags) *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "play patch.yaml",
		Short: "Play a patch on the default audio device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, log, err := g.newEngine(cmd, args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if duration > 0 {
				var cancel context.CancelFunc

				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			p, err := audio.NewPlayer(e, int(e.Config().SampleRate), e.Config().BlockSize)
			if err != nil {
				return err
			}
			defer p.Close()

			p.Start()
			log.Info("playing", "patch", args[0])

			pollUntilDone(ctx, e)

			return nil
		},
	}

	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "stop after this long (0 plays until interrupted)")

	return cmd
}

// pollUntilDone runs the engine's control loop until ctx ends.
func pollUntilDone(ctx context.Context, e *engine.Engine) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Poll()
		}
	}
}
