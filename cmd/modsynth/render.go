package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-modsynth/internal/audio"
)

func newRenderCmd(g *globalFlags) *cobra.Command {
	var (
		out      string
		duration float64
		bits     int
	)

	cmd := &cobra.Command{
		Use:   "render patch.yaml",
		Short: "Render a patch into a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, log, err := g.newEngine(cmd, args[0])
			if err != nil {
				return err
			}

			if duration <= 0 {
				return fmt.Errorf("duration must be > 0: %v", duration)
			}

			cfg := e.Config()

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			frames := int(math.Round(duration * cfg.SampleRate))
			src := audio.NewMetered(e, cfg.SampleRate)

			err = audio.WriteWAV(f, src, audio.WAVOptions{
				SampleRate: int(cfg.SampleRate),
				BitDepth:   bits,
				BlockSize:  cfg.BlockSize,
				Frames:     frames,
				Poll:       func() { e.Poll() },
			})
			if err != nil {
				return err
			}

			log.Info("rendered",
				slog.String("out", out),
				slog.Int("frames", frames),
				slog.Float64("integrated_lufs", src.Integrated()),
				slog.Float64("peak", src.Peak()),
			)

			return f.Close()
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "out.wav", "output WAV file")
	cmd.Flags().Float64VarP(&duration, "duration", "d", 2, "length in seconds")
	cmd.Flags().IntVar(&bits, "bits", 16, "PCM bit depth: 16, 24 or 32")

	return cmd
}
