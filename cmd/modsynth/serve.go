package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-modsynth/internal/audio"
	"github.com/cwbudde/algo-modsynth/internal/metrics"
	"github.com/cwbudde/algo-modsynth/internal/server"
	"github.com/cwbudde/algo-modsynth/synth/engine"
	"github.com/cwbudde/algo-modsynth/synth/patch"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		addr    string
		device  bool
		watch   bool
		pollFor time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve [patch.yaml]",
		Short: "Serve the engine over HTTP",
		Long: `Serve the engine over HTTP with a websocket telemetry stream and
Prometheus metrics at /metrics. Without --device the engine renders in real
time into a discarded buffer so telemetry stays live. With --watch the patch
file is reloaded whenever it changes on disk.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			col, err := metrics.New(reg)
			if err != nil {
				return err
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			if watch && path == "" {
				return errors.New("--watch needs a patch file")
			}

			e, log, err := g.newEngine(cmd, path, engine.WithMetrics(col))
			if err != nil {
				return err
			}

			srv := server.New(e,
				server.WithLogger(log),
				server.WithGatherer(reg),
				server.WithPollInterval(pollFor),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var player *audio.Player
			if device {
				player, err = audio.NewPlayer(e, int(e.Config().SampleRate), e.Config().BlockSize)
				if err != nil {
					return err
				}
				defer player.Close()
			}

			group, gctx := errgroup.WithContext(ctx)
			group.Go(func() error { return srv.Run(gctx, addr) })

			if watch {
				group.Go(func() error {
					return patch.Watch(gctx, path, patch.DefaultDebounce, func(f *patch.File, err error) {
						reload(srv, log, path, f, err)
					})
				})
			}

			if player != nil {
				player.Start()
			} else {
				group.Go(func() error {
					renderRealtime(gctx, e)
					return nil
				})
			}

			return group.Wait()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "listen address")
	cmd.Flags().BoolVar(&device, "device", false, "play on the default audio device")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the patch file when it changes")
	cmd.Flags().DurationVar(&pollFor, "poll", server.DefaultPollInterval, "engine poll interval")

	return cmd
}

// reload replaces the served graph with a freshly loaded patch. A patch that
// fails to load or build leaves the running graph alone.
func reload(srv *server.Server, log *slog.Logger, path string, f *patch.File, err error) {
	if err == nil {
		err = srv.Do(func(e *engine.Engine) error { return patch.Apply(e, f) })
	}

	if err != nil {
		log.Warn("patch reload failed", slog.String("path", path), slog.Any("err", err))
		return
	}

	log.Info("patch reloaded", slog.String("path", path), slog.Int("nodes", len(f.Nodes)))
}

// renderRealtime renders one block per block duration until ctx ends. It is
// the render thread when no audio device is used.
func renderRealtime(ctx context.Context, e *engine.Engine) {
	cfg := e.Config()
	out := [][]float64{make([]float64, cfg.BlockSize), make([]float64, cfg.BlockSize)}

	ticker := time.NewTicker(time.Duration(float64(cfg.BlockSize) / cfg.SampleRate * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Process(out)
		}
	}
}
