package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-modsynth/synth/engine"
	"github.com/cwbudde/algo-modsynth/synth/nodes"
	"github.com/cwbudde/algo-modsynth/synth/patch"
)

type globalFlags struct {
	config     string
	sampleRate float64
	blockSize  int
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "modsynth",
		Short:         "Run modular synth patches",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.config, "config", "c", "", "YAML engine config file")
	pf.Float64Var(&g.sampleRate, "sample-rate", 0, "sample rate in Hz (overrides config)")
	pf.IntVar(&g.blockSize, "block-size", 0, "block size in frames (overrides config)")
	pf.StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		newRenderCmd(g),
		newPlayCmd(g),
		newServeCmd(g),
		newKindsCmd(),
	)

	return root
}

// engineConfig loads the config file, if any, and applies flag overrides.
func (g *globalFlags) engineConfig(cmd *cobra.Command) (engine.Config, error) {
	cfg := engine.DefaultConfig()

	if g.config != "" {
		var err error

		cfg, err = engine.LoadConfig(g.config)
		if err != nil {
			return engine.Config{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("sample-rate") {
		cfg.SampleRate = g.sampleRate
	}

	if flags.Changed("block-size") {
		cfg.BlockSize = g.blockSize
	}

	return cfg, cfg.Validate()
}

func (g *globalFlags) logger(cmd *cobra.Command) (*slog.Logger, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(g.logLevel))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})), nil
}

// newEngine builds an engine from the flags and loads the patch at path,
// if given.
func (g *globalFlags) newEngine(cmd *cobra.Command, path string, opts ...engine.Option) (*engine.Engine, *slog.Logger, error) {
	cfg, err := g.engineConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	log, err := g.logger(cmd)
	if err != nil {
		return nil, nil, err
	}

	e, err := engine.New(cfg, nodes.DefaultRegistry(), append([]engine.Option{engine.WithLogger(log)}, opts...)...)
	if err != nil {
		return nil, nil, err
	}

	if path == "" {
		return e, log, nil
	}

	f, err := patch.Load(path)
	if err != nil {
		return nil, nil, err
	}

	err = patch.Apply(e, f)
	if err != nil {
		return nil, nil, err
	}

	log.Info("patch loaded", slog.String("path", path), slog.Int("nodes", e.Store().Len()))

	return e, log, nil
}
