package engine

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-modsynth/synth/bridge"
)

// PollStats summarizes one Poll.
type PollStats struct {
	Applied       int
	Failed        int
	Faults        int
	FaultsDropped uint64
}

// Poll runs the control-thread tick: it drains render faults into the log
// and metrics, then applies queued requests. Call it once per UI frame,
// never from the render thread.
func (e *Engine) Poll() PollStats {
	start := e.now()

	var stats PollStats

	if e.stale {
		err := e.commit()
		if err != nil {
			e.logger.Warn("republish failed", slog.Any("error", err))
		}
	}

	stats.Faults, stats.FaultsDropped = e.faults.Drain(e.reportFault)
	if stats.FaultsDropped > 0 {
		e.logger.Warn("render faults dropped", slog.Uint64("count", stats.FaultsDropped))
		e.metrics.FaultsDropped(stats.FaultsDropped)
	}

	for {
		r, ok := e.requests.Pop()
		if !ok {
			break
		}

		err := e.apply(r)
		e.metrics.Request(r.Label(), err == nil)

		if err != nil {
			stats.Failed++

			e.logger.Error("request failed", slog.String("label", r.Label()), slog.Any("error", err))

			continue
		}

		stats.Applied++
	}

	e.metrics.Graph(e.store.Len(), len(e.store.Connections()), e.History().UndoLen())
	e.metrics.Poll(e.now().Sub(start))

	return stats
}

func (e *Engine) reportFault(f bridge.Fault) {
	e.metrics.Fault(f.Kind)

	attrs := []any{
		slog.String("fault", f.Kind.String()),
		slog.Uint64("block", f.Block),
	}

	switch f.Kind {
	case bridge.FaultDeadline:
		attrs = append(attrs, slog.Duration("elapsed", f.Elapsed), slog.Duration("budget", f.Budget))
	case bridge.FaultNode:
		attrs = append(attrs, slog.String("node", f.Node), slog.Any("detail", f.Detail))
	}

	e.logger.Warn("render fault", attrs...)
}

// apply runs r against the live graph, then commits once and captures one
// snapshot. If any step fails the graph is restored to its state before r.
func (e *Engine) apply(r Request) error {
	rollback, err := e.history.Take("rollback")
	if err != nil {
		return fmt.Errorf("engine: request %q: %w", r.Label(), err)
	}

	err = r.Apply(&Tx{e: e})
	if err == nil {
		err = e.commit()
	}

	if err != nil {
		rerr := e.history.Restore(rollback)
		if rerr != nil {
			e.stale = true
			e.logger.Error("request rollback failed", slog.String("label", r.Label()), slog.Any("error", rerr))
		}

		return fmt.Errorf("engine: request %q: %w", r.Label(), err)
	}

	_, err = e.Capture(r.Label())
	if err != nil {
		return fmt.Errorf("engine: request %q: %w", r.Label(), err)
	}

	e.logger.Debug("request applied", slog.String("label", r.Label()))

	return nil
}
