// Package metrics exports engine events as Prometheus metrics.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cwbudde/algo-modsynth/synth/bridge"
)

// Namespace prefixes every metric name.
const Namespace = "modsynth"

// Collector implements engine.Metrics on top of Prometheus collectors.
type Collector struct {
	faults        *prometheus.CounterVec
	faultsDropped prometheus.Counter
	requests      *prometheus.CounterVec
	rejected      prometheus.Counter
	snapshots     *prometheus.CounterVec
	nodes         prometheus.Gauge
	connections   prometheus.Gauge
	undoDepth     prometheus.Gauge
	poll          prometheus.Histogram
}

// New creates the collectors and registers them on reg. If reg is nil,
// prometheus.DefaultRegisterer is used.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "render_faults_total",
			Help:      "Render faults by kind.",
		}, []string{"kind"}),
		faultsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "render_faults_dropped_total",
			Help:      "Render faults dropped because the fault log was full.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "Deferred graph edits applied by result.",
		}, []string{"result"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_rejected_total",
			Help:      "Deferred graph edits rejected because the queue was full.",
		}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "snapshots_total",
			Help:      "Snapshot operations by kind.",
		}, []string{"op"}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "graph_nodes",
			Help:      "Nodes in the live graph.",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "graph_connections",
			Help:      "Connections in the live graph.",
		}),
		undoDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "history_undo_depth",
			Help:      "Snapshots on the undo stack.",
		}),
		poll: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "poll_duration_seconds",
			Help:      "Time spent in one control-thread poll.",
			Buckets:   []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
	}

	for _, col := range []prometheus.Collector{
		c.faults, c.faultsDropped, c.requests, c.rejected, c.snapshots,
		c.nodes, c.connections, c.undoDepth, c.poll,
	} {
		err := reg.Register(col)
		if err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}

	return c, nil
}

// Fault counts one render fault.
func (c *Collector) Fault(kind bridge.FaultKind) {
	c.faults.WithLabelValues(kind.String()).Inc()
}

// FaultsDropped counts faults lost to a full fault log.
func (c *Collector) FaultsDropped(n uint64) {
	c.faultsDropped.Add(float64(n))
}

// Request counts one applied request. Labels are free text, so only the
// result is recorded.
func (c *Collector) Request(_ string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}

	c.requests.WithLabelValues(result).Inc()
}

// RequestRejected counts a request refused by a full queue.
func (c *Collector) RequestRejected() { c.rejected.Inc() }

// Snapshot counts one snapshot operation.
func (c *Collector) Snapshot(op string) {
	c.snapshots.WithLabelValues(op).Inc()
}

// Graph records the size of the live graph and history.
func (c *Collector) Graph(nodes, connections, undoDepth int) {
	c.nodes.Set(float64(nodes))
	c.connections.Set(float64(connections))
	c.undoDepth.Set(float64(undoDepth))
}

// Poll observes the duration of one poll.
func (c *Collector) Poll(d time.Duration) {
	c.poll.Observe(d.Seconds())
}
