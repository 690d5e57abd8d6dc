package bridge

import (
	"math"
	"sync/atomic"
)

// Cell is a lock-free single-slot float64.
//
// Writers overwrite the previous value; readers observe either the old or
// the new value, never a mix of both. The zero value holds 0.
type Cell struct {
	bits atomic.Uint64
}

// Store publishes v.
func (c *Cell) Store(v float64) {
	c.bits.Store(math.Float64bits(v))
}

// Load returns the most recently published value.
func (c *Cell) Load() float64 {
	return math.Float64frombits(c.bits.Load())
}
