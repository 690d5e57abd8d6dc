// Package bridge carries data between the render thread and the control
// thread without locks.
//
// Two directions are covered. Telemetry flows from the render thread to the
// control thread through [Cell] values (single-slot, last write wins, never
// torn). Work that must not run on the render thread flows the other way
// through a bounded single-producer/single-consumer [Ring]. Render faults use
// a [FaultLog], which is a Ring with drop accounting.
package bridge
