// Package sched implements the per-CPU, priority-decayed, multi-level
// run-queue thread scheduler described by spec.md §4: priority
// run-queues, per-CPU thread queues, the scheduler core (CPU picking,
// interactivity scoring, context switch, clock tick, priority lending),
// and the critical-section/spinlock discipline that protects it all.
package sched

// Priority constants, exact values preserved from spec.md §3 so tuning
// matches the ULE lineage this module is styled on.
const (
	PriMinIthd = 0
	PriMaxIthd = 15

	PriMinRealtime = 16
	PriMaxRealtime = 47

	PriMinKernel = 48
	PriMaxKernel = PriMinTimeshare - 1

	PriMinTimeshare = 88
	PriMinIdle      = 224
	PriMaxTimeshare = PriMinIdle - 1 // 223
	PriMaxIdle      = 255

	// SchedPriNresv is PRIO_MAX-PRIO_MIN, the nice range reserved out of
	// the timeshare band per spec.md §3.
	SchedPriNresv = 40
	schedPriNhalf = SchedPriNresv / 2

	// The timeshare band splits evenly between an interactive half and
	// a batch half once the nice range is set aside, and the nice range
	// stays in the batch half: interactive is 88..135, batch is 136..223.
	PriMinInteract = PriMinTimeshare
	PriMaxInteract = PriMinInteract + (PriMaxTimeshare-PriMinTimeshare+1-SchedPriNresv)/2 - 1

	PriMinBatch = PriMaxInteract + 1
	PriMaxBatch = PriMaxTimeshare

	SchedPriMin   = PriMinBatch + schedPriNhalf
	SchedPriMax   = PriMaxBatch - schedPriNhalf
	SchedPriRange = SchedPriMax - SchedPriMin + 1

	// SchedInteractMax is the maximum interactivity score, per spec.md §3.
	SchedInteractMax = 100
	// SchedInteractThresh is the interactivity threshold separating the
	// interactive and batch bands.
	SchedInteractThresh = 30

	// RQPrioCount is the number of FIFO buckets in a priority run-queue.
	RQPrioCount = 64

	priBatchRange = PriMaxBatch - PriMinBatch + 1
)

// Hz is the scheduler's simulated clock frequency in ticks per second.
// Not specified numerically by spec.md; defaults to a round, testable
// value consistent with the tick-based formulas of spec.md §4.7/§4.11,
// but is a var rather than a const so mazcore.Init can override it from
// a decoded hal.BootConfig before any scheduler runs.
var Hz uint64 = 100

// Affinity is the number of rescheduling ticks used by the
// last-CPU-affinity check in PickCPU (spec.md §4.8): a thread is
// considered to still have affinity for a CPU if it ran there within
// 2*Affinity ticks. Also a var for the same boot-time-override reason
// as Hz.
var Affinity uint64 = 1

// MaxCacheLevels bounds the cache-topology affinity query to two
// levels, per SPEC_FULL.md §3 (spec.md's Non-goals exclude NUMA
// discovery beyond two cache levels, not cache-aware affinity itself).
const MaxCacheLevels = 2

// SchedSlice and SchedSliceMin are the full and minimum tick-slice
// durations used by ThreadQueue.Slice (spec.md §4.5).
const (
	SchedSlice    = 100
	SchedSliceMin = 10
)

// TickIncr is the runtime charged per tick to a running timeshare
// thread, per spec.md §4.11.
const TickIncr = 10

// PctCPUTargetTicks returns the sliding window width used by
// UpdatePctCPU (spec.md §4.7); it tracks Hz rather than being fixed at
// package-init time, since Hz can still change until mazcore.Init runs.
func PctCPUTargetTicks() uint64 { return Hz }

// Class identifies a thread's scheduling class.
type Class int

const (
	ClassInterrupt Class = iota
	ClassRealtime
	ClassTimeshare
	ClassIdle
)

// ClassOf returns the scheduling class implied by a raw priority value.
func ClassOf(pri uint8) Class {
	switch {
	case pri <= PriMaxIthd:
		return ClassInterrupt
	case int(pri) < PriMinTimeshare:
		return ClassRealtime
	case int(pri) <= PriMaxTimeshare:
		return ClassTimeshare
	default:
		return ClassIdle
	}
}
