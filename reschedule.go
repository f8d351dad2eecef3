package mazcore

import (
	"github.com/iansmith/mazcore/hal"
	"github.com/iansmith/mazcore/intr"
	"github.com/iansmith/mazcore/sched"
)

// Reschedule is the timer vector's trap handler, registered by Init.
// It acknowledges the interrupt, folds one tick into the scheduler's
// clocks, charges the currently running thread, and hands off to
// mi_switch if its slice just ran out or a remote CPU asked this one
// to preempt, before rearming the next one-shot. Per spec.md §4.9/
// §4.11 and the control-flow summary of SPEC_FULL.md §2 ("hardware
// timer -> local controller -> trap handler -> scheduler clock ->
// possibly a context switch").
func (k *Kernel) Reschedule(frame hal.TrapFrame) {
	cpuIdx := k.deps.CPU.CoreID()
	info := k.sched.CPU(cpuIdx)
	info.Frame = frame

	local := k.local[cpuIdx]
	local.SubmitEOI()

	k.sched.Hardclock(cpuIdx, 1)

	q := info.Queue
	cur := q.Current
	if cur != nil {
		k.sched.Clock(cpuIdx, cur, 1)
	}

	if cur != nil && (cur.HasFlag(sched.FlagSliceEnd) || q.OwePreempt()) {
		// The trap entry path is expected to have already disabled
		// interrupts for the duration of this handler, which is what
		// critnest counts; mi_switch asserts that invariant rather than
		// establishing it. mi_switch's own step 6 releases the queue
		// lock, so it must already be held on entry -- the counterpart
		// of the trap layer holding the scheduler lock for the duration
		// of the tick in a real kernel.
		cur.CritNest = 1
		q.Lock.Lock()
		k.sched.MISwitch(cpuIdx, sched.SwInvoluntary)
	}

	local.ArmOneshot(k.deps.TimerVector, k.deps.TimerPeriod)
}

// PinLookup resolves a global system interrupt number to its owning
// pin, delegating to the router Init populated from the parsed
// firmware table.
func PinLookup(gsi int) (*intr.Pin, bool) {
	return intr.PinLookup(gsi)
}
