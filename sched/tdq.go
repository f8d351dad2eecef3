package sched

import "sync/atomic"

// SrqFlag modifies how AddRunq places a thread, per spec.md §4.5/§4.10.
type SrqFlag uint8

const (
	// SrqPreempted marks the insertion as the result of a preemption:
	// the thread is placed at the head of its bucket rather than the tail.
	SrqPreempted SrqFlag = 1 << iota
	// SrqBorrowing marks a thread currently borrowing a lent priority;
	// like SrqPreempted it bypasses the timeshare rotation formula.
	SrqBorrowing
)

// ThreadQueue is the per-CPU aggregate of three priority run-queues
// (realtime, timeshare, idle) plus the bookkeeping spec.md §3/§4.5
// describes: a rotating insertion index, a drain index, load counters,
// a cached lowpri, and an owe_preempt flag.
type ThreadQueue struct {
	Lock SpinLock

	realtime  RunQueue
	timeshare RunQueue
	idle      RunQueue

	idx  int
	ridx int

	load    int
	sysload int

	lowpri atomic.Uint32

	switchcnt    int
	oldSwitchcnt int

	owePreempt atomic.Bool

	transferable int

	Current *Thread

	// CPUIndex identifies which CPU this queue belongs to, used by
	// PickCPU and the migration lock dance.
	CPUIndex int
}

// NewThreadQueue returns an empty, idle-lowpri thread queue for the given CPU.
func NewThreadQueue(cpuIndex int) *ThreadQueue {
	q := &ThreadQueue{CPUIndex: cpuIndex}
	q.lowpri.Store(PriMaxIdle)
	return q
}

// Lowpri returns the queue's cached minimum priority, read with
// acquire ordering so a remote CPU observes a consistent value
// (spec.md §5).
func (q *ThreadQueue) Lowpri() uint8 {
	return uint8(q.lowpri.Load())
}

// OwePreempt reports whether this queue has a pending preemption request.
func (q *ThreadQueue) OwePreempt() bool {
	return q.owePreempt.Load()
}

// ClearOwePreempt clears the pending preemption request, as sched_switch
// does on every switch (spec.md §4.9 step 3).
func (q *ThreadQueue) ClearOwePreempt() {
	q.owePreempt.Store(false)
}

// Load returns the number of runnable+running threads on this queue.
func (q *ThreadQueue) Load() int { return q.load }

// Sysload returns Load excluding no-load threads.
func (q *ThreadQueue) Sysload() int { return q.sysload }

// Transferable returns the count of threads eligible for cross-CPU pull.
func (q *ThreadQueue) Transferable() int { return q.transferable }

// AddLoad accounts for a thread becoming runnable on this queue
// (spec.md §4.5).
func (q *ThreadQueue) AddLoad(t *Thread) {
	q.load++
	if !t.HasFlag(FlagNoLoad) {
		q.sysload++
	}
	if t.HasFlag(FlagTransferable) {
		q.transferable++
	}
}

// RemLoad reverses AddLoad.
func (q *ThreadQueue) RemLoad(t *Thread) {
	q.load--
	if !t.HasFlag(FlagNoLoad) {
		q.sysload--
	}
	if t.HasFlag(FlagTransferable) {
		q.transferable--
	}
}

// AddRunq places thread onto the appropriate run-queue according to
// its priority, per spec.md §4.5.
func (q *ThreadQueue) AddRunq(t *Thread, flags SrqFlag) {
	preempted := flags&SrqPreempted != 0

	switch {
	case int(t.Pri) < PriMinBatch:
		q.realtime.Add(t, preempted)
		t.rqKind = rqKindRealtime

	case int(t.Pri) <= PriMaxBatch:
		t.rqKind = rqKindTimeshare
		if flags&(SrqPreempted|SrqBorrowing) != 0 {
			q.timeshare.Add(t, preempted)
			return
		}
		bucket := (RQPrioCount*(int(t.Pri)-PriMinBatch)/priBatchRange + q.idx) % RQPrioCount
		if q.ridx != q.idx && bucket == q.ridx {
			bucket = (bucket - 1 + RQPrioCount) % RQPrioCount
		}
		q.timeshare.AddAt(t, bucket, false)

	default:
		// Idle-band placement is reimplemented cleanly per the redesign
		// note in spec.md §9: insert directly at ridx via AddAt rather
		// than computing and discarding a priority-derived bucket.
		q.idle.AddAt(t, q.ridx, preempted)
		t.rqKind = rqKindIdle
	}
}

// RemRunq removes thread from whichever of the three run-queues holds
// it, the inverse of AddRunq (spec.md §4.5).
func (q *ThreadQueue) RemRunq(t *Thread) {
	switch t.rqKind {
	case rqKindRealtime:
		q.realtime.Remove(t, nil)
	case rqKindTimeshare:
		if q.idx != q.ridx {
			q.timeshare.Remove(t, &q.ridx)
		} else {
			q.timeshare.Remove(t, nil)
		}
	case rqKindIdle:
		q.idle.Remove(t, nil)
	default:
		panic("sched: RemRunq called on a thread not tracked by any run-queue")
	}
	t.rqKind = rqKindNone
}

// Choose tries the realtime queue, then the timeshare queue starting
// from the drain index, then the idle queue (spec.md §4.5).
func (q *ThreadQueue) Choose() *Thread {
	if t := q.realtime.Choose(); t != nil {
		return t
	}
	if t := q.timeshare.ChooseFrom(q.ridx); t != nil {
		return t
	}
	return q.idle.Choose()
}

// Slice returns this CPU's current tick-slice length, scaled down as
// system load rises (spec.md §4.5).
func (q *ThreadQueue) Slice() int {
	n := q.sysload - 1
	switch {
	case n <= 1:
		return SchedSlice
	case n >= 6:
		return SchedSliceMin
	default:
		return SchedSlice / n
	}
}

// SetLowpri recomputes the cached lowpri as the minimum of the
// current thread's priority (or currentOverride, if non-nil) and the
// priority of the next runnable thread across all three run-queues
// (spec.md §4.5).
func (q *ThreadQueue) SetLowpri(currentOverride *Thread) {
	lp := uint8(PriMaxIdle)
	cur := currentOverride
	if cur == nil {
		cur = q.Current
	}
	if cur != nil {
		lp = cur.Pri
	}
	if next := q.Choose(); next != nil && next.Pri < lp {
		lp = next.Pri
	}
	q.lowpri.Store(uint32(lp))
}

// Notify raises owe_preempt when the queued thread at incomingLowpri
// warrants preempting this queue's cached lowpri, and no preemption is
// already pending (spec.md §4.5). Callers invoke it before SetLowpri
// folds the incoming thread into lowpri. Go's atomic package
// gives sequentially consistent ordering on its own, which subsumes
// the release fence spec.md §5 calls for ahead of the flag store.
func (q *ThreadQueue) Notify(incomingLowpri uint8) {
	if q.owePreempt.Load() {
		return
	}
	if ShouldPreempt(incomingLowpri, q.Lowpri(), true) {
		q.owePreempt.Store(true)
	}
}

// BumpSwitchcnt advances the switch counter, skipped for the idle
// thread per spec.md §4.9 step 3.
func (q *ThreadQueue) BumpSwitchcnt(isIdle bool) {
	if isIdle {
		return
	}
	q.oldSwitchcnt = q.switchcnt
	q.switchcnt++
}
