package sched

// maxHardclockCASRetries bounds Hardclock's compare-and-swap retry
// loop. spec.md §9 flags the original as capable of spinning forever
// if a racing update ever made the target look like it moved
// backward; bounding the retry count is the fix this reimplementation
// applies rather than silently replicating the hazard.
const maxHardclockCASRetries = 64

// Hardclock advances the given CPU's local tick counter by n and
// folds it into the scheduler's global tick counter, per spec.md §4.11.
func (s *Scheduler) Hardclock(cpuIdx int, n uint64) {
	info := s.CPU(cpuIdx)
	info.LocalTicks += n
	target := info.LocalTicks

	for i := 0; i < maxHardclockCASRetries; i++ {
		cur := s.ticks.Load()
		if target <= cur {
			return
		}
		if s.ticks.CompareAndSwap(cur, target) {
			return
		}
	}
}

// Clock performs the per-tick bookkeeping of spec.md §4.11 for the
// thread currently running on cpuIdx: it rotates the timeshare
// run-queue cursors, charges runtime, and deducts n from the thread's
// remaining slice, requesting an AST or demoting the thread once the
// slice is exhausted.
func (s *Scheduler) Clock(cpuIdx int, t *Thread, n int) {
	q := s.Queue(cpuIdx)

	if q.idx == q.ridx {
		q.idx = (q.idx + 1) % RQPrioCount
	}
	if !q.timeshare.BitSet(q.ridx) {
		q.ridx = (q.ridx + 1) % RQPrioCount
	}

	if t.Class == ClassTimeshare {
		t.RunTime += uint64(TickIncr * n)
		UpdateInteract(t)
		ComputePriority(t)
		if !t.HasFlag(FlagBorrowing) {
			t.Pri = t.UserPri
		}
	}

	t.SliceRem -= n
	if t.SliceRem > 0 {
		return
	}

	switch {
	case t.HasFlag(FlagIdleThread):
		return
	case t.Class == ClassInterrupt:
		if int(t.Pri)+4 <= PriMaxIthd {
			t.Pri += 4
		} else {
			t.Pri = PriMaxIthd
		}
	default:
		t.SetFlag(FlagSliceEnd, true)
		if t.CPU != NoCPU {
			s.cpu.RequestAST(t.CPU)
		}
	}
}
