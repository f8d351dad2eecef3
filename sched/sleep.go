package sched

const (
	// SrqBoring marks a wakeup insertion as not worth waking an idle
	// remote CPU over, mirroring FreeBSD's SRQ_BORING.
	SrqBoring SrqFlag = 1 << 7
)

// Sleep records the tick at which thread began sleeping and, for
// timeshare threads, demotes an elevated priority down to
// PRI_MIN_BATCH, per spec.md §4.10. The caller is expected to have
// already removed thread from its run-queue (mi_switch's sleeping
// path does this via RemLoad only).
func (s *Scheduler) Sleep(t *Thread) {
	t.SlpTick = s.Ticks()
	if t.Class == ClassTimeshare && t.Pri > PriMinBatch {
		t.Pri = PriMinBatch
	}
	t.Inhibited |= InhibitSleeping
	t.State = StateInhibited
}

// Wakeup reverses Sleep and re-adds thread to a run-queue, per
// spec.md §4.10.
func (s *Scheduler) Wakeup(t *Thread, srqFlags SrqFlag) {
	now := s.Ticks()
	if elapsed := now - t.SlpTick; elapsed >= 1 {
		t.SlpTime += elapsed << 10
		ComputePriority(t)
		UpdatePctCPU(t, false, now)
	}

	if t.Class == ClassInterrupt {
		t.Pri = t.BaseIthreadPri
	}
	t.SliceRem = 0
	t.Inhibited &^= InhibitSleeping
	t.State = StateCanRun

	cpu := s.PickCPU(t, 0)
	t.CPU = cpu
	q := s.Queue(cpu)

	q.Lock.Lock()
	q.AddRunq(t, SrqBoring|srqFlags)
	q.AddLoad(t)
	t.State = StateOnRunqueue
	t.Lock = &q.Lock
	q.Notify(t.Pri)
	q.SetLowpri(nil)
	q.Lock.Unlock()
}

// ThreadPriority changes a thread's effective priority, re-queuing it
// if it currently occupies a run-queue bucket and updating its
// queue's cached lowpri if it is running, per spec.md §4.10.
func (s *Scheduler) ThreadPriority(t *Thread, prio uint8) {
	if t.Pri == prio {
		return
	}
	switch t.State {
	case StateOnRunqueue:
		q := s.Queue(t.CPU)
		q.RemRunq(t)
		t.Pri = prio
		q.AddRunq(t, 0)
		q.SetLowpri(nil)
	case StateRunning:
		t.Pri = prio
		s.Queue(t.CPU).SetLowpri(nil)
	default:
		t.Pri = prio
	}
}

// LendPriority marks thread as borrowing a (typically lower, i.e.
// more urgent) priority from a lock holder relationship and applies
// it, per spec.md §4.10.
func (s *Scheduler) LendPriority(t *Thread, prio uint8) {
	t.SetFlag(FlagBorrowing, true)
	t.LentUserPri = prio
	s.ThreadPriority(t, prio)
}

// UnlendPriority reverses LendPriority, restoring the thread's
// base/user priority unless prio is still lower than the priority
// currently lent, in which case it re-lends at the lower value, per
// spec.md §4.10.
func (s *Scheduler) UnlendPriority(t *Thread, prio uint8) {
	basePri := t.BasePri
	if t.BasePri >= PriMinTimeshare && t.BasePri <= PriMaxTimeshare {
		basePri = t.UserPri
	}
	if prio < basePri && prio < t.LentUserPri {
		t.LentUserPri = prio
		s.ThreadPriority(t, prio)
		return
	}
	t.SetFlag(FlagBorrowing, false)
	s.ThreadPriority(t, basePri)
}

// LendUserPriority lowers (or raises, if less urgent) a thread's
// effective user priority, demoting its effective priority to match
// or requesting an AST so the thread picks up the new user priority
// at its next safe boundary, per spec.md §4.10.
func (s *Scheduler) LendUserPriority(t *Thread, prio uint8) {
	lent := prio
	if t.BaseUserPri < lent {
		lent = t.BaseUserPri
	}
	t.LentUserPri = lent
	t.UserPri = lent

	if t.Pri > t.UserPri {
		s.ThreadPriority(t, t.UserPri)
		return
	}
	if t.CPU != NoCPU {
		s.cpu.RequestAST(t.CPU)
	}
}
