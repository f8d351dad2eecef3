package sched

// MISwitch is the entry point for a voluntary or involuntary context
// switch, corresponding to spec.md §4.9's mi_switch. The caller must
// already hold the current thread's lock with critical-section nesting
// at exactly 1, and flags must include exactly one of SwVoluntary or
// SwInvoluntary.
func (s *Scheduler) MISwitch(cpuIdx int, flags SwitchFlag) {
	info := s.CPU(cpuIdx)
	q := info.Queue
	t := q.Current
	if t == nil {
		panic("sched: MISwitch with no current thread")
	}
	if t.Lock != &q.Lock {
		panic("sched: MISwitch: current thread's lock does not match its queue")
	}
	if t.CritNest != 1 {
		panic("sched: MISwitch: critnest must be exactly 1")
	}
	if flags&(SwVoluntary|SwInvoluntary) == 0 || flags&(SwVoluntary|SwInvoluntary) == (SwVoluntary|SwInvoluntary) {
		panic("sched: MISwitch: flags must include exactly one of voluntary/involuntary")
	}

	now := s.Ticks()
	elapsed := now - info.LastSwitchTick
	if t.Class == ClassTimeshare {
		t.RunTime += elapsed * TickIncr
	}
	info.LastSwitchTick = now

	s.schedSwitch(cpuIdx, t, flags)
}

// schedSwitch implements spec.md §4.9's sched_switch, steps 1-7.
func (s *Scheduler) schedSwitch(cpuIdx int, t *Thread, flags SwitchFlag) {
	info := s.CPU(cpuIdx)
	q := info.Queue
	now := s.Ticks()

	// Step 1: update pct-cpu, record rltick.
	UpdatePctCPU(t, true, now)
	t.RealLastTick = now
	if t.HasFlag(FlagPickCPU) {
		t.RealLastTick -= Affinity * MaxCacheLevels
	}

	// Step 2: latch preempted, clear transient flags.
	preempted := !t.HasFlag(FlagSliceEnd) && flags&SwPreempt != 0
	t.SetFlag(FlagPickCPU, false)
	t.SetFlag(FlagSliceEnd, false)

	// Step 3: clear owe_preempt, bump switchcnt unless idle.
	q.ClearOwePreempt()
	q.BumpSwitchcnt(t.HasFlag(FlagIdleThread))

	// Step 4: block the thread -- save its lock, install the sentinel.
	savedLock := t.Lock
	t.Lock = blockedLock

	// Step 5: dispose of the outgoing thread.
	switch {
	case t.HasFlag(FlagIdleThread):
		t.State = StateCanRun
	case t.State == StateRunning:
		s.requeueAfterSwitch(cpuIdx, t, preempted)
	default:
		// Sleeping: remove load only, the thread stays off every run-queue.
		q.RemLoad(t)
	}

	// Step 6: choose the next thread.
	next := q.Choose()
	if next == nil {
		next = s.idleThreadFor(cpuIdx)
	} else {
		q.RemRunq(next)
	}
	next.State = StateRunning
	next.CPU = cpuIdx
	q.Current = next
	UpdatePctCPU(next, true, now)
	q.Lock.Unlock()

	// Step 7: hand off. Arm the next tick, spin until the new thread's
	// lock has left the sentinel, then install it and swap frames.
	// Arming the timer is left to the caller (mazcore.Reschedule); the
	// trap frame is not swapped here or by that caller. Here we only
	// enforce the hand-off invariant described in spec.md §5.
	for next.Lock == blockedLock {
		// Spin: bounded by the destination CPU's own schedSwitch call
		// releasing the sentinel once it takes ownership of next.
	}

	_ = savedLock
}

// requeueAfterSwitch re-adds a still-runnable outgoing thread to its
// chosen CPU's queue, migrating across CPUs via the lock dance spec.md
// §4.9/§5 describes when necessary.
func (s *Scheduler) requeueAfterSwitch(cpuIdx int, t *Thread, preempted bool) {
	srcQ := s.Queue(cpuIdx)
	dst := cpuIdx
	if !t.Bound() {
		dst = s.PickCPU(t, 0)
	}

	flags := SrqFlag(0)
	if preempted {
		flags |= SrqPreempted
	}

	if dst == cpuIdx {
		srcQ.AddRunq(t, flags)
		srcQ.AddLoad(t)
		t.State = StateOnRunqueue
		t.Lock = &srcQ.Lock
		srcQ.SetLowpri(nil)
		return
	}

	s.switchMigrate(cpuIdx, dst, t, flags)
}

// switchMigrate moves t from the source CPU's queue to dst's queue
// using the cross-lock dance of spec.md §4.9/§5: drop the source lock,
// take the destination lock, insert and notify, drop the destination
// lock, and re-take the source lock so lock ordering is preserved for
// the caller, which still holds (and will unlock) the source lock.
//
// spec.md §9 flags the source's assertion that the thread is already
// TSF_BOUND as self-contradictory for a migration path; this
// reimplementation instead marks the thread bound to its new CPU only
// after the migration completes.
func (s *Scheduler) switchMigrate(srcCPU, dstCPU int, t *Thread, flags SrqFlag) {
	srcQ := s.Queue(srcCPU)
	dstQ := s.Queue(dstCPU)

	srcQ.Lock.Unlock()
	dstQ.Lock.Lock()

	dstQ.AddRunq(t, flags)
	dstQ.AddLoad(t)
	t.State = StateOnRunqueue
	t.Lock = &dstQ.Lock
	t.CPU = dstCPU
	t.SetFlag(FlagBound, true)
	// Notify before SetLowpri: Notify compares against the destination's
	// lowpri as it was before this thread arrived.
	dstQ.Notify(t.Pri)
	dstQ.SetLowpri(nil)

	dstQ.Lock.Unlock()
	srcQ.Lock.Lock()
}

// idleThreadFor returns the permanent idle thread for a CPU. Callers
// outside this package install it via Scheduler.SetIdleThread at boot.
func (s *Scheduler) idleThreadFor(cpuIdx int) *Thread {
	info := s.CPU(cpuIdx)
	if info.idle == nil {
		panic("sched: no idle thread installed for CPU")
	}
	return info.idle
}

// SetIdleThread installs the permanent idle thread for a CPU, chosen
// whenever that CPU's run-queues are empty.
func (s *Scheduler) SetIdleThread(cpuIdx int, idle *Thread) {
	idle.SetFlag(FlagIdleThread, true)
	idle.SetFlag(FlagNoLoad, true)
	idle.CPU = cpuIdx
	s.CPU(cpuIdx).idle = idle
}
