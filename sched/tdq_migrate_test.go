package sched

import (
	"testing"

	"github.com/iansmith/mazcore/hal/haltest"
)

// TestSwitchMigrateMarksBoundAfterMigration is the redesign-flag fix of
// spec.md §9: the thread is marked TSF_BOUND only once it has actually
// landed on the destination CPU's queue, not asserted as a precondition
// of the migration itself.
func TestSwitchMigrateMarksBoundAfterMigration(t *testing.T) {
	s := NewScheduler(haltest.NewCPU(0, 2), haltest.NewLogSink())
	srcQ := s.Queue(0)
	dstQ := s.Queue(1)

	th := NewThread("t", ClassTimeshare, 150)
	th.UserPri = 150
	th.Pri = 150
	th.CPU = 0
	th.Lock = &srcQ.Lock

	if th.HasFlag(FlagBound) {
		t.Fatal("thread should not start out bound")
	}

	srcQ.Lock.Lock()
	s.switchMigrate(0, 1, th, 0)
	// switchMigrate leaves the source lock held on return, mirroring the
	// caller (schedSwitch) which still owns and will unlock it.
	srcQ.Lock.Unlock()

	if !th.HasFlag(FlagBound) {
		t.Fatal("expected thread bound to its new CPU after migration completes")
	}
	if th.CPU != 1 {
		t.Fatalf("expected thread's CPU updated to 1, got %d", th.CPU)
	}
	if th.Lock != &dstQ.Lock {
		t.Fatal("expected thread's lock updated to the destination queue's lock")
	}
	if th.State != StateOnRunqueue {
		t.Fatalf("expected thread on a run-queue after migration, got %v", th.State)
	}
}

func TestSwitchMigrateReleasesBothLocksProperly(t *testing.T) {
	s := NewScheduler(haltest.NewCPU(0, 2), haltest.NewLogSink())
	srcQ := s.Queue(0)
	dstQ := s.Queue(1)

	th := NewThread("t", ClassTimeshare, 150)
	th.CPU = 0

	srcQ.Lock.Lock()
	s.switchMigrate(0, 1, th, 0)

	// Destination lock must be free (not held) after switchMigrate
	// returns, since it dropped it before re-taking the source lock.
	if !dstQ.Lock.TryLock() {
		t.Fatal("expected destination lock released by switchMigrate")
	}
	dstQ.Lock.Unlock()

	// Source lock must be held again by switchMigrate on return, as the
	// caller (schedSwitch) expects to still own and unlock it.
	if srcQ.Lock.TryLock() {
		srcQ.Lock.Unlock()
		t.Fatal("expected source lock re-acquired by switchMigrate before returning")
	}
	srcQ.Lock.Unlock()
}

func TestSwitchMigrateNotifiesDestinationQueue(t *testing.T) {
	s := NewScheduler(haltest.NewCPU(0, 2), haltest.NewLogSink())
	srcQ := s.Queue(0)
	dstQ := s.Queue(1)
	dstQ.lowpri.Store(PriMaxIdle)

	th := NewThread("t", ClassTimeshare, 60)
	th.Pri = 60
	th.CPU = 0

	srcQ.Lock.Lock()
	s.switchMigrate(0, 1, th, 0)
	srcQ.Lock.Unlock()

	if !dstQ.OwePreempt() {
		t.Fatal("expected migration's notify to set owe_preempt on an idle destination")
	}
}

func TestRequeueAfterSwitchSameCPUWhenBound(t *testing.T) {
	s := NewScheduler(haltest.NewCPU(0, 2), haltest.NewLogSink())
	q := s.Queue(0)

	th := NewThread("t", ClassTimeshare, 150)
	th.SetFlag(FlagBound, true)
	th.CPU = 0

	q.Lock.Lock()
	s.requeueAfterSwitch(0, th, false)
	q.Lock.Unlock()

	if th.CPU != 0 {
		t.Fatalf("expected a bound thread to stay on CPU 0, got %d", th.CPU)
	}
	if th.State != StateOnRunqueue {
		t.Fatalf("expected thread on a run-queue, got %v", th.State)
	}
}
