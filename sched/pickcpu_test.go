package sched

import (
	"testing"

	"github.com/iansmith/mazcore/hal/haltest"
)

func TestPickCPUOurselfReturnsCurrent(t *testing.T) {
	s := NewScheduler(haltest.NewCPU(0, 2), haltest.NewLogSink())
	th := &Thread{CPU: 1}
	if got := s.PickCPU(th, PickCPUOurself); got != 1 {
		t.Fatalf("expected CPU 1, got %d", got)
	}
}

func TestPickCPUInterruptClassStaysOnCurrent(t *testing.T) {
	s := NewScheduler(haltest.NewCPU(0, 2), haltest.NewLogSink())
	th := &Thread{Class: ClassInterrupt, Pri: 5, CPU: 1}
	if got := s.PickCPU(th, 0); got != 1 {
		t.Fatalf("expected interrupt-class thread to stay on CPU 1, got %d", got)
	}
}

func TestPickCPUPicksLeastLoaded(t *testing.T) {
	s := NewScheduler(haltest.NewCPU(0, 2), haltest.NewLogSink())
	// Load CPU 0 with a runnable thread so CPU 1 is least loaded.
	busy := &Thread{Pri: 100, Class: ClassTimeshare}
	s.Queue(0).AddLoad(busy)

	th := &Thread{Pri: 100, Class: ClassTimeshare, CPU: NoCPU, LastCPU: NoCPU}
	if got := s.PickCPU(th, 0); got != 1 {
		t.Fatalf("expected least-loaded CPU 1, got %d", got)
	}
}

func TestPickCPUAffinityKeepsLastCPU(t *testing.T) {
	s := NewScheduler(haltest.NewCPU(0, 2), haltest.NewLogSink())
	s.ticks.Store(10)

	th := &Thread{Pri: 100, Class: ClassTimeshare, CPU: NoCPU, LastCPU: 1, RealLastTick: 10}
	// CPU 1 is idle (default lowpri PriMaxIdle) and ran there within
	// the affinity window (rltick=10 > ticks(10)-2*Affinity(1)=8).
	if got := s.PickCPU(th, 0); got != 1 {
		t.Fatalf("expected affinity to keep thread on CPU 1, got %d", got)
	}
}

// TestTwoCPUMigrationScenario is the literal scenario from spec.md
// §8.5: CPU 0 lowpri=50, CPU 1 idle (lowpri=255). Waking an
// interactive thread with priority 80 picks CPU 1 and its notify sets
// owe_preempt.
func TestTwoCPUMigrationScenario(t *testing.T) {
	s := NewScheduler(haltest.NewCPU(0, 2), haltest.NewLogSink())
	s.Queue(0).lowpri.Store(50)
	s.Queue(1).lowpri.Store(PriMaxIdle)

	th := &Thread{Pri: 80, Class: ClassTimeshare, CPU: NoCPU, LastCPU: NoCPU}
	cpu := s.PickCPU(th, 0)
	if cpu != 1 {
		t.Fatalf("expected pick_cpu to select idle CPU 1, got %d", cpu)
	}

	s.Queue(cpu).Notify(th.Pri)
	if !s.Queue(cpu).OwePreempt() {
		t.Fatal("expected notify to set owe_preempt on CPU 1")
	}
}
