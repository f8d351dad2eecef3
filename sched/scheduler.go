package sched

import (
	"sync/atomic"

	"github.com/iansmith/mazcore/hal"
)

// blockedLock is the shared sentinel a thread's Lock pointer is set to
// during hand-off between CPUs (spec.md §5, §9): a thread's lock is
// "the blocked-lock sentinel" from the instant it relinquishes its
// queue until the instant its successor CPU's queue takes ownership.
var blockedLock = &SpinLock{}

// CPUInfo is the per-CPU scheduler state described by spec.md §3:
// current thread (held by Queue.Current), the thread queue itself, a
// local tick counter, the saved trap-frame pointer, and the tick of
// the last switch.
type CPUInfo struct {
	Queue          *ThreadQueue
	LocalTicks     uint64
	Frame          hal.TrapFrame
	LastSwitchTick uint64
	Crit           CritSection

	idle *Thread
}

// Scheduler owns the per-CPU thread queues and the global tick
// counter, and implements the scheduler-core operations of spec.md §4.
type Scheduler struct {
	cpu   hal.CPU
	log   hal.LogSink
	cpus  []*CPUInfo
	ticks atomic.Uint64
}

// NewScheduler builds one ThreadQueue/CPUInfo per core reported by cpu.
// An optional cpuCount overrides cpu.CoreCount(), for an embedder whose
// decoded boot parameters name a logical CPU count to actually bring up
// (e.g. booting with a subset of the hardware-reported cores enabled).
func NewScheduler(cpu hal.CPU, log hal.LogSink, cpuCount ...int) *Scheduler {
	n := cpu.CoreCount()
	if len(cpuCount) > 0 && cpuCount[0] > 0 {
		n = cpuCount[0]
	}
	s := &Scheduler{cpu: cpu, log: log, cpus: make([]*CPUInfo, n)}
	for i := 0; i < n; i++ {
		s.cpus[i] = &CPUInfo{Queue: NewThreadQueue(i)}
	}
	return s
}

// CPUCount returns the number of CPUs the scheduler manages.
func (s *Scheduler) CPUCount() int { return len(s.cpus) }

// CPU returns the per-CPU state for the given index.
func (s *Scheduler) CPU(i int) *CPUInfo { return s.cpus[i] }

// Queue returns the thread queue owned by CPU i.
func (s *Scheduler) Queue(i int) *ThreadQueue { return s.cpus[i].Queue }

// Ticks returns the current value of the global tick counter.
func (s *Scheduler) Ticks() uint64 { return s.ticks.Load() }

// AddThread places a newly runnable thread on its chosen CPU's queue
// and updates load/lowpri bookkeeping. It is the steady-state entry
// point collaborators use to hand the scheduler a runnable thread
// outside of wakeup/switch (e.g. thread creation).
func (s *Scheduler) AddThread(t *Thread, flags SrqFlag) {
	cpu := s.PickCPU(t, 0)
	t.CPU = cpu
	q := s.Queue(cpu)

	q.Lock.Lock()
	q.AddRunq(t, flags)
	q.AddLoad(t)
	t.State = StateOnRunqueue
	t.Lock = &q.Lock
	q.SetLowpri(nil)
	q.Lock.Unlock()
}
