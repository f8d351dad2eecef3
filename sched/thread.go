package sched

import "math"

// NoCPU marks a thread as not currently assigned to any CPU.
const NoCPU = -1

// State is a thread's coarse scheduling state.
type State int

const (
	StateInactive State = iota
	StateInhibited
	StateCanRun
	StateOnRunqueue
	StateRunning
)

// Inhibitor is a bitmask of reasons a thread is not runnable.
type Inhibitor uint8

const (
	InhibitSuspended Inhibitor = 1 << iota
	InhibitSleeping
	InhibitSwapped
	InhibitLockBlocked
	InhibitInterruptWait
)

// Flag is a bitmask of per-thread scheduling flags.
type Flag uint16

const (
	// FlagBound pins the thread to its current CPU; set after a migration
	// completes, per the switchMigrate reinterpretation in SPEC_FULL.md.
	FlagBound Flag = 1 << iota
	FlagTransferable
	FlagNoLoad
	FlagBorrowing
	FlagIdleThread
	FlagPickCPU
	FlagSliceEnd
)

// SwitchFlag distinguishes voluntary from involuntary context switches
// and other sched_switch modifiers (spec.md §4.9).
type SwitchFlag uint8

const (
	SwVoluntary SwitchFlag = 1 << iota
	SwInvoluntary
	SwPreempt
)

// Thread is the scheduler's per-thread descriptor (spec.md §3).
type Thread struct {
	// Identity/locking.
	Lock         *SpinLock
	CritNest     int
	SpinNest     int
	SavedIntrEna bool

	// Classification.
	Class Class
	Flags Flag

	// Priority.
	BasePri       uint8
	Pri           uint8 // effective priority
	BaseUserPri   uint8
	LentUserPri   uint8
	UserPri       uint8 // effective user priority
	BaseIthreadPri uint8
	RqIndex       int // bucket this thread currently occupies, if on a run-queue

	// Accounting.
	FirstTick    uint64
	LastTick     uint64
	RealLastTick uint64 // rltick, for affinity
	SliceRem     int
	SlpTick      uint64 // tick at which Sleep was called
	SlpTime      uint64
	RunTime      uint64
	AccruedTicks uint64

	// Placement.
	CPU     int
	LastCPU int

	// Scheduling state.
	State     State
	Inhibited Inhibitor

	// rqKind records which of a ThreadQueue's three RunQueues currently
	// holds this thread, so RemRunq can find it without re-deriving it
	// from a priority that may have changed since insertion.
	rqKind rqKind

	Name string
}

// rqKind identifies one of a ThreadQueue's three constituent RunQueues.
type rqKind int

const (
	rqKindNone rqKind = iota
	rqKindRealtime
	rqKindTimeshare
	rqKindIdle
)

// NewThread constructs a thread descriptor at the given base priority,
// idle, not yet placed on any CPU.
func NewThread(name string, class Class, basePri uint8) *Thread {
	return &Thread{
		Name:        name,
		Class:       class,
		BasePri:     basePri,
		Pri:         basePri,
		BaseUserPri: basePri,
		UserPri:     basePri,
		LentUserPri: math.MaxUint8,
		CPU:         NoCPU,
		LastCPU:     NoCPU,
		State:       StateInactive,
	}
}

// Runnable reports whether the thread is eligible to run (no inhibitor set).
func (t *Thread) Runnable() bool {
	return t.Inhibited == 0
}

// Bound reports whether the thread is pinned to its current CPU.
func (t *Thread) Bound() bool {
	return t.Flags&FlagBound != 0
}

// SetFlag sets or clears a flag.
func (t *Thread) SetFlag(f Flag, on bool) {
	if on {
		t.Flags |= f
	} else {
		t.Flags &^= f
	}
}

// HasFlag reports whether the given flag is set.
func (t *Thread) HasFlag(f Flag) bool {
	return t.Flags&f != 0
}
