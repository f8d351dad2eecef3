package sched

// InteractTunable mirrors FreeBSD ULE's kern.sched.interact sysctl: a
// runtime-adjustable ceiling that, when at or below half of
// SchedInteractMax, lets Interactivity short-circuit to the halfway
// score without walking the runtime/slptime ratio. Defaults to
// SchedInteractMax so the short-circuit is inactive by default and
// the ratio-based scoring in spec.md §4.7 governs, which is what
// invariant 7 in spec.md §8 (the larger side dominates) requires.
var InteractTunable uint8 = SchedInteractMax

const interactHalf = SchedInteractMax / 2

// Interactivity computes a thread's interactivity score in [0,100]
// from accumulated runtime and sleep ticks, per spec.md §4.7.
func Interactivity(runtime, slptime uint64) int {
	if InteractTunable <= interactHalf && runtime >= slptime {
		return interactHalf
	}
	if runtime > slptime {
		div := runtime / interactHalf
		if div < 1 {
			div = 1
		}
		score := interactHalf + (interactHalf - int(slptime/div))
		return clampScore(score)
	}
	if slptime > runtime {
		div := slptime / interactHalf
		if div < 1 {
			div = 1
		}
		return clampScore(int(runtime / div))
	}
	if runtime != 0 {
		return interactHalf
	}
	return 0
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > SchedInteractMax {
		return SchedInteractMax
	}
	return s
}

// ComputePriority recomputes a timeshare thread's user priority from
// its interactivity score, per spec.md §4.7.
func ComputePriority(t *Thread) {
	if t.Class != ClassTimeshare {
		return
	}
	score := Interactivity(t.RunTime, t.SlpTime)

	var pri int
	if score < SchedInteractThresh {
		pri = PriMinInteract + (PriMaxInteract-PriMinInteract+1)*score/SchedInteractThresh
	} else {
		elapsed := t.LastTick - t.FirstTick
		if elapsed < Hz {
			elapsed = Hz
		}
		run := int((t.AccruedTicks >> 10) / elapsed)
		if run > SchedPriRange-1 {
			run = SchedPriRange - 1
		}
		pri = SchedPriMin + run
	}
	t.UserPri = uint8(pri)
}

// UpdateInteract decays a thread's accumulated runtime/slptime once
// their sum grows past the five-second (in ticks) cap, per spec.md §4.7.
func UpdateInteract(t *Thread) {
	cap := uint64(5*Hz) << 10
	sum := t.RunTime + t.SlpTime
	if sum <= cap {
		return
	}
	switch {
	case sum > 2*cap:
		if t.RunTime > t.SlpTime {
			t.RunTime = cap
			t.SlpTime = 1
		} else {
			t.SlpTime = cap
			t.RunTime = 1
		}
	case sum > (6*cap)/5:
		t.RunTime /= 2
		t.SlpTime /= 2
	default:
		t.RunTime = t.RunTime * 4 / 5
		t.SlpTime = t.SlpTime * 4 / 5
	}
}

// UpdatePctCPU advances a thread's sliding CPU-usage accounting
// window to tick `now`, charging elapsed ticks if the thread is
// currently running, per spec.md §4.7.
func UpdatePctCPU(t *Thread, running bool, now uint64) {
	target := PctCPUTargetTicks()

	switch {
	case now-t.LastTick >= target:
		t.AccruedTicks = 0
		t.FirstTick = now - target
	case now-t.FirstTick > target:
		denom := t.LastTick - t.FirstTick
		if denom == 0 {
			denom = 1
		}
		num := t.LastTick - (now - target)
		t.AccruedTicks = t.AccruedTicks * num / denom
		t.FirstTick = now - target
	}

	if running {
		t.AccruedTicks += (now - t.LastTick) << 10
	}
	t.LastTick = now
}
