package sched

import "testing"

func TestInteractivityBothZero(t *testing.T) {
	if got := Interactivity(0, 0); got != 0 {
		t.Fatalf("expected score 0 for a fresh thread, got %d", got)
	}
}

func TestInteractivityBothEqualNonzero(t *testing.T) {
	if got := Interactivity(40, 40); got != interactHalf {
		t.Fatalf("expected half-max for equal nonzero runtime/slptime, got %d", got)
	}
}

// TestInteractivityLargerSideDominates is spec.md §8 invariant 7: the
// function is symmetric under swap only when both sides are equal;
// otherwise the larger side dominates (score moves toward "more
// batch" as runtime grows relative to slptime, and toward "more
// interactive" as slptime grows relative to runtime).
func TestInteractivityLargerSideDominates(t *testing.T) {
	low := Interactivity(60, 40)
	high := Interactivity(600, 40)
	if !(high >= low) {
		t.Fatalf("expected growing runtime dominance to not decrease score: low=%d high=%d", low, high)
	}

	sleepy := Interactivity(40, 600)
	lessSleepy := Interactivity(40, 60)
	if !(sleepy <= lessSleepy) {
		t.Fatalf("expected growing slptime dominance to not increase score: sleepy=%d lessSleepy=%d", sleepy, lessSleepy)
	}
}

func TestInteractivitySymmetricOnlyWhenEqual(t *testing.T) {
	a := Interactivity(70, 30)
	b := Interactivity(30, 70)
	if a == b {
		t.Fatalf("expected asymmetric scores for unequal runtime/slptime, got %d == %d", a, b)
	}
}

func TestComputePriorityBandsByScore(t *testing.T) {
	interactive := &Thread{Class: ClassTimeshare, RunTime: 0, SlpTime: 40}
	ComputePriority(interactive)
	if interactive.UserPri < PriMinInteract || interactive.UserPri > PriMaxInteract {
		t.Fatalf("expected interactive-band priority, got %d", interactive.UserPri)
	}

	// A freshly created thread with zero accrued ticks lands at
	// SCHED_PRI_MIN in the batch band regardless of score, since the
	// offset term (AccruedTicks>>10)/elapsed is zero (spec.md §8.2's
	// literal scenario: runtime=50, slptime=0, batch band at
	// SCHED_PRI_MIN).
	batch := &Thread{Class: ClassTimeshare, RunTime: 50, SlpTime: 0}
	ComputePriority(batch)
	if batch.UserPri != SchedPriMin {
		t.Fatalf("expected SCHED_PRI_MIN for a fresh batch thread, got %d", batch.UserPri)
	}
	if batch.UserPri < PriMinBatch || batch.UserPri > PriMaxBatch {
		t.Fatalf("expected batch-band priority, got %d", batch.UserPri)
	}

	// Same runtime/slptime, but with real accrued CPU usage recorded by
	// update_pct_cpu: the offset term must move the priority off the
	// floor, or the batch band is permanently pinned regardless of
	// actual usage.
	used := &Thread{Class: ClassTimeshare, RunTime: 50, SlpTime: 0,
		FirstTick: 0, LastTick: Hz, AccruedTicks: 10 * Hz << 10}
	ComputePriority(used)
	if used.UserPri != SchedPriMin+10 {
		t.Fatalf("expected SCHED_PRI_MIN+10 with nonzero accrued ticks, got %d", used.UserPri)
	}
	if used.UserPri <= batch.UserPri {
		t.Fatalf("expected nonzero-usage priority to move off the floor: floor=%d used=%d", batch.UserPri, used.UserPri)
	}
}

func TestUpdateInteractDecaysPastCap(t *testing.T) {
	cap := uint64(5*Hz) << 10

	th := &Thread{RunTime: 3 * cap, SlpTime: 10}
	UpdateInteract(th)
	if th.RunTime != cap || th.SlpTime != 1 {
		t.Fatalf("expected clamp past 2x cap, got runtime=%d slptime=%d", th.RunTime, th.SlpTime)
	}

	th2 := &Thread{RunTime: cap, SlpTime: cap / 4} // sum > 6/5 cap, <= 2x cap
	before := th2.RunTime
	UpdateInteract(th2)
	if th2.RunTime != before/2 {
		t.Fatalf("expected halving in the 6/5-2x band, got %d", th2.RunTime)
	}

	th3 := &Thread{RunTime: cap/2 + 1, SlpTime: cap/2 + 1} // just over cap, under 6/5 cap
	r3, s3 := th3.RunTime, th3.SlpTime
	UpdateInteract(th3)
	if th3.RunTime != r3*4/5 || th3.SlpTime != s3*4/5 {
		t.Fatalf("expected 4/5 scaling just past cap, got runtime=%d slptime=%d", th3.RunTime, th3.SlpTime)
	}
}

func TestUpdateInteractNoopBelowCap(t *testing.T) {
	th := &Thread{RunTime: 10, SlpTime: 10}
	UpdateInteract(th)
	if th.RunTime != 10 || th.SlpTime != 10 {
		t.Fatal("expected no decay below the cap")
	}
}
