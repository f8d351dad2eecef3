package sched

// PreemptThresh is the priority at or below which a newly runnable
// thread unconditionally preempts the current one. Zero disables
// threshold-based preemption entirely (spec.md §4.6); left at the top
// of the realtime range so interrupt and realtime threads always
// preempt.
var PreemptThresh uint8 = PriMaxRealtime

// ShouldPreempt implements spec.md §4.6's five-clause preemption test.
func ShouldPreempt(newPri, curPri uint8, remote bool) bool {
	if newPri >= curPri {
		return false
	}
	if curPri >= PriMinIdle {
		return true
	}
	if PreemptThresh == 0 {
		return false
	}
	if newPri <= PreemptThresh {
		return true
	}
	if remote && newPri <= PriMaxInteract && curPri > PriMaxInteract {
		return true
	}
	return false
}
