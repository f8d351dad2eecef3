package sched

// PickCPUFlag modifies PickCPU's selection.
type PickCPUFlag uint8

const (
	// PickCPUOurself is set when pick_cpu is invoked from the path of
	// the currently running thread picking for itself: it always
	// returns the thread's current CPU (spec.md §4.8).
	PickCPUOurself PickCPUFlag = 1 << iota
)

// PickCPU selects a CPU for thread, per the four-branch policy of
// spec.md §4.8.
func (s *Scheduler) PickCPU(t *Thread, flags PickCPUFlag) int {
	if flags&PickCPUOurself != 0 {
		return t.CPU
	}

	if t.Class == ClassInterrupt || t.Pri <= PriMaxIthd {
		cur := t.CPU
		if cur == NoCPU {
			cur = 0
		}
		return cur
	}

	if t.LastCPU != NoCPU {
		lastQ := s.Queue(t.LastCPU)
		if lastQ.Lowpri() >= PriMinIdle && t.RealLastTick > s.Ticks()-2*Affinity {
			return t.LastCPU
		}
	}

	chosen := s.leastLoadedCPU(t.LastCPU)

	cur := t.CPU
	if cur != NoCPU && cur != chosen {
		curQ := s.Queue(cur)
		chosenQ := s.Queue(chosen)
		if chosenQ.Lowpri() < PriMinIdle && curQ.Lowpri() > t.Pri && curQ.Load() <= chosenQ.Load() {
			return cur
		}
	}
	return chosen
}

// leastLoadedCPU scans all CPUs and returns the one with the smallest
// load. On equal load it prefers the CPU with the higher (less urgent)
// cached lowpri, so an idle CPU wins over a busy one; on equal load and
// lowpri it prefers a cache-level peer of preferCPU when the CPU layer
// reports topology for it.
func (s *Scheduler) leastLoadedCPU(preferCPU int) int {
	best := 0
	bestLoad := s.Queue(0).Load()

	for i := 1; i < len(s.cpus); i++ {
		load := s.Queue(i).Load()
		lp, bestLp := s.Queue(i).Lowpri(), s.Queue(best).Lowpri()
		switch {
		case load < bestLoad:
			best, bestLoad = i, load
		case load == bestLoad && lp > bestLp:
			best = i
		case load == bestLoad && lp == bestLp && preferCPU != NoCPU && s.cacheLevelPeer(preferCPU, i):
			best = i
		}
	}
	return best
}

func (s *Scheduler) cacheLevelPeer(a, b int) bool {
	if s.cpu == nil || a == b {
		return false
	}
	infoA := s.cpu.CoreInfoOf(a)
	for level := 1; level <= MaxCacheLevels; level++ {
		if infoA.CacheLevelPeerOf(level, b) {
			return true
		}
	}
	return false
}
