package sched

import "testing"

func TestRunQueueAddChooseOrder(t *testing.T) {
	var q RunQueue
	threads := []*Thread{
		{Name: "a", Pri: 180},
		{Name: "b", Pri: 100},
		{Name: "c", Pri: 140},
	}
	for _, th := range threads {
		q.Add(th, false)
	}

	var order []string
	for {
		next := q.Choose()
		if next == nil {
			break
		}
		order = append(order, next.Name)
		q.Remove(next, nil)
	}
	want := []string{"b", "c", "a"} // priorities 100, 140, 180 ascending
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestRunQueuePreemptedGoesToHead(t *testing.T) {
	var q RunQueue
	a := &Thread{Name: "a", Pri: 20}
	b := &Thread{Name: "b", Pri: 20}
	q.Add(a, false)
	q.Add(b, true) // preempted: head of the same bucket

	if got := q.Choose(); got != b {
		t.Fatalf("expected preempted thread b at head, got %v", got.Name)
	}
}

func TestRunQueueRemoveNonHeadPanics(t *testing.T) {
	var q RunQueue
	a := &Thread{Name: "a", Pri: 20}
	b := &Thread{Name: "b", Pri: 20}
	q.Add(a, false)
	q.Add(b, false)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic removing non-head thread")
		}
	}()
	q.Remove(b, nil)
}

func TestRunQueueBitmapCoherence(t *testing.T) {
	var q RunQueue
	th := &Thread{Pri: 40}
	b := bucketOf(th.Pri)

	if q.BitSet(b) {
		t.Fatal("bit should be clear before any insertion")
	}
	q.Add(th, false)
	if !q.BitSet(b) {
		t.Fatal("bit should be set after insertion")
	}
	q.Remove(th, nil)
	if q.BitSet(b) {
		t.Fatal("bit should clear once bucket empties")
	}
}

func TestRunQueueAddRemoveRoundTrip(t *testing.T) {
	var q RunQueue
	th := &Thread{Pri: 64}
	b := bucketOf(th.Pri)

	q.Add(th, false)
	if q.BucketLen(b) != 1 {
		t.Fatalf("expected bucket len 1, got %d", q.BucketLen(b))
	}
	q.Remove(th, nil)
	if q.BucketLen(b) != 0 {
		t.Fatalf("expected bucket len 0 after remove, got %d", q.BucketLen(b))
	}
	if !q.Empty() {
		t.Fatal("expected queue empty after round trip")
	}
}

func TestRunQueueChooseFromWrapsCircularly(t *testing.T) {
	var q RunQueue
	th := &Thread{Pri: 4} // bucket 1
	q.Add(th, false)

	if got := q.ChooseFrom(2); got != th {
		t.Fatalf("expected ChooseFrom to wrap around and find bucket 1, got %v", got)
	}
}

// TestRunQueueFullRotationVisitsEachBucketOnce is the literal rotation
// scenario from spec.md §8.4: over a full rotation of idx from 0 back
// to 0, every bucket is visited by choose_from(ridx) exactly once
// before any bucket is visited twice.
func TestRunQueueFullRotationVisitsEachBucketOnce(t *testing.T) {
	var q RunQueue
	for b := 0; b < RQPrioCount; b++ {
		q.Add(&Thread{Pri: uint8(b * 4)}, false)
	}

	seen := make(map[int]bool)
	visits := 0
	for start := 0; start < RQPrioCount; start++ {
		th := q.ChooseFrom(start)
		if th == nil {
			t.Fatalf("unexpected empty queue at start=%d", start)
		}
		b := bucketOf(th.Pri)
		if seen[b] {
			continue
		}
		seen[b] = true
		visits++
	}
	if visits != RQPrioCount {
		t.Fatalf("expected every bucket visited once across a full rotation, got %d", visits)
	}
}
