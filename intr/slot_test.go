package intr

import "testing"

func TestNewSlotTableReservesLow32(t *testing.T) {
	st := NewSlotTable()
	for i := 0; i < NumReservedSlots; i++ {
		s, ok := st.Lookup(i)
		if !ok || !s.Active() {
			t.Fatalf("slot %d: expected reserved/active", i)
		}
	}
	for i := NumReservedSlots; i < NumSlots; i++ {
		s, ok := st.Lookup(i)
		if !ok || s.Active() {
			t.Fatalf("slot %d: expected free", i)
		}
	}
}

func TestBindFindsFirstFreeSlot(t *testing.T) {
	st := NewSlotTable()
	ioc := &IOController{gsiBase: 0, slots: st}
	p := &Pin{owner: ioc, index: 0, slot: -1}

	idx, err := st.Bind(p)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if idx != NumReservedSlots {
		t.Fatalf("expected first free slot %d, got %d", NumReservedSlots, idx)
	}
	if p.slot != idx {
		t.Fatalf("pin.slot not updated: got %d want %d", p.slot, idx)
	}
}

func TestBindIsIdempotentForSamePin(t *testing.T) {
	st := NewSlotTable()
	ioc := &IOController{slots: st}
	p := &Pin{owner: ioc, slot: -1}

	first, err := st.Bind(p)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	second, err := st.Bind(p)
	if err != nil {
		t.Fatalf("Bind (rebind): %v", err)
	}
	if first != second {
		t.Fatalf("rebinding same pin changed slot: %d -> %d", first, second)
	}
	if st.Free() != NumSlots-NumReservedSlots-1 {
		t.Fatalf("idempotent rebind consumed an extra slot: free=%d", st.Free())
	}
}

// TestSlotTableSaturation is the literal scenario from spec.md §8.3:
// slot table starts with slots 0-31 active, 32-255 inactive. Binding
// 300 distinct pins succeeds exactly 224 times before exhaustion.
func TestSlotTableSaturation(t *testing.T) {
	st := NewSlotTable()
	ioc := &IOController{slots: st}

	succeeded := 0
	var sawNoVectors bool
	for i := 0; i < 300; i++ {
		p := &Pin{owner: ioc, index: i, slot: -1}
		if _, err := st.Bind(p); err != nil {
			sawNoVectors = true
			continue
		}
		succeeded++
	}

	if succeeded != NumSlots-NumReservedSlots {
		t.Fatalf("expected %d successful binds, got %d", NumSlots-NumReservedSlots, succeeded)
	}
	if !sawNoVectors {
		t.Fatal("expected at least one ErrNoVectors failure past saturation")
	}
}
