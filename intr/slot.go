package intr

import (
	"sync"

	"github.com/iansmith/mazcore/hal"
)

// NumSlots is the size of the flat global IRQ slot table.
const NumSlots = 256

// NumReservedSlots is the count of low slots reserved for CPU
// exceptions at boot; they can never be bound to a pin.
const NumReservedSlots = 32

// Slot is a single global IRQ slot: either reserved, free, or bound to
// exactly one pin.
type Slot struct {
	active bool
	pin    *Pin
}

// Active reports whether this slot is bound (or reserved).
func (s *Slot) Active() bool { return s.active }

// Pin returns the pin bound to this slot, or nil if unbound.
func (s *Slot) Pin() *Pin { return s.pin }

// SlotTable is the flat table of 256 global IRQ slots described in
// spec.md §4.1. A single lock protects the whole table; linking an
// already-bound pin is a no-op (re-binding is not supported).
type SlotTable struct {
	mu    sync.Mutex
	slots [NumSlots]Slot
}

// NewSlotTable creates a slot table with the low NumReservedSlots slots
// reserved for CPU exceptions, per spec.md §4.1's "reserve_low(32) at
// boot".
func NewSlotTable() *SlotTable {
	t := &SlotTable{}
	for i := 0; i < NumReservedSlots; i++ {
		t.slots[i].active = true
	}
	return t
}

// Bind finds the first inactive slot, marks it active, links pin to it,
// and returns its index. If pin is already bound to some slot, Bind
// returns that slot's index without modifying the table (idempotent
// re-bind of the same pin is a no-op; binding a pin to a different slot
// once already bound is not supported). Returns hal.ErrNoVectors if the
// table is saturated, a fatal boot-time condition per spec.md §7.
func (t *SlotTable) Bind(pin *Pin) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.slots {
		if t.slots[i].active && t.slots[i].pin == pin {
			return i, nil
		}
	}

	for i := NumReservedSlots; i < NumSlots; i++ {
		if !t.slots[i].active {
			t.slots[i].active = true
			t.slots[i].pin = pin
			pin.slot = i
			return i, nil
		}
	}
	return 0, hal.ErrNoVectors
}

// Lookup returns the slot at index, or false if index is out of range.
func (t *SlotTable) Lookup(index int) (*Slot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= NumSlots {
		return nil, false
	}
	return &t.slots[index], true
}

// Free reports the number of slots still available for binding.
func (t *SlotTable) Free() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for i := range t.slots {
		if !t.slots[i].active {
			n++
		}
	}
	return n
}
