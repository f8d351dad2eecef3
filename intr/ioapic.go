package intr

import (
	"fmt"

	"github.com/iansmith/mazcore/bitfield"
	"github.com/iansmith/mazcore/hal"
)

// Register offsets for the indirect-addressed I/O controller register
// window, per spec.md §4.3 and §6: the register index is selected by a
// write to offset 0, and the data word is read/written at offset 0x10.
// Redirection entries live at 0x10 + 2*n (low half only used here,
// matching spec.md's binary layout; the high half, used on real
// hardware for destination routing, is outside this module's scope).
const (
	ioRegSelOffset = 0x00
	ioWinOffset    = 0x10
	ioRegID        = 0x00
	ioRegVersion   = 0x01
	ioRegRedirBase = 0x10
)

// redirEntry is the low word of one redirection table entry, tagged
// for bitfield.Pack/Unpack in declaration order, least-significant
// field first. The gaps cover delivery mode/destination mode/delivery
// status (bits 8-12) and remote IRR (bit 14), which this module never
// inspects or sets.
type redirEntry struct {
	Vector   uint8 `bitfield:",8"`
	_        uint8 `bitfield:",5"`
	Polarity bool  `bitfield:",1"` // 1 = active-low
	_        bool  `bitfield:",1"`
	Trigger  bool  `bitfield:",1"` // 1 = level
	Masked   bool  `bitfield:",1"`
}

// TriggerMode is the resolved trigger mode reported by Pin.Configure.
type TriggerMode int

const (
	TriggerEdge TriggerMode = iota
	TriggerLevel
)

func (m TriggerMode) String() string {
	if m == TriggerLevel {
		return "level"
	}
	return "edge"
}

// IOController models one I/O interrupt controller discovered from the
// firmware table: it owns a contiguous range of global system
// interrupts and a contiguous set of hardware pins, and exposes
// per-pin mask/unmask, EOI delegation to the local controller, and
// trigger-mode/polarity configuration.
type IOController struct {
	regs    RegisterWindow
	gsiBase int
	pins    []*Pin
	local   *LocalController
	slots   *SlotTable
}

// IOControllerDesc describes one I/O controller entry discovered from
// the MADT-like firmware table, per spec.md §6's type-1 record layout.
type IOControllerDesc struct {
	ID       uint8
	MMIOBase uint32
	GSIBase  uint32
}

// NewIOController takes a register window (regs) that the caller has
// already mapped with hal.MemoryManager.MapPage, and materializes
// PinCount pin objects, derived from the version
// register, appending every one of them to the controller's pin list.
// This fixes the open question flagged in spec.md §9: the teacher's
// per-controller pin setup built pins without appending them to the
// controller's own list, which would leave mask/eoi/configure unable to
// find any of them afterward.
func NewIOController(regs RegisterWindow, gsiBase int, local *LocalController, slots *SlotTable) *IOController {
	c := &IOController{regs: regs, gsiBase: gsiBase, local: local, slots: slots}

	version := c.readRegister(ioRegVersion)
	pinCount := int((version>>16)&0xFF) + 1

	c.pins = make([]*Pin, 0, pinCount)
	for i := 0; i < pinCount; i++ {
		pin := &Pin{
			owner: c,
			index: i,
			name:  fmt.Sprintf("ioapic-gsi%d", gsiBase+i),
			slot:  -1,
		}
		c.pins = append(c.pins, pin)
	}
	return c
}

// GSIBase returns the first global system interrupt this controller
// owns.
func (c *IOController) GSIBase() int { return c.gsiBase }

// PinCount returns the number of pins this controller owns.
func (c *IOController) PinCount() int { return len(c.pins) }

// Pins returns the controller's pin list, in GSI order.
func (c *IOController) Pins() []*Pin { return c.pins }

// PinForGSI returns the pin owning the given global system interrupt,
// if it falls within this controller's range.
func (c *IOController) PinForGSI(gsi int) (*Pin, bool) {
	idx := gsi - c.gsiBase
	if idx < 0 || idx >= len(c.pins) {
		return nil, false
	}
	return c.pins[idx], true
}

// OverlapsRange reports whether [c.gsiBase, c.gsiBase+PinCount) overlaps
// [otherBase, otherBase+otherCount), violating the non-overlap invariant
// of spec.md §3.
func (c *IOController) OverlapsRange(otherBase, otherCount int) bool {
	aStart, aEnd := c.gsiBase, c.gsiBase+len(c.pins)
	bStart, bEnd := otherBase, otherBase+otherCount
	return aStart < bEnd && bStart < aEnd
}

func (c *IOController) readRegister(idx uint32) uint32 {
	c.regs.Write32(ioRegSelOffset, idx)
	return c.regs.Read32(ioWinOffset)
}

func (c *IOController) writeRegister(idx uint32, val uint32) {
	c.regs.Write32(ioRegSelOffset, idx)
	c.regs.Write32(ioWinOffset, val)
}

func (c *IOController) redirOffset(pinIndex int) uintptr {
	return ioRegRedirBase + uintptr(2*pinIndex)
}

func (c *IOController) readRedir(pinIndex int) uint32 {
	return c.readRegister(uint32(c.redirOffset(pinIndex)))
}

func (c *IOController) writeRedir(pinIndex int, val uint32) {
	c.writeRegister(uint32(c.redirOffset(pinIndex)), val)
}

// mask sets or clears the pin's mask bit (bit 16 of the redirection
// entry low word).
func (c *IOController) mask(pinIndex int, masked bool) {
	var e redirEntry
	if err := bitfield.Unpack(uint64(c.readRedir(pinIndex)), &e); err != nil {
		panic(err)
	}
	e.Masked = masked
	c.writeRedir(pinIndex, c.packRedir(&e))
}

func (c *IOController) packRedir(e *redirEntry) uint32 {
	packed, err := bitfield.Pack(e, &bitfield.Config{NumBits: 32})
	if err != nil {
		panic(err)
	}
	return uint32(packed)
}

// configure chooses trigger/polarity flags, acquires a free slot as the
// vector, and writes flags|vector to the redirection entry. Per
// spec.md §5, the pin must be masked and the slot lock held while
// searching for a free vector; the slot table's own lock provides the
// latter.
func (c *IOController) configure(pin *Pin, level, highPolarity bool) (TriggerMode, error) {
	slotIndex, err := c.slots.Bind(pin)
	if err != nil {
		return TriggerEdge, hal.ErrInvalidRedirection
	}
	pin.slot = slotIndex

	mode := TriggerEdge
	if level {
		mode = TriggerLevel
	}

	e := redirEntry{
		Vector:   uint8(slotIndex),
		Polarity: !highPolarity,
		Trigger:  level,
		Masked:   true,
	}
	c.writeRedir(pin.index, c.packRedir(&e))

	pin.masked = true
	pin.configured = true
	return mode, nil
}

// eoi delegates end-of-interrupt handling to the bound local
// controller, per spec.md §4.3.
func (c *IOController) eoi() {
	c.local.SubmitEOI()
}
