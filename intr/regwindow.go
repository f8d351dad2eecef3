package intr

import "encoding/binary"

// RegisterWindow is a 32-bit-addressable MMIO register window. It stands
// in for the direct pointer dereference a real kernel performs after
// hal.MemoryManager.MapPage maps a device's registers uncached into the
// address space: callers obtain a RegisterWindow for a mapped region and
// use it instead of raw unsafe.Pointer arithmetic, which keeps the
// register-level protocol (GICC_EOIR-style single-register writes, the
// IOAPIC's indirect index/data pair) testable without real hardware.
type RegisterWindow interface {
	Read32(offset uintptr) uint32
	Write32(offset uintptr, value uint32)
}

// SimRegisterWindow is a RegisterWindow backed by a plain byte slice,
// used by tests and by any host that simulates device registers rather
// than mapping real MMIO. Grounded on the byte-slice-plus-
// encoding/binary MMIO read/write pattern in the IOAPIC device model
// under other_examples (tinyrange-cc's ReadMMIO/WriteMMIO).
type SimRegisterWindow struct {
	mem []byte
}

// NewSimRegisterWindow allocates a simulated register window of size
// bytes, zero-initialized.
func NewSimRegisterWindow(size int) *SimRegisterWindow {
	return &SimRegisterWindow{mem: make([]byte, size)}
}

func (w *SimRegisterWindow) Read32(offset uintptr) uint32 {
	if int(offset)+4 > len(w.mem) {
		return 0
	}
	return binary.LittleEndian.Uint32(w.mem[offset:])
}

func (w *SimRegisterWindow) Write32(offset uintptr, value uint32) {
	if int(offset)+4 > len(w.mem) {
		return
	}
	binary.LittleEndian.PutUint32(w.mem[offset:], value)
}
