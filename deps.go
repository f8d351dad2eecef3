// Package mazcore wires the intr and sched packages together into a
// bootable kernel component: it brings up the interrupt-routing
// substrate and the per-CPU scheduler, registers the timer trap
// handler, and exposes Reschedule as the vector handler that drives
// every subsequent clock tick and context switch, per spec.md §6.
package mazcore

import (
	"github.com/iansmith/mazcore/hal"
	"github.com/iansmith/mazcore/intr"
)

// Deps bundles every external collaborator and boot-time knob Init
// needs, per spec.md §6's external-interfaces list plus the boot
// parameters SPEC_FULL.md §2 adds.
type Deps struct {
	CPU      hal.CPU
	Memory   hal.MemoryManager
	Traps    hal.TrapLayer
	Firmware hal.FirmwareTable
	Log      hal.LogSink

	// LAPICWindow maps the local controller's mapped virtual address to
	// a RegisterWindow.
	LAPICWindow intr.WindowFactory
	// IOAPICWindow maps one I/O controller's physical MMIO base to a
	// RegisterWindow, after Init has mapped it uncached.
	IOAPICWindow func(mmioBase uint32) intr.RegisterWindow

	// TimerVector is the slot-table index the local controller's timer
	// fires on; it must fall within intr.NumReservedSlots.
	TimerVector uint8
	// TimerPeriod is the countdown value handed to every ArmOneshot call.
	TimerPeriod uint32
	// BootParams is an optional boot-parameter blob decoded with
	// hal.DecodeBootParams; nil uses hal.DefaultBootConfig.
	BootParams []byte
}
