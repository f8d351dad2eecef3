package intr

import (
	"github.com/iansmith/mazcore/hal"
)

// IA32_APIC_BASE-equivalent MSR number and its fields, per spec.md §4.2.
const (
	apicBaseMSR      = 0x1B
	apicBaseAddrMask = ^uintptr(0xFFF) // mask off low 12 bits: page alignment
	apicGlobalEnable = 1 << 11

	// defaultAPICBase is the architectural default local controller
	// physical base address; if the MSR reports something different we
	// log and adopt it rather than assume the default, per spec.md §4.2.
	defaultAPICBase = 0xFEE00000
)

// Local controller register offsets from its MMIO base. These follow
// the conventional x86 Local APIC register map (ID, spurious-interrupt
// vector, EOI, timer LVT/initial-count/current-count/divide), which is
// the concrete register layout spec.md's "local interrupt controller"
// describes in prose (MSR-derived base, bit-11 enable, spurious vector
// register with a software-enable bit and vector 0xFF, a one-shot
// timer).
const (
	lapicID          = 0x20
	lapicSpurious    = 0xF0
	lapicEOI         = 0xB0
	lapicLVTTimer    = 0x320
	lapicTimerInit   = 0x380
	lapicTimerCur    = 0x390
	lapicTimerDivide = 0x3E0

	spuriousSoftEnable = 1 << 8
	spuriousVector     = 0xFF

	lvtTimerOneShot = 0 << 17 // one-shot mode, bits 17:18 = 0
	lvtMaskBit      = 1 << 16
)

// WindowFactory maps a virtual address to a RegisterWindow for reading
// and writing its registers. Production code backs this with real MMIO
// access after hal.MemoryManager.MapPage; tests back it with a
// SimRegisterWindow.
type WindowFactory func(virt uintptr) RegisterWindow

// LocalController is the per-CPU local interrupt controller: it enables
// itself via a model-specific register, acknowledges interrupts by
// writing an EOI register, and arms a one-shot timer that drives the
// scheduler tick, per spec.md §4.2.
type LocalController struct {
	regs     RegisterWindow
	physBase uintptr
	virtBase uintptr
	enabled  bool
}

// NewLocalController initializes the local controller for the current
// CPU: it reads the base-address MSR, masks it to page alignment,
// mirrors it into the kernel's higher half, maps the page uncached, and
// enables the controller (bit 11 of the base MSR, plus the spurious
// vector register's software-enable bit and spurious vector 0xFF).
func NewLocalController(cpu hal.CPU, mm hal.MemoryManager, windowAt WindowFactory, log hal.LogSink) (*LocalController, error) {
	raw := cpu.RDMSR(apicBaseMSR)
	physBase := uintptr(raw) & apicBaseAddrMask

	if physBase != defaultAPICBase {
		if log != nil {
			log.Logf("intr: local controller base 0x%x differs from architectural default 0x%x, adopting reported base", physBase, uintptr(defaultAPICBase))
		}
	}

	virtBase := mm.ToHigherHalf(physBase)
	if err := mm.MapPage(hal.MapUncached|hal.MapWritable, virtBase, physBase, false); err != nil {
		return nil, err
	}

	lc := &LocalController{
		regs:     windowAt(virtBase),
		physBase: physBase,
		virtBase: virtBase,
	}
	lc.enable(cpu)
	return lc, nil
}

func (lc *LocalController) enable(cpu hal.CPU) {
	raw := cpu.RDMSR(apicBaseMSR)
	cpu.WRMSR(apicBaseMSR, raw|apicGlobalEnable)
	lc.regs.Write32(lapicSpurious, spuriousSoftEnable|spuriousVector)
	lc.enabled = true
}

// Enabled reports whether the controller has completed its enable
// sequence. ArmOneshot and SubmitEOI require this to be true, per
// spec.md §3's "enabled before any timer arm" invariant.
func (lc *LocalController) Enabled() bool { return lc.enabled }

// PhysBase returns the controller's physical MMIO base address.
func (lc *LocalController) PhysBase() uintptr { return lc.physBase }

// VirtBase returns the controller's higher-half virtual MMIO base
// address.
func (lc *LocalController) VirtBase() uintptr { return lc.virtBase }

// SubmitEOI writes zero to the EOI register, acknowledging the
// currently-serviced interrupt.
func (lc *LocalController) SubmitEOI() {
	if !lc.enabled {
		panic("intr: SubmitEOI before local controller enabled")
	}
	lc.regs.Write32(lapicEOI, 0)
}

// ArmOneshot programs the timer for a single shot firing vector after
// count ticks, per spec.md §4.2.
func (lc *LocalController) ArmOneshot(vector uint8, count uint32) {
	if !lc.enabled {
		panic("intr: ArmOneshot before local controller enabled")
	}
	lc.regs.Write32(lapicLVTTimer, uint32(vector)|lvtTimerOneShot)
	lc.regs.Write32(lapicTimerDivide, 0)
	lc.regs.Write32(lapicTimerInit, count)
}

// MaskTimer masks or unmasks the timer's local vector table entry
// without disturbing its configured vector.
func (lc *LocalController) MaskTimer(masked bool) {
	cur := lc.regs.Read32(lapicLVTTimer)
	if masked {
		cur |= lvtMaskBit
	} else {
		cur &^= lvtMaskBit
	}
	lc.regs.Write32(lapicLVTTimer, cur)
}

// CurrentCount reads the timer's current countdown value.
func (lc *LocalController) CurrentCount() uint32 {
	return lc.regs.Read32(lapicTimerCur)
}
