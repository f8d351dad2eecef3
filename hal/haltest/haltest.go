// Package haltest provides in-memory fakes for the hal collaborator
// interfaces, used by this module's own test suite in place of real
// hardware.
package haltest

import (
	"fmt"
	"sync"

	"github.com/iansmith/mazcore/hal"
)

// MemoryManager is a fake hal.MemoryManager backed by a flat byte slice
// standing in for physical memory; "higher half" is modeled as a fixed
// offset added to physical addresses.
type MemoryManager struct {
	mu         sync.Mutex
	HigherHalf uintptr
	PageSize   uintptr
	nextPhys   uintptr
	Limit      uintptr
	Mapped     map[uintptr]mapping
}

type mapping struct {
	phys  uintptr
	flags hal.MapFlags
	large bool
}

// NewMemoryManager creates a fake memory manager with a 4KiB page size
// and the given physical memory limit in pages.
func NewMemoryManager(pages int) *MemoryManager {
	return &MemoryManager{
		HigherHalf: 0xFFFF800000000000,
		PageSize:   4096,
		Limit:      uintptr(pages) * 4096,
		Mapped:     make(map[uintptr]mapping),
	}
}

func (m *MemoryManager) ToHigherHalf(phys uintptr) uintptr { return phys + m.HigherHalf }
func (m *MemoryManager) FromHigherHalf(virt uintptr) uintptr {
	if virt < m.HigherHalf {
		return virt
	}
	return virt - m.HigherHalf
}

func (m *MemoryManager) MapPage(flags hal.MapFlags, virt, phys uintptr, large bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Mapped[virt] = mapping{phys: phys, flags: flags, large: large}
	return nil
}

func (m *MemoryManager) UnmapPage(virt uintptr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Mapped, virt)
	return nil
}

func (m *MemoryManager) AllocPages(n int) (uintptr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	size := uintptr(n) * m.PageSize
	if m.Limit != 0 && m.nextPhys+size > m.Limit {
		return 0, hal.ErrOutOfMemory
	}
	base := m.nextPhys
	m.nextPhys += size
	return base, nil
}

// CPU is a fake hal.CPU with settable MSR storage, a core table, and an
// AST-request log for assertions.
type CPU struct {
	mu          sync.Mutex
	MSRs        map[uint32]uint64
	Enabled     bool
	ThisCore    int
	Cores       []hal.CoreInfo
	ASTRequests []int
}

// NewCPU creates a fake CPU with the given number of identical cores
// (no shared cache levels unless Cores is populated by the caller
// afterward).
func NewCPU(coreID, coreCount int) *CPU {
	cores := make([]hal.CoreInfo, coreCount)
	for i := range cores {
		cores[i] = hal.CoreInfo{ID: i}
	}
	return &CPU{
		MSRs:     make(map[uint32]uint64),
		ThisCore: coreID,
		Cores:    cores,
	}
}

func (c *CPU) RDMSR(id uint32) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.MSRs[id]
}

func (c *CPU) WRMSR(id uint32, value uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.MSRs[id] = value
}

func (c *CPU) IntrEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Enabled
}

func (c *CPU) SetIntrMode(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Enabled = enabled
}

func (c *CPU) CoreID() int    { return c.ThisCore }
func (c *CPU) CoreCount() int { return len(c.Cores) }

func (c *CPU) CoreInfo() hal.CoreInfo { return c.Cores[c.ThisCore] }

func (c *CPU) CoreInfoOf(cpu int) hal.CoreInfo { return c.Cores[cpu] }

func (c *CPU) RequestAST(cpu int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ASTRequests = append(c.ASTRequests, cpu)
}

// TrapLayer is a fake hal.TrapLayer recording registered handlers so
// tests can invoke them directly.
type TrapLayer struct {
	mu       sync.Mutex
	Handlers map[uint8]func(hal.TrapFrame)
}

func NewTrapLayer() *TrapLayer {
	return &TrapLayer{Handlers: make(map[uint8]func(hal.TrapFrame))}
}

func (t *TrapLayer) SetHandler(vector uint8, handler func(hal.TrapFrame)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Handlers[vector] = handler
}

// Fire invokes the handler registered for vector, if any.
func (t *TrapLayer) Fire(vector uint8, frame hal.TrapFrame) bool {
	t.mu.Lock()
	h := t.Handlers[vector]
	t.mu.Unlock()
	if h == nil {
		return false
	}
	h(frame)
	return true
}

// FirmwareTable is a fake hal.FirmwareTable backed by a map.
type FirmwareTable struct {
	Tables map[string][]byte
}

func NewFirmwareTable() *FirmwareTable {
	return &FirmwareTable{Tables: make(map[string][]byte)}
}

func (f *FirmwareTable) GetTable(signature string) ([]byte, bool) {
	b, ok := f.Tables[signature]
	return b, ok
}

// LogSink is a fake hal.LogSink that records formatted lines.
type LogSink struct {
	mu    sync.Mutex
	Lines []string
}

func NewLogSink() *LogSink { return &LogSink{} }

func (l *LogSink) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Lines = append(l.Lines, fmt.Sprintf(format, args...))
}
