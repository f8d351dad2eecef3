package mazcore

import (
	"fmt"

	"github.com/iansmith/mazcore/hal"
	"github.com/iansmith/mazcore/intr"
	"github.com/iansmith/mazcore/klog"
	"github.com/iansmith/mazcore/sched"
)

// Kernel owns the booted scheduler and interrupt-routing state built
// by Init.
type Kernel struct {
	deps   Deps
	log    *klog.Logger
	cfg    hal.BootConfig
	slots  *intr.SlotTable
	router *intr.Router
	ioctrl []*intr.IOController
	local  []*intr.LocalController // indexed by CPU; nil until its controller is brought up
	sched  *sched.Scheduler
}

// Scheduler exposes the underlying scheduler for collaborators that
// need to create and hand it runnable threads (e.g. a thread-creation
// subsystem outside this module's scope).
func (k *Kernel) Scheduler() *sched.Scheduler { return k.sched }

// Init runs the boot-time sequence of spec.md §6: decode boot
// parameters, build the scheduler, bring up the boot CPU's local
// controller and idle thread, parse the firmware's MADT-like table and
// construct every I/O controller it describes, register the timer trap
// handler, arm the first one-shot, and enable interrupts. Mirrors the teacher's own KernelMain boot log: one
// human-readable line per step.
func Init(deps Deps) (*Kernel, error) {
	log := klog.New(deps.Log, "mazcore", klog.LevelInfo)
	log.Infof("booting")

	cfg := hal.DefaultBootConfig()
	cpuCount := deps.CPU.CoreCount()
	if deps.BootParams != nil {
		cfg = hal.DecodeBootParams(deps.BootParams)
		// CPUCount only overrides the hardware-reported count when boot
		// params actually named one; DefaultBootConfig's own CPUCount=1
		// is just "assume one CPU until told otherwise" and must not
		// silently shrink a real multi-core report.
		if int(cfg.CPUCount) > 0 && int(cfg.CPUCount) < cpuCount {
			cpuCount = int(cfg.CPUCount)
		}
	}

	sched.Hz = uint64(cfg.HZ)
	sched.Affinity = uint64(cfg.Affinity)

	k := &Kernel{
		deps:   deps,
		log:    log,
		cfg:    cfg,
		slots:  intr.NewSlotTable(),
		router: intr.NewRouter(),
		local:  make([]*intr.LocalController, cpuCount),
		sched:  sched.NewScheduler(deps.CPU, deps.Log, cpuCount),
	}

	bootCPU := deps.CPU.CoreID()
	log.Infof("bringing up local controller on boot cpu %d", bootCPU)
	if err := k.bringUpLocalController(bootCPU); err != nil {
		return nil, err
	}

	log.Infof("parsing firmware interrupt table")
	table, ok := deps.Firmware.GetTable("APIC")
	if !ok {
		return nil, hal.ErrNoFirmwareTable
	}
	descs := intr.ParseMADT(table)
	log.Infof("found %d i/o controller(s)", len(descs))

	for _, d := range descs {
		if err := k.addIOController(d, bootCPU); err != nil {
			return nil, err
		}
	}
	intr.SetDefaultRouter(k.router)

	log.Infof("registering timer trap handler on vector %d", deps.TimerVector)
	deps.Traps.SetHandler(deps.TimerVector, k.Reschedule)

	log.Infof("arming first tick, period=%d", deps.TimerPeriod)
	k.local[bootCPU].ArmOneshot(deps.TimerVector, deps.TimerPeriod)

	log.Infof("enabling interrupts")
	deps.CPU.SetIntrMode(true)

	return k, nil
}

// InitAP brings up a secondary CPU's local controller and idle thread
// after Init has built the shared slot table and I/O controllers. It
// must run on cpuIdx itself, since the local controller's MSR access
// always targets whichever core is currently executing.
func (k *Kernel) InitAP(cpuIdx int) error {
	if err := k.bringUpLocalController(cpuIdx); err != nil {
		return err
	}
	k.local[cpuIdx].ArmOneshot(k.deps.TimerVector, k.deps.TimerPeriod)
	return nil
}

func (k *Kernel) bringUpLocalController(cpuIdx int) error {
	lc, err := intr.NewLocalController(k.deps.CPU, k.deps.Memory, k.deps.LAPICWindow, k.deps.Log)
	if err != nil {
		return err
	}
	k.local[cpuIdx] = lc

	idle := sched.NewThread(fmt.Sprintf("idle/%d", cpuIdx), sched.ClassIdle, sched.PriMaxIdle)
	k.sched.SetIdleThread(cpuIdx, idle)

	q := k.sched.Queue(cpuIdx)
	idle.State = sched.StateRunning
	idle.CPU = cpuIdx
	idle.Lock = &q.Lock
	idle.CritNest = 1
	q.Current = idle
	return nil
}

func (k *Kernel) addIOController(d intr.IOControllerDesc, cpuIdx int) error {
	virt := k.deps.Memory.ToHigherHalf(uintptr(d.MMIOBase))
	if err := k.deps.Memory.MapPage(hal.MapUncached|hal.MapWritable, virt, uintptr(d.MMIOBase), false); err != nil {
		return err
	}

	regs := k.deps.IOAPICWindow(d.MMIOBase)
	c := intr.NewIOController(regs, int(d.GSIBase), k.local[cpuIdx], k.slots)
	k.ioctrl = append(k.ioctrl, c)
	k.router.Add(c)
	return nil
}
