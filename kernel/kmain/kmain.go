package kmain

import (
	"io"

	"github.com/Wonshtrum/CairnOS2/kernel"
	"github.com/Wonshtrum/CairnOS2/kernel/cpu"
	"github.com/Wonshtrum/CairnOS2/kernel/gdt"
	"github.com/Wonshtrum/CairnOS2/kernel/hal"
	"github.com/Wonshtrum/CairnOS2/kernel/idt"
	"github.com/Wonshtrum/CairnOS2/kernel/kfmt"
	"github.com/Wonshtrum/CairnOS2/kernel/lazy"
	"github.com/Wonshtrum/CairnOS2/kernel/pic"
	"github.com/Wonshtrum/CairnOS2/kernel/tables"
	"github.com/Wonshtrum/CairnOS2/multiboot"
)

var (
	errBadMagic    = &kernel.Error{Module: "kmain", Message: "boot loader is not multiboot compliant"}
	errNoMemoryMap = &kernel.Error{Module: "kmain", Message: "boot loader did not supply a memory map"}

	bootInfo lazy.Lazy[*multiboot.Info]

	// The descriptor tables must outlive Kmain; the CPU keeps reading
	// them after LGDT/LIDT.
	gdtCell lazy.LazyMut[gdt.Table]
	idtCell lazy.LazyMut[idt.Table]

	// The following functions are mocked by tests.
	cmdLineFn          = (*multiboot.Info).CmdLine
	apmTableFn         = (*multiboot.Info).APMTable
	initOutputFn       = hal.InitOutput
	loadGDTFn          = gdt.Load
	reloadSegmentsFn   = gdt.ReloadSegments
	loadIDTFn          = idt.Load
	enableInterruptsFn = cpu.EnableInterrupts
	raiseFaultFn       = cpu.RaiseGeneralProtection
	haltFn             = cpu.Halt
	panicFn            = kfmt.Panic
)

// platform describes the CPU state established by bringUp.
type platform struct {
	gdt    *gdt.Table
	gdtPtr tables.Descriptor
	idt    *idt.Table
	idtPtr tables.Descriptor

	masterOffset, slaveOffset uint8
	masks                     pic.Masks

	interrupts bool
}

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. This function is invoked by the rt0 assembly code
// after setting up a stack and a minimal g0 struct. It receives the address
// of the multiboot info record and the magic value left in EAX by the boot
// loader.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain(multibootInfoPtr uintptr, magic uint32) {
	if magic != multiboot.Magic {
		panicFn(errBadMagic)
		return
	}

	bootInfo.Init(multiboot.InfoFromPtr(multibootInfoPtr))
	info := bootInfo.Get()

	cfg = defaultConfig()
	if cmdLine, ok := cmdLineFn(info); ok {
		applyOptions(cmdLine)
	}

	fb, hasFB := info.Framebuffer()
	if err := initOutputFn(hal.OutputConfig{
		Framebuffer:    fb,
		HasFramebuffer: hasFB,
		PreferSerial:   cfg.preferSerial,
		SerialCRLF:     cfg.serialCRLF,
	}); err != nil {
		panicFn(err)
		return
	}

	if !info.Has(multiboot.FlagMmap) {
		panicFn(errNoMemoryMap)
		return
	}

	p := bringUp(&cfg)
	report(kfmt.GetOutputSink(), info, &p)

	// The fault handler prints its own report and never returns.
	if cfg.faultTest {
		kfmt.Printf("[kmain] raising general protection fault\n")
		raiseFaultFn()
	}

	kfmt.Printf("[kmain] boot complete, halting\n")
	haltFn()
}

// bringUp installs the kernel GDT and IDT and remaps the PIC. The returned
// platform refers to the installed tables.
func bringUp(cfg *bootConfig) platform {
	gdtCell.Init(gdt.DefaultSegments())
	gdtTable := gdtCell.GetMut()
	loadGDTFn(gdtTable)
	reloadSegmentsFn(gdt.KernelCode, gdt.KernelData)

	idtCell.Init(idt.DefaultGates(gdt.KernelCode, idt.FaultHandlerAddr()))
	idtTable := idtCell.GetMut()
	loadIDTFn(idtTable)

	masterOffset, slaveOffset := cfg.masterOffset, cfg.slaveOffset
	if err := pic.CheckOffsets(masterOffset, slaveOffset); err != nil {
		kfmt.Printf("[kmain] pic offsets 0x%2x/0x%2x rejected: %s; using defaults\n", masterOffset, slaveOffset, err.Message)
		masterOffset, slaveOffset = pic.DefaultMasterOffset, pic.DefaultSlaveOffset
	}
	pic.Remap(masterOffset, slaveOffset)

	if cfg.enableInterrupts {
		routeIRQs(idtTable, masterOffset, slaveOffset)
		enableInterruptsFn()
	}

	return platform{
		gdt:          gdtTable,
		gdtPtr:       gdt.Pointer(gdtTable),
		idt:          idtTable,
		idtPtr:       idt.Pointer(idtTable),
		masterOffset: masterOffset,
		slaveOffset:  slaveOffset,
		masks:        pic.ReadMasks(),
		interrupts:   cfg.enableInterrupts,
	}
}

// routeIRQs unmasks the IRQ lines whose vector has a gate in t and masks the
// rest. The cascade line is opened if any slave line is routed.
func routeIRQs(t *idt.Table, masterOffset, slaveOffset uint8) {
	var slaveRouted bool

	for irq := uint8(0); irq < pic.NumIRQs; irq++ {
		vector := masterOffset + irq
		if irq >= 8 {
			vector = slaveOffset + irq - 8
		}

		if !t[vector].Present() {
			pic.MaskIRQ(irq)
			continue
		}

		pic.UnmaskIRQ(irq)
		if irq >= 8 {
			slaveRouted = true
		}
	}

	if slaveRouted {
		pic.UnmaskIRQ(pic.CascadeIRQ)
	}
}

// report prints the state established by bringUp and a summary of the boot
// record to w.
func report(w io.Writer, info *multiboot.Info, p *platform) {
	kfmt.Fprintf(w, "[kmain] gdt at 0x%8x size %d\n", p.gdtPtr.Offset(), p.gdtPtr.Size)
	for index, entry := range p.gdt {
		if !entry.Present() {
			continue
		}
		kfmt.Fprintf(w, "[kmain]   %d sel 0x%2x raw 0x%16x base 0x%8x limit 0x%5x access 0x%2x flags 0x%x dpl %d\n",
			index,
			uint16(gdt.NewSelector(uint16(index), false, entry.DPL())),
			uint64(entry),
			entry.Base(),
			entry.Limit(),
			entry.AccessByte(),
			entry.Flags(),
			entry.DPL(),
		)
	}

	kfmt.Fprintf(w, "[kmain] idt at 0x%8x size %d\n", p.idtPtr.Offset(), p.idtPtr.Size)
	for vector, gate := range p.idt {
		if !gate.Present() {
			continue
		}
		kfmt.Fprintf(w, "[kmain]   %3d %s handler 0x%8x sel 0x%2x type 0x%x\n",
			vector,
			idt.Vector(vector).Name(),
			gate.Offset(),
			uint16(gate.Selector()),
			uint8(gate.Type()),
		)
	}

	kfmt.Fprintf(w, "[kmain] pic master 0x%2x mask 0x%2x slave 0x%2x mask 0x%2x\n",
		p.masterOffset, p.masks.Master, p.slaveOffset, p.masks.Slave)
	kfmt.Fprintf(w, "[kmain] interrupts enabled: %t\n", p.interrupts)

	kfmt.Fprintf(w, "[kmain] multiboot flags 0x%8x\n", info.Flags())
	reportBootInfo(w, info)
}

// reportBootInfo prints one line per field group present in the boot record.
func reportBootInfo(w io.Writer, info *multiboot.Info) {
	if lower, upper, ok := info.Mem(); ok {
		kfmt.Fprintf(w, "[kmain] memory: %d KiB lower, %d KiB upper\n", lower, upper)
	}
	if dev, ok := info.BootDevice(); ok {
		kfmt.Fprintf(w, "[kmain] boot device: drive 0x%2x partitions %d/%d/%d\n",
			uint8(dev>>24), uint8(dev>>16), uint8(dev>>8), uint8(dev))
	}
	if cmdLine, ok := cmdLineFn(info); ok {
		kfmt.Fprintf(w, "[kmain] cmdline: %s\n", cmdLine)
	}
	if count, addr, ok := info.Mods(); ok {
		kfmt.Fprintf(w, "[kmain] mods: %d at 0x%8x\n", count, addr)
	}
	if syms, ok := info.Symbols(); ok {
		switch syms.Format {
		case multiboot.SymbolsAOut:
			kfmt.Fprintf(w, "[kmain] syms: a.out tabsize %d strsize %d at 0x%8x\n", syms.Num, syms.Size, syms.Addr)
		case multiboot.SymbolsELF:
			kfmt.Fprintf(w, "[kmain] syms: elf %d sections of %d bytes at 0x%8x shndx %d\n", syms.Num, syms.Size, syms.Addr, syms.Shndx)
		}
	}
	info.VisitMemRegions(func(entry *multiboot.MemoryMapEntry) bool {
		kfmt.Fprintf(w, "[kmain] mmap 0x%16x len 0x%16x %s\n", entry.PhysAddress(), entry.Length(), entry.Type.String())
		return true
	})
	if length, addr, ok := info.Drives(); ok {
		kfmt.Fprintf(w, "[kmain] drives: %d bytes at 0x%8x\n", length, addr)
	}
	if addr, ok := info.ConfigTable(); ok {
		kfmt.Fprintf(w, "[kmain] config table at 0x%8x\n", addr)
	}
	if name, ok := info.BootLoaderName(); ok {
		kfmt.Fprintf(w, "[kmain] boot loader: %s\n", name)
	}
	if apm, ok := apmTableFn(info); ok {
		kfmt.Fprintf(w, "[kmain] apm: version 0x%4x cseg 0x%4x offset 0x%8x dseg 0x%4x flags 0x%4x\n",
			apm.Version, apm.CSeg, apm.Offset, apm.DSeg, apm.Flags)
	}
	if vbe, ok := info.VBE(); ok {
		kfmt.Fprintf(w, "[kmain] vbe: mode 0x%4x control 0x%8x mode info 0x%8x interface %4x:%4x len %d\n",
			vbe.Mode, vbe.ControlInfo, vbe.ModeInfo, vbe.InterfaceSeg, vbe.InterfaceOff, vbe.InterfaceLen)
	}
	if fb, ok := info.Framebuffer(); ok {
		kfmt.Fprintf(w, "[kmain] framebuffer: 0x%8x %dx%d pitch %d bpp %d type %d\n",
			fb.PhysAddr, fb.Width, fb.Height, fb.Pitch, fb.Bpp, uint8(fb.Type))
	}
}
