// Package multiboot provides access to the boot information record that a
// Multiboot (version 1) compliant loader passes to the kernel.
//
// Every field group of the record is only valid when the loader sets the
// matching bit in the flags word; the accessors below report absent groups
// instead of returning whatever bytes happen to be there.
package multiboot

import (
	"math"
	"unsafe"
)

// Magic is the value a Multiboot loader leaves in EAX when it jumps to the
// kernel entry point.
const Magic = 0x2badb002

// Flag is a bit of the info record flags word.
type Flag uint32

// The flag bits defined by the Multiboot specification.
const (
	FlagMem Flag = 1 << iota
	FlagBootDevice
	FlagCmdLine
	FlagMods
	FlagAOutSyms
	FlagELFSections
	FlagMmap
	FlagDrives
	FlagConfigTable
	FlagBootLoaderName
	FlagAPMTable
	FlagVBE
	FlagFramebuffer
)

// Info is an overlay for the boot information record. It is never built by
// the kernel; a pointer to it is obtained from the address supplied by the
// loader.
type Info struct {
	flags          uint32
	memLower       uint32
	memUpper       uint32
	bootDevice     uint32
	cmdLine        uint32
	modsCount      uint32
	modsAddr       uint32
	syms           [4]uint32
	mmapLength     uint32
	mmapAddr       uint32
	drivesLength   uint32
	drivesAddr     uint32
	configTable    uint32
	bootLoaderName uint32
	apmTable       uint32

	vbeControlInfo  uint32
	vbeModeInfo     uint32
	vbeMode         uint16
	vbeInterfaceSeg uint16
	vbeInterfaceOff uint16
	vbeInterfaceLen uint16

	framebufferAddr   uint64
	framebufferPitch  uint32
	framebufferWidth  uint32
	framebufferHeight uint32
	framebufferBpp    uint8
	framebufferType   FramebufferType
	colorInfo         [5]uint8
}

// The record is packed; the only 64-bit field must land at its natural
// offset for the overlay to match on both 386 and amd64.
var _ = [1]struct{}{}[unsafe.Offsetof(Info{}.framebufferAddr)-88]

// physToPtrFn converts a physical address found in the record to a pointer.
// Paging is never enabled so physical addresses are identity mapped. Tests
// replace it to point into host buffers.
var physToPtrFn = func(phys uint32) unsafe.Pointer {
	return unsafe.Pointer(uintptr(phys))
}

// InfoFromPtr returns the record located at the address passed by the loader.
func InfoFromPtr(ptr uintptr) *Info {
	return (*Info)(unsafe.Pointer(ptr))
}

// Flags returns the raw flags word.
func (i *Info) Flags() uint32 {
	return i.flags
}

// Has reports whether the field group guarded by f is present.
func (i *Info) Has(f Flag) bool {
	return i.flags&uint32(f) != 0
}

// Mem returns the amount of lower (below 1 MiB) and upper (above 1 MiB)
// memory in KiB.
func (i *Info) Mem() (lower, upper uint32, ok bool) {
	if !i.Has(FlagMem) {
		return 0, 0, false
	}
	return i.memLower, i.memUpper, true
}

// BootDevice returns the BIOS drive and partition the kernel was loaded from.
func (i *Info) BootDevice() (uint32, bool) {
	if !i.Has(FlagBootDevice) {
		return 0, false
	}
	return i.bootDevice, true
}

// CmdLine returns the kernel command line. The returned string aliases the
// loader-provided buffer.
func (i *Info) CmdLine() (string, bool) {
	if !i.Has(FlagCmdLine) || i.cmdLine == 0 {
		return "", false
	}
	return cString(i.cmdLine), true
}

// Mods returns the number of boot modules and the address of the first module
// descriptor.
func (i *Info) Mods() (count, addr uint32, ok bool) {
	if !i.Has(FlagMods) {
		return 0, 0, false
	}
	return i.modsCount, i.modsAddr, true
}

// SymbolFormat describes the kind of symbol information passed by the loader.
type SymbolFormat uint8

const (
	// SymbolsAOut describes an a.out symbol table.
	SymbolsAOut SymbolFormat = iota + 1

	// SymbolsELF describes an ELF section header table.
	SymbolsELF
)

// Symbols holds the symbol information of the kernel image. For a.out
// images Num, Size and Addr hold tabsize, strsize and addr and Shndx is
// unused.
type Symbols struct {
	Format SymbolFormat
	Num    uint32
	Size   uint32
	Addr   uint32
	Shndx  uint32
}

// Symbols returns the kernel symbol information. The a.out and ELF bits are
// mutually exclusive; a record with both set is treated as having neither.
func (i *Info) Symbols() (Symbols, bool) {
	s := Symbols{Num: i.syms[0], Size: i.syms[1], Addr: i.syms[2]}
	switch {
	case i.Has(FlagAOutSyms) && !i.Has(FlagELFSections):
		s.Format = SymbolsAOut
	case i.Has(FlagELFSections) && !i.Has(FlagAOutSyms):
		s.Format = SymbolsELF
		s.Shndx = i.syms[3]
	default:
		return Symbols{}, false
	}
	return s, true
}

// Drives returns the length and address of the drive descriptor list.
func (i *Info) Drives() (length, addr uint32, ok bool) {
	if !i.Has(FlagDrives) {
		return 0, 0, false
	}
	return i.drivesLength, i.drivesAddr, true
}

// ConfigTable returns the address of the BIOS configuration table.
func (i *Info) ConfigTable() (uint32, bool) {
	if !i.Has(FlagConfigTable) {
		return 0, false
	}
	return i.configTable, true
}

// BootLoaderName returns the name of the boot loader.
func (i *Info) BootLoaderName() (string, bool) {
	if !i.Has(FlagBootLoaderName) || i.bootLoaderName == 0 {
		return "", false
	}
	return cString(i.bootLoaderName), true
}

// APMTable describes the Advanced Power Management BIOS interface.
type APMTable struct {
	Version   uint16
	CSeg      uint16
	Offset    uint32
	CSeg16    uint16
	DSeg      uint16
	Flags     uint16
	CSegLen   uint16
	CSeg16Len uint16
	DSegLen   uint16
}

var _ = [1]struct{}{}[unsafe.Sizeof(APMTable{})-20]

// APMTable returns the APM table supplied by the loader.
func (i *Info) APMTable() (*APMTable, bool) {
	if !i.Has(FlagAPMTable) || i.apmTable == 0 {
		return nil, false
	}
	return (*APMTable)(physToPtrFn(i.apmTable)), true
}

// VBEInfo describes the VESA BIOS Extensions state set up by the loader.
type VBEInfo struct {
	ControlInfo  uint32
	ModeInfo     uint32
	Mode         uint16
	InterfaceSeg uint16
	InterfaceOff uint16
	InterfaceLen uint16
}

// VBE returns the VBE information block.
func (i *Info) VBE() (VBEInfo, bool) {
	if !i.Has(FlagVBE) {
		return VBEInfo{}, false
	}
	return VBEInfo{
		ControlInfo:  i.vbeControlInfo,
		ModeInfo:     i.vbeModeInfo,
		Mode:         i.vbeMode,
		InterfaceSeg: i.vbeInterfaceSeg,
		InterfaceOff: i.vbeInterfaceOff,
		InterfaceLen: i.vbeInterfaceLen,
	}, true
}

// FramebufferType defines the type of the initialized framebuffer.
type FramebufferType uint8

const (
	// FramebufferTypeIndexed specifies a 256-color palette.
	FramebufferTypeIndexed FramebufferType = iota

	// FramebufferTypeRGB specifies direct RGB mode.
	FramebufferTypeRGB

	// FramebufferTypeEGA specifies EGA text mode.
	FramebufferTypeEGA
)

// FramebufferInfo provides information about the initialized framebuffer.
type FramebufferInfo struct {
	// The framebuffer physical address.
	PhysAddr uint32

	// Row pitch in bytes.
	Pitch uint32

	// Width and height in pixels (or characters if Type = FramebufferTypeEGA)
	Width, Height uint32

	// Bits per pixel (non EGA modes only).
	Bpp uint8

	// Framebuffer type.
	Type FramebufferType
}

// Framebuffer returns information about the framebuffer initialized by the
// loader. Framebuffers located above 4 GiB cannot be addressed in protected
// mode and are reported as absent.
func (i *Info) Framebuffer() (FramebufferInfo, bool) {
	if !i.Has(FlagFramebuffer) || i.framebufferAddr >= math.MaxUint32 {
		return FramebufferInfo{}, false
	}
	return FramebufferInfo{
		PhysAddr: uint32(i.framebufferAddr),
		Pitch:    i.framebufferPitch,
		Width:    i.framebufferWidth,
		Height:   i.framebufferHeight,
		Bpp:      i.framebufferBpp,
		Type:     i.framebufferType,
	}, true
}

// cString returns a string aliasing the NUL-terminated byte sequence at phys.
func cString(phys uint32) string {
	base := physToPtrFn(phys)

	var n uintptr
	for *(*byte)(unsafe.Add(base, n)) != 0 {
		n++
	}

	return unsafe.String((*byte)(base), int(n))
}
