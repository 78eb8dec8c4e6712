// Package gdt builds the global descriptor table and installs it in place of
// the one set up by the boot loader.
package gdt

import (
	"unsafe"

	"github.com/Wonshtrum/CairnOS2/kernel/cpu"
	"github.com/Wonshtrum/CairnOS2/kernel/tables"
)

// Indexes of the entries in the default table.
const (
	NullIndex = iota
	KernelCodeIndex
	KernelDataIndex
	UserCodeIndex
	UserDataIndex

	// NumEntries is the number of descriptors in Table.
	NumEntries
)

// EntrySize is the size in bytes of a segment descriptor.
const EntrySize = 8

// Selectors for the entries of the default table.
const (
	KernelCode = Selector(KernelCodeIndex << 3)
	KernelData = Selector(KernelDataIndex << 3)
	UserCode   = Selector(UserCodeIndex<<3 | 3)
	UserData   = Selector(UserDataIndex<<3 | 3)
)

// Table is the kernel GDT.
type Table [NumEntries]Entry

var (
	// descriptor holds the operand of the last LGDT. It is a package-level
	// variable so its address stays valid after Load returns.
	descriptor tables.Descriptor

	loadGDTFn  = cpu.LoadGDT
	reloadCSFn = cpu.ReloadCS
	reloadDSFn = cpu.ReloadDS
	reloadSSFn = cpu.ReloadSS
	reloadESFn = cpu.ReloadES
	reloadFSFn = cpu.ReloadFS
	reloadGSFn = cpu.ReloadGS
)

// DefaultSegments returns the table installed at boot: the null descriptor,
// ring 0 code and data segments, and ring 3 code and data segments.
func DefaultSegments() Table {
	kernelCode := Entry(0).
		SetBase(0).
		SetLimit(0x80000 - 1).
		SetPresent(true).
		SetDPL(0).
		SetCodeData(true).
		SetExecutable(true).
		SetDirConform(false).
		SetReadWrite(true).
		SetAccessed(true).
		SetGranularity(true).
		SetDefaultSize(true)

	kernelData := kernelCode.SetExecutable(false)

	// The user segments start where the kernel limit ends and are not
	// marked executable.
	userCode := Entry(0).
		SetBase(0x80000 - 1).
		SetLimit(0x80000).
		SetPresent(true).
		SetDPL(3).
		SetCodeData(true).
		SetExecutable(false).
		SetDirConform(false).
		SetReadWrite(true).
		SetAccessed(true).
		SetGranularity(true).
		SetDefaultSize(true)

	userData := userCode

	return Table{0, kernelCode, kernelData, userCode, userData}
}

// Pointer returns the LGDT operand for t. The size field holds the byte
// length of the table.
func Pointer(t *Table) tables.Descriptor {
	return tables.NewDescriptor(uint16(NumEntries*EntrySize), uintptr(unsafe.Pointer(t)))
}

// Load makes t the active GDT. The CPU keeps reading descriptors from t, so
// t must point to static storage that is never modified while in use.
//
// Segment registers keep their cached descriptors until they are reloaded;
// callers must follow Load with ReloadSegments.
func Load(t *Table) {
	descriptor = Pointer(t)
	loadGDTFn(&descriptor)
}

// ReloadSegments loads code into CS and data into DS, SS, ES, FS and GS, in
// that order. Interrupts must be disabled.
func ReloadSegments(code, data Selector) {
	reloadCSFn(uint16(code))
	reloadDSFn(uint16(data))
	reloadSSFn(uint16(data))
	reloadESFn(uint16(data))
	reloadFSFn(uint16(data))
	reloadGSFn(uint16(data))
}
