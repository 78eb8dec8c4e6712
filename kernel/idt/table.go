// Package idt builds the interrupt descriptor table and reports the faults it
// routes to the kernel.
package idt

import (
	"unsafe"

	"github.com/Wonshtrum/CairnOS2/kernel/cpu"
	"github.com/Wonshtrum/CairnOS2/kernel/gdt"
	"github.com/Wonshtrum/CairnOS2/kernel/tables"
)

const (
	// NumGates is the number of vectors supported by the CPU.
	NumGates = 256

	// GateSize is the size in bytes of a gate descriptor.
	GateSize = 8
)

// Table is the kernel IDT.
type Table [NumGates]Gate

var (
	// descriptor holds the operand of the last LIDT.
	descriptor tables.Descriptor

	loadIDTFn = cpu.LoadIDT
)

// DefaultGates returns a table where every vector is absent except the
// general-protection vector, which is routed to handler through an interrupt
// gate running in the code segment selected by code.
func DefaultGates(code gdt.Selector, handler uintptr) Table {
	var t Table
	t[GeneralProtection] = Gate(0).
		SetOffset(uint32(handler)).
		SetSelector(code).
		SetPresent(true).
		SetDPL(0).
		SetType(InterruptGate)
	return t
}

// Pointer returns the LIDT operand for t. Unlike the GDT pointer, the size
// field holds the table length minus one.
func Pointer(t *Table) tables.Descriptor {
	return tables.NewDescriptor(uint16(NumGates*GateSize-1), uintptr(unsafe.Pointer(t)))
}

// Load makes t the active IDT. t must point to static storage.
func Load(t *Table) {
	descriptor = Pointer(t)
	loadIDTFn(&descriptor)
}
