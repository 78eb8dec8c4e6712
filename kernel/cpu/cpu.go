// Package cpu exposes the x86 instructions required for taking over
// segmentation and interrupt dispatch from the boot loader. Every routine
// declared without a body is implemented in assembly.
package cpu

import "github.com/Wonshtrum/CairnOS2/kernel/tables"

// EnableInterrupts enables interrupt handling.
func EnableInterrupts()

// DisableInterrupts disables interrupt handling.
func DisableInterrupts()

// Halt stops instruction execution.
func Halt()

// PortWriteByte writes a uint8 value to the requested port.
func PortWriteByte(port uint16, val uint8)

// PortReadByte reads a uint8 value from the requested port.
func PortReadByte(port uint16) uint8

// LoadGDT installs the segment descriptor table described by desc (LGDT).
// The CPU keeps using the table memory after this call returns, so both desc
// and the table it points to must live in static storage.
func LoadGDT(desc *tables.Descriptor)

// LoadIDT installs the gate descriptor table described by desc (LIDT). The
// same lifetime requirements as LoadGDT apply.
func LoadIDT(desc *tables.Descriptor)

// ReloadCS switches the code segment register to selector. CS cannot be the
// target of a MOV, so the new selector and the address of the instruction
// following the call are pushed to the stack and popped by a far return.
func ReloadCS(selector uint16)

// ReloadDS loads selector into DS.
func ReloadDS(selector uint16)

// ReloadSS loads selector into SS. Interrupts must be disabled.
func ReloadSS(selector uint16)

// ReloadES loads selector into ES.
func ReloadES(selector uint16)

// ReloadFS loads selector into FS.
func ReloadFS(selector uint16)

// ReloadGS loads selector into GS.
func ReloadGS(selector uint16)

// RaiseGeneralProtection executes INT 13, dispatching through the
// general-protection gate of the active IDT.
func RaiseGeneralProtection()

// farReturn executes RETF. It is only reached through the CALL in ReloadCS.
func farReturn()
