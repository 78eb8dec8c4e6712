package idt

import (
	"io"

	"github.com/Wonshtrum/CairnOS2/kernel/cpu"
	"github.com/Wonshtrum/CairnOS2/kernel/kfmt"
)

// Vector identifies an x86 exception or interrupt slot.
type Vector uint8

const (
	// DivideByZero occurs when dividing any number by 0 using the DIV or
	// IDIV instruction.
	DivideByZero = Vector(0)

	// NMI (non-maskable-interrupt) is a hardware interrupt that indicates
	// issues with RAM or unrecoverable hardware problems.
	NMI = Vector(2)

	// InvalidOpcode occurs when the CPU attempts to execute an invalid or
	// undefined instruction opcode.
	InvalidOpcode = Vector(6)

	// DoubleFault occurs when an exception is raised while the CPU is
	// dispatching another one.
	DoubleFault = Vector(8)

	// InvalidTSS occurs when a task switch references an invalid TSS.
	InvalidTSS = Vector(10)

	// SegmentNotPresent occurs when loading a selector that references a
	// descriptor with P cleared.
	SegmentNotPresent = Vector(11)

	// StackSegmentFault occurs when the stack segment limit check fails.
	StackSegmentFault = Vector(12)

	// GeneralProtection occurs on segment and privilege violations, and
	// when dispatching through a not-present gate.
	GeneralProtection = Vector(13)

	// PageFault occurs when a page translation fails.
	PageFault = Vector(14)
)

var vectorNames = [...]string{
	DivideByZero:      "divide error",
	NMI:               "non-maskable interrupt",
	InvalidOpcode:     "invalid opcode",
	DoubleFault:       "double fault",
	InvalidTSS:        "invalid TSS",
	SegmentNotPresent: "segment not present",
	StackSegmentFault: "stack-segment fault",
	GeneralProtection: "general protection",
	PageFault:         "page fault",
}

// Name returns a short description of the exception or the empty string for
// vectors without one.
func (v Vector) Name() string {
	if int(v) < len(vectorNames) {
		return vectorNames[v]
	}
	return ""
}

// Frame is the state pushed by the CPU when it enters a fault handler without
// a privilege change.
//
// Only faults push ErrorCode. When the vector is raised with INT the CPU
// pushes no error code, so every field holds the value of the one after it.
type Frame struct {
	ErrorCode uint32
	EIP       uint32
	CS        uint32
	EFlags    uint32
}

// DumpTo outputs the frame contents to w.
func (f *Frame) DumpTo(w io.Writer) {
	kfmt.Fprintf(w, "ERR = %8x\n", f.ErrorCode)
	kfmt.Fprintf(w, "EIP = %8x CS  = %8x\n", f.EIP, f.CS)
	kfmt.Fprintf(w, "EFL = %8x\n", f.EFlags)
}

// haltFn is mocked by tests.
var haltFn = cpu.Halt

// FaultHandlerAddr returns the address of the general-protection entry stub
// for use as a gate offset.
func FaultHandlerAddr() uintptr {
	return gpfEntryAddr()
}

// gpfEntry is the gate target. It passes the address of the CPU-pushed frame
// to handleGeneralProtectionFault.
func gpfEntry()

func gpfEntryAddr() uintptr

// handleGeneralProtectionFault reports a general-protection fault and halts.
// It runs with interrupts disabled on whatever stack was active when the
// fault occurred.
func handleGeneralProtectionFault(frame *Frame) {
	w := kfmt.GetOutputSink()
	kfmt.Fprintf(w, "\nGENERAL_FAULT_TRIGGERED\n")
	frame.DumpTo(w)
	haltFn()
}
