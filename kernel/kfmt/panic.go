package kfmt

import (
	"github.com/Wonshtrum/CairnOS2/kernel"
	"github.com/Wonshtrum/CairnOS2/kernel/cpu"
)

var (
	// Mocked by tests.
	cpuDisableInterruptsFn = cpu.DisableInterrupts
	cpuHaltFn              = cpu.Halt

	errRuntimePanic = &kernel.Error{Module: "rt", Message: "unknown cause"}
)

// Panic masks interrupts, reports e on the active output sink and halts the
// CPU. It never returns.
//
// e may be a *kernel.Error, a Go error, a string or nil. Non-kernel values
// are reported under the "rt" module.
//
//go:redirect-from runtime.gopanic
func Panic(e interface{}) {
	cpuDisableInterruptsFn()

	err := errRuntimePanic
	switch t := e.(type) {
	case *kernel.Error:
		err = t
	case string:
		err.Message = t
	case error:
		err.Message = t.Error()
	case nil:
		err = nil
	}

	Printf("\n*** kernel panic ***\n")
	if err != nil {
		Printf("[%s] %s\n", err.Module, err.Message)
	}
	Printf("system halted\n")

	cpuHaltFn()
}

// panicString is the target for runtime.throw.
//
//go:redirect-from runtime.throw
func panicString(msg string) {
	Panic(msg)
}
