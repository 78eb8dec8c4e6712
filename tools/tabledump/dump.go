package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Wonshtrum/CairnOS2/kernel/gdt"
	"github.com/Wonshtrum/CairnOS2/kernel/idt"
	"github.com/Wonshtrum/CairnOS2/kernel/tables"
)

// parseUint parses a decimal or 0x-prefixed hexadecimal value that fits in
// bits bits.
func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return v, nil
}

// parseRaw parses a descriptor given as 16 hex digits, with or without a 0x
// prefix.
func parseRaw(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid descriptor %q: %w", s, err)
	}
	return v, nil
}

func dumpPointer(w io.Writer, desc tables.Descriptor) {
	b := desc.Bytes()
	fmt.Fprintf(w, "pointer: size %d offset 0x%08x bytes % x\n", desc.Size, desc.Offset(), b[:])
}

func dumpSegment(w io.Writer, index int, e gdt.Entry) {
	kind := "data"
	if e.Executable() {
		kind = "code"
	}
	if !e.Present() {
		kind = "-"
	}

	fmt.Fprintf(w, "%d sel=0x%02x raw=0x%016x base=0x%08x limit=0x%05x access=0x%02x flags=0x%x dpl=%d %s\n",
		index,
		uint16(gdt.NewSelector(uint16(index), false, e.DPL())),
		uint64(e),
		e.Base(),
		e.Limit(),
		e.AccessByte(),
		e.Flags(),
		e.DPL(),
		kind,
	)
}

func dumpGate(w io.Writer, vector int, g idt.Gate, name string) {
	if name == "" {
		name = "-"
	}

	fmt.Fprintf(w, "%d raw=0x%016x offset=0x%08x sel=0x%02x type=%s present=%t dpl=%d (%s)\n",
		vector,
		uint64(g),
		g.Offset(),
		uint16(g.Selector()),
		gateTypeName(g.Type()),
		g.Present(),
		g.DPL(),
		name,
	)
}

func gateTypeName(typ idt.GateType) string {
	switch typ {
	case idt.TaskGate:
		return "task"
	case idt.InterruptGate:
		return "interrupt"
	case idt.TrapGate:
		return "trap"
	default:
		return fmt.Sprintf("0x%x", uint8(typ))
	}
}

// dumpGDT prints every entry of t followed by the pointer that would load it
// from base.
func dumpGDT(w io.Writer, t *gdt.Table, base uint32) {
	for index, e := range t {
		dumpSegment(w, index, e)
	}
	dumpPointer(w, tables.NewDescriptor(gdt.Pointer(t).Size, uintptr(base)))
}

// dumpIDT prints the present gates of t followed by the pointer that would
// load it from base.
func dumpIDT(w io.Writer, t *idt.Table, base uint32) {
	for vector, g := range t {
		if g == 0 {
			continue
		}
		dumpGate(w, vector, g, idt.Vector(vector).Name())
	}
	dumpPointer(w, tables.NewDescriptor(idt.Pointer(t).Size, uintptr(base)))
}
