package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Wonshtrum/CairnOS2/kernel/gdt"
	"github.com/Wonshtrum/CairnOS2/kernel/idt"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

// output is where commands print their results.
var output io.Writer = os.Stdout

// gdtCmd implements subcommands.Command for the "gdt" command.
type gdtCmd struct {
	base string
}

// Name implements subcommands.Command.Name.
func (*gdtCmd) Name() string { return "gdt" }

// Synopsis implements subcommands.Command.Synopsis.
func (*gdtCmd) Synopsis() string { return "print the default GDT" }

// Usage implements subcommands.Command.Usage.
func (*gdtCmd) Usage() string {
	return "gdt [-base ADDR] - print the default GDT and its pointer\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *gdtCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.base, "base", "0", "linear address of the table")
}

// Execute implements subcommands.Command.Execute.
func (c *gdtCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	base, err := parseUint(c.base, 32)
	if err != nil {
		logrus.WithError(err).Error("bad -base")
		return subcommands.ExitUsageError
	}

	t := gdt.DefaultSegments()
	logrus.Debugf("dumping %d GDT entries", len(t))
	dumpGDT(output, &t, uint32(base))
	return subcommands.ExitSuccess
}

// idtCmd implements subcommands.Command for the "idt" command.
type idtCmd struct {
	base    string
	handler string
}

// Name implements subcommands.Command.Name.
func (*idtCmd) Name() string { return "idt" }

// Synopsis implements subcommands.Command.Synopsis.
func (*idtCmd) Synopsis() string { return "print the default IDT" }

// Usage implements subcommands.Command.Usage.
func (*idtCmd) Usage() string {
	return "idt [-handler ADDR] [-base ADDR] - print the non-empty gates of the default IDT\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *idtCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.base, "base", "0", "linear address of the table")
	f.StringVar(&c.handler, "handler", "0", "address of the general protection fault handler")
}

// Execute implements subcommands.Command.Execute.
func (c *idtCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	base, err := parseUint(c.base, 32)
	if err != nil {
		logrus.WithError(err).Error("bad -base")
		return subcommands.ExitUsageError
	}
	handler, err := parseUint(c.handler, 32)
	if err != nil {
		logrus.WithError(err).Error("bad -handler")
		return subcommands.ExitUsageError
	}

	t := idt.DefaultGates(gdt.KernelCode, uintptr(handler))
	dumpIDT(output, &t, uint32(base))
	return subcommands.ExitSuccess
}

// decodeCmd implements subcommands.Command for the "decode" command.
type decodeCmd struct {
	kind string
}

// Name implements subcommands.Command.Name.
func (*decodeCmd) Name() string { return "decode" }

// Synopsis implements subcommands.Command.Synopsis.
func (*decodeCmd) Synopsis() string { return "decode raw descriptors" }

// Usage implements subcommands.Command.Usage.
func (*decodeCmd) Usage() string {
	return "decode -kind segment|gate HEX... - decode 8-byte descriptors\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *decodeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "segment", "descriptor kind: segment or gate")
}

// Execute implements subcommands.Command.Execute.
func (c *decodeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 || (c.kind != "segment" && c.kind != "gate") {
		f.Usage()
		return subcommands.ExitUsageError
	}

	for index, arg := range f.Args() {
		raw, err := parseRaw(arg)
		if err != nil {
			logrus.WithError(err).Error("decode failed")
			return subcommands.ExitFailure
		}

		if c.kind == "segment" {
			dumpSegment(output, index, gdt.Entry(raw))
		} else {
			dumpGate(output, index, idt.Gate(raw), "")
		}
	}
	return subcommands.ExitSuccess
}

// selectorCmd implements subcommands.Command for the "selector" command.
type selectorCmd struct {
	index uint
	ti    bool
	rpl   uint
}

// Name implements subcommands.Command.Name.
func (*selectorCmd) Name() string { return "selector" }

// Synopsis implements subcommands.Command.Synopsis.
func (*selectorCmd) Synopsis() string { return "encode a segment selector" }

// Usage implements subcommands.Command.Usage.
func (*selectorCmd) Usage() string {
	return "selector -index N [-ti] [-dpl N] - encode a segment selector\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *selectorCmd) SetFlags(f *flag.FlagSet) {
	f.UintVar(&c.index, "index", 0, "descriptor index (0-8191)")
	f.BoolVar(&c.ti, "ti", false, "select the LDT instead of the GDT")
	f.UintVar(&c.rpl, "dpl", 0, "requested privilege level (0-3)")
}

// Execute implements subcommands.Command.Execute.
func (c *selectorCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.index > 8191 || c.rpl > 3 {
		logrus.Errorf("index %d or privilege level %d out of range", c.index, c.rpl)
		return subcommands.ExitUsageError
	}

	sel := gdt.NewSelector(uint16(c.index), c.ti, uint8(c.rpl))
	fmt.Fprintf(output, "0x%04x\n", uint16(sel))
	return subcommands.ExitSuccess
}
