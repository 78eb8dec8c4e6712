package cpu_test

import (
	"testing"

	"github.com/Wonshtrum/CairnOS2/kernel/cpu"
	"github.com/Wonshtrum/CairnOS2/kernel/cpu/cputest"
	"github.com/google/go-cmp/cmp"
)

func installBus(t *testing.T) *cputest.Bus {
	bus := cputest.NewBus()
	orig := cpu.ActiveBus
	cpu.ActiveBus = bus
	t.Cleanup(func() { cpu.ActiveBus = orig })
	return bus
}

func TestPortReadWrite(t *testing.T) {
	bus := installBus(t)
	bus.Queue(0x21, 0xfb)

	p := cpu.Port(0x21)
	if got := p.Read(); got != 0xfb {
		t.Fatalf("expected Read to return 0xfb; got %x", got)
	}

	p.Write(0x04)
	exp := []cputest.Write{{Port: 0x21, Val: 0x04}}
	if !cmp.Equal(bus.Writes, exp) {
		t.Fatalf("unexpected writes: %s", cmp.Diff(exp, bus.Writes))
	}
}

func TestPortSlowWrite(t *testing.T) {
	bus := installBus(t)

	cpu.Port(0xa0).SlowWrite(0x11)

	exp := []cputest.Write{
		{Port: 0xa0, Val: 0x11},
		{Port: 0x80, Val: 0},
	}
	if !cmp.Equal(bus.Writes, exp) {
		t.Fatalf("unexpected writes: %s", cmp.Diff(exp, bus.Writes))
	}
}

func TestPortAdd(t *testing.T) {
	specs := []struct {
		base   cpu.Port
		offset uint16
		exp    cpu.Port
	}{
		{0x3f8, 0, 0x3f8},
		{0x3f8, 5, 0x3fd},
		{0x3d4, 1, 0x3d5},
		{0xffff, 1, 0},
	}

	for specIndex, spec := range specs {
		if got := spec.base.Add(spec.offset); got != spec.exp {
			t.Errorf("[spec %d] expected %x + %d = %x; got %x", specIndex, spec.base, spec.offset, spec.exp, got)
		}
	}
}
