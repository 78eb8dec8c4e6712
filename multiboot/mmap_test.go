package multiboot

import (
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
)

type region struct {
	Addr, Len uint64
	Type      MemoryEntryType
}

func TestVisitMemRegions(t *testing.T) {
	// The second entry carries 4 trailing bytes that must be skipped using
	// its size field.
	raw := []uint32{
		20, 0x0, 0x0, 0x9fc00, 0x0, 1,
		24, 0x100000, 0x0, 0x7ee0000, 0x0, 2, 0xdead,
		20, 0x0, 0x1, 0x1000, 0x0, 9,
		20, 0xfffc0000, 0x0, 0x40000, 0x0, 5,
	}
	mockPhysMem(t, map[uint32]unsafe.Pointer{
		0x9000: unsafe.Pointer(&raw[0]),
	})

	info := &Info{
		flags:      uint32(FlagMmap),
		mmapAddr:   0x9000,
		mmapLength: uint32(len(raw) * 4),
	}

	var got []region
	if !info.VisitMemRegions(func(e *MemoryMapEntry) bool {
		got = append(got, region{e.PhysAddress(), e.Length(), e.Type})
		return true
	}) {
		t.Fatal("expected VisitMemRegions to find the memory map")
	}

	exp := []region{
		{0x0, 0x9fc00, MemAvailable},
		{0x100000, 0x7ee0000, MemReserved},
		{0x1_0000_0000, 0x1000, MemReserved},
		{0xfffc0000, 0x40000, MemBad},
	}
	if !cmp.Equal(got, exp) {
		t.Fatalf("unexpected regions: %s", cmp.Diff(exp, got))
	}
}

func TestVisitMemRegionsAbort(t *testing.T) {
	raw := []uint32{
		20, 0x0, 0x0, 0x1000, 0x0, 1,
		20, 0x1000, 0x0, 0x1000, 0x0, 1,
	}
	mockPhysMem(t, map[uint32]unsafe.Pointer{
		0x9000: unsafe.Pointer(&raw[0]),
	})

	info := &Info{flags: uint32(FlagMmap), mmapAddr: 0x9000, mmapLength: uint32(len(raw) * 4)}

	visited := 0
	info.VisitMemRegions(func(*MemoryMapEntry) bool {
		visited++
		return false
	})

	if visited != 1 {
		t.Fatalf("expected visitor to be called once; got %d", visited)
	}
}

func TestMemoryEntryTypeString(t *testing.T) {
	specs := []struct {
		typ MemoryEntryType
		exp string
	}{
		{MemAvailable, "available"},
		{MemReserved, "reserved"},
		{MemAcpiReclaimable, "acpi"},
		{MemNvs, "nvs"},
		{MemBad, "bad"},
		{MemoryEntryType(0), "unknown"},
		{MemoryEntryType(42), "unknown"},
	}

	for specIndex, spec := range specs {
		if got := spec.typ.String(); got != spec.exp {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.exp, got)
		}
	}
}
