package tables

import (
	"testing"
	"unsafe"
)

func TestDescriptorLayout(t *testing.T) {
	if got := unsafe.Sizeof(Descriptor{}); got != DescriptorSize {
		t.Fatalf("expected descriptor size to be %d; got %d", DescriptorSize, got)
	}

	if got := unsafe.Alignof(Descriptor{}); got != 2 {
		t.Fatalf("expected descriptor alignment to be 2; got %d", got)
	}
}

func TestDescriptorBytes(t *testing.T) {
	specs := []struct {
		size   uint16
		offset uintptr
		exp    [DescriptorSize]byte
	}{
		{40, 0x00102030, [DescriptorSize]byte{0x28, 0x00, 0x30, 0x20, 0x10, 0x00}},
		{2047, 0xdeadbeef, [DescriptorSize]byte{0xff, 0x07, 0xef, 0xbe, 0xad, 0xde}},
		{0, 0, [DescriptorSize]byte{}},
	}

	for specIndex, spec := range specs {
		d := NewDescriptor(spec.size, spec.offset)
		if got := d.Bytes(); got != spec.exp {
			t.Errorf("[spec %d] expected bytes % x; got % x", specIndex, spec.exp, got)
		}

		if got := d.Offset(); got != uint32(spec.offset) {
			t.Errorf("[spec %d] expected offset %x; got %x", specIndex, spec.offset, got)
		}

		// The in-memory image must match the encoding read by the CPU.
		raw := *(*[DescriptorSize]byte)(unsafe.Pointer(&d))
		if raw != spec.exp {
			t.Errorf("[spec %d] expected memory image % x; got % x", specIndex, spec.exp, raw)
		}
	}
}
