// Package tables defines the pointer format consumed by the LGDT and LIDT
// instructions.
package tables

import "unsafe"

// DescriptorSize is the size in bytes of a table pointer in 32-bit mode.
const DescriptorSize = 6

// Descriptor is the 6-byte operand of LGDT and LIDT: a 16-bit size followed
// by the 32-bit linear address of the table. The address is kept as two
// 16-bit halves so the struct has no padding and 2-byte alignment regardless
// of the architecture the package is built for.
type Descriptor struct {
	// Size is the value loaded into the limit field of the table register.
	Size uint16

	offsetLo uint16
	offsetHi uint16
}

// The CPU reads exactly DescriptorSize bytes from the operand address.
var _ = [1]struct{}{}[unsafe.Sizeof(Descriptor{})-DescriptorSize]

// NewDescriptor returns a table pointer with the given size field and table
// address. Only the low 32 bits of offset are kept.
func NewDescriptor(size uint16, offset uintptr) Descriptor {
	return Descriptor{
		Size:     size,
		offsetLo: uint16(offset),
		offsetHi: uint16(uint32(offset) >> 16),
	}
}

// Offset returns the table address.
func (d Descriptor) Offset() uint32 {
	return uint32(d.offsetHi)<<16 | uint32(d.offsetLo)
}

// Bytes returns the in-memory image of d.
func (d Descriptor) Bytes() [DescriptorSize]byte {
	return [DescriptorSize]byte{
		byte(d.Size), byte(d.Size >> 8),
		byte(d.offsetLo), byte(d.offsetLo >> 8),
		byte(d.offsetHi), byte(d.offsetHi >> 8),
	}
}
