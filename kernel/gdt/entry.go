package gdt

// Entry is a segment descriptor. The zero value is the null descriptor.
//
// Setters take and return values so descriptors can be assembled as a single
// expression. Arguments wider than their field are truncated.
type Entry uint64

// SystemType selects the kind of a system (S = 0) segment.
type SystemType uint8

const (
	// LDT describes a local descriptor table.
	LDT SystemType = 0x2

	// TSSAvailable describes an idle 32-bit task state segment.
	TSSAvailable SystemType = 0x9

	// TSSBusy describes the task state segment of the running task.
	TSSBusy SystemType = 0xb
)

const (
	limitMask = 0x000f0000_0000ffff
	baseMask  = 0xff0000ff_ffff0000

	bitAccessed   = 40
	bitReadWrite  = 41
	bitDirConform = 42
	bitExecutable = 43
	bitCodeData   = 44
	bitDPL        = 45
	bitPresent    = 47
	bitLongMode   = 43
	bitDefaultSz  = 54
	bitGranular   = 55
)

func (e Entry) setBit(offset uint, bit bool) Entry {
	mask := Entry(1) << offset
	if bit {
		return e | mask
	}
	return e &^ mask
}

func (e Entry) setBits(offset uint, bits uint64, length uint) Entry {
	mask := uint64(1)<<length - 1
	return e&^Entry(mask<<offset) | Entry((bits&mask)<<offset)
}

// SetLimit stores the low 20 bits of limit.
func (e Entry) SetLimit(limit uint32) Entry {
	l := uint64(limit)
	return e&^limitMask | Entry((l&0xf0000)<<32|l&0x0ffff)
}

// SetBase stores the segment base address.
func (e Entry) SetBase(base uint32) Entry {
	b := uint64(base)
	return e&^baseMask | Entry((b&0xff000000)<<32|(b&0x00ffffff)<<16)
}

// SetPresent sets the P bit.
func (e Entry) SetPresent(bit bool) Entry { return e.setBit(bitPresent, bit) }

// SetDPL sets the descriptor privilege level (0-3).
func (e Entry) SetDPL(dpl uint8) Entry { return e.setBits(bitDPL, uint64(dpl), 2) }

// SetCodeData sets the S bit; true for code and data segments, false for
// system segments.
func (e Entry) SetCodeData(bit bool) Entry { return e.setBit(bitCodeData, bit) }

// SetExecutable sets the E bit; true for code segments.
func (e Entry) SetExecutable(bit bool) Entry { return e.setBit(bitExecutable, bit) }

// SetDirConform sets the DC bit: expand-down for data segments, conforming
// for code segments.
func (e Entry) SetDirConform(bit bool) Entry { return e.setBit(bitDirConform, bit) }

// SetReadWrite sets the RW bit: readable for code segments, writable for data
// segments.
func (e Entry) SetReadWrite(bit bool) Entry { return e.setBit(bitReadWrite, bit) }

// SetAccessed sets the A bit.
func (e Entry) SetAccessed(bit bool) Entry { return e.setBit(bitAccessed, bit) }

// SetSystemType stores the type field of a system segment.
func (e Entry) SetSystemType(typ SystemType) Entry { return e.setBits(bitAccessed, uint64(typ), 4) }

// SetGranularity sets the G bit; when set the limit is counted in 4 KiB
// pages.
func (e Entry) SetGranularity(bit bool) Entry { return e.setBit(bitGranular, bit) }

// SetDefaultSize sets the DB bit selecting 32-bit operands and addresses.
func (e Entry) SetDefaultSize(bit bool) Entry { return e.setBit(bitDefaultSz, bit) }

// SetLongMode sets the long-mode flag.
//
// This writes bit 43, the E bit of the access byte, and not the L flag at bit
// 53. Nothing in the kernel calls it while it runs in protected mode.
// TODO: Move to bit 53 when a long-mode GDT is built.
func (e Entry) SetLongMode(bit bool) Entry { return e.setBit(bitLongMode, bit) }

// Base returns the segment base address.
func (e Entry) Base() uint32 {
	return uint32(e>>16)&0x00ffffff | uint32(e>>32)&0xff000000
}

// Limit returns the 20-bit segment limit.
func (e Entry) Limit() uint32 {
	return uint32(e)&0x0ffff | uint32(e>>32)&0xf0000
}

// AccessByte returns bits 40-47.
func (e Entry) AccessByte() uint8 { return uint8(e >> 40) }

// Flags returns the 4-bit flag nibble at bits 52-55.
func (e Entry) Flags() uint8 { return uint8(e>>52) & 0x0f }

// Present reports whether the P bit is set.
func (e Entry) Present() bool { return e&(1<<bitPresent) != 0 }

// DPL returns the descriptor privilege level.
func (e Entry) DPL() uint8 { return uint8(e>>bitDPL) & 0x3 }

// Executable reports whether the E bit is set.
func (e Entry) Executable() bool { return e&(1<<bitExecutable) != 0 }
