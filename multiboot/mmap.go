package multiboot

import "unsafe"

// MemoryEntryType is the region type reported by the loader.
type MemoryEntryType uint32

// Region types. Values the loader reports outside this range are treated as
// MemReserved.
const (
	MemAvailable MemoryEntryType = iota + 1
	MemReserved
	MemAcpiReclaimable
	MemNvs
	MemBad

	memUnknown
)

var memTypeNames = [...]string{
	MemAvailable:       "available",
	MemReserved:        "reserved",
	MemAcpiReclaimable: "acpi",
	MemNvs:             "nvs",
	MemBad:             "bad",
}

func (t MemoryEntryType) String() string {
	if t == 0 || t >= memUnknown {
		return "unknown"
	}
	return memTypeNames[t]
}

// MemoryMapEntry describes a memory region entry, namely its physical address,
// its length and its type.
//
// The loader packs the 64-bit address and length right after the 32-bit size
// field, so they are stored as 32-bit halves.
type MemoryMapEntry struct {
	// Size of the entry, not counting this field.
	Size uint32

	addrLo, addrHi uint32
	lenLo, lenHi   uint32

	// The type of this entry.
	Type MemoryEntryType
}

var _ = [1]struct{}{}[unsafe.Sizeof(MemoryMapEntry{})-24]

// PhysAddress returns the start address of the region.
func (e *MemoryMapEntry) PhysAddress() uint64 {
	return uint64(e.addrHi)<<32 | uint64(e.addrLo)
}

// Length returns the size of the region in bytes.
func (e *MemoryMapEntry) Length() uint64 {
	return uint64(e.lenHi)<<32 | uint64(e.lenLo)
}

// MemRegionVisitor is called once per region. Returning false stops the walk.
type MemRegionVisitor func(*MemoryMapEntry) bool

// VisitMemRegions invokes visitor for each memory region described by the
// loader. It returns false if the record carries no memory map.
//
// Entries may be longer than MemoryMapEntry; the loader-supplied size is used
// to find the next one.
func (i *Info) VisitMemRegions(visitor MemRegionVisitor) bool {
	if !i.Has(FlagMmap) {
		return false
	}

	base := physToPtrFn(i.mmapAddr)
	for off := uintptr(0); off < uintptr(i.mmapLength); {
		entry := (*MemoryMapEntry)(unsafe.Add(base, off))

		if entry.Type == 0 || entry.Type >= memUnknown {
			entry.Type = MemReserved
		}

		if !visitor(entry) {
			break
		}

		off += uintptr(entry.Size) + 4
	}

	return true
}
