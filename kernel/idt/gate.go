package idt

import "github.com/Wonshtrum/CairnOS2/kernel/gdt"

// Gate is an interrupt descriptor. The zero value is a not-present gate;
// dispatching through it raises a fault.
type Gate uint64

// GateType selects how the CPU enters the handler.
type GateType uint8

const (
	// TaskGate switches to the task named by the selector.
	TaskGate GateType = 0x5

	// InterruptGate clears IF before entering the handler.
	InterruptGate GateType = 0xe

	// TrapGate leaves IF untouched.
	TrapGate GateType = 0xf
)

func (g Gate) setBit(offset uint, bit bool) Gate {
	mask := Gate(1) << offset
	if bit {
		return g | mask
	}
	return g &^ mask
}

func (g Gate) setBits(offset uint, bits uint64, length uint) Gate {
	mask := uint64(1)<<length - 1
	return g&^Gate(mask<<offset) | Gate((bits&mask)<<offset)
}

// SetOffset stores the handler address.
func (g Gate) SetOffset(offset uint32) Gate {
	o := uint64(offset)
	return g&^0xffff0000_0000ffff | Gate((o&0xffff0000)<<32|o&0x0000ffff)
}

// SetSelector stores the code segment selector used to run the handler.
func (g Gate) SetSelector(sel gdt.Selector) Gate {
	return g&^0x00000000_ffff0000 | Gate(sel)<<16
}

// SetPresent sets the P bit.
func (g Gate) SetPresent(bit bool) Gate { return g.setBit(47, bit) }

// SetDPL sets the highest privilege level allowed to invoke the gate with INT.
func (g Gate) SetDPL(dpl uint8) Gate { return g.setBits(45, uint64(dpl), 2) }

// SetType stores the gate type.
func (g Gate) SetType(typ GateType) Gate { return g.setBits(40, uint64(typ), 4) }

// Offset returns the handler address.
func (g Gate) Offset() uint32 {
	return uint32(g)&0x0000ffff | uint32(g>>32)&0xffff0000
}

// Selector returns the handler code segment selector.
func (g Gate) Selector() gdt.Selector { return gdt.Selector(g >> 16) }

// Type returns the gate type.
func (g Gate) Type() GateType { return GateType(g>>40) & 0xf }

// Present reports whether the P bit is set.
func (g Gate) Present() bool { return g&(1<<47) != 0 }

// DPL returns the gate privilege level.
func (g Gate) DPL() uint8 { return uint8(g>>45) & 0x3 }
