package gdt

// Selector is the value loaded into a segment register: a table index, a
// table indicator and a requested privilege level.
type Selector uint16

// NewSelector returns the selector for the descriptor at index. ti selects
// the LDT instead of the GDT. Only the low 13 bits of index and the low 2 bits
// of rpl are used.
func NewSelector(index uint16, ti bool, rpl uint8) Selector {
	s := Selector(rpl&0x3) | Selector(index&0x1fff)<<3
	if ti {
		s |= 1 << 2
	}
	return s
}

// Index returns the descriptor table index.
func (s Selector) Index() uint16 { return uint16(s >> 3) }

// TI reports whether the selector refers to the LDT.
func (s Selector) TI() bool { return s&(1<<2) != 0 }

// RPL returns the requested privilege level.
func (s Selector) RPL() uint8 { return uint8(s & 0x3) }
