// Package pic drives the pair of cascaded 8259 programmable interrupt
// controllers found on PC compatible machines.
//
// At boot the BIOS maps the master controller to vectors 0x08-0x0f, which
// overlap the CPU exception range. Remap moves both controllers to a vector
// range chosen by the kernel.
package pic

import (
	"github.com/Wonshtrum/CairnOS2/kernel"
	"github.com/Wonshtrum/CairnOS2/kernel/cpu"
)

const (
	masterCmd  = cpu.Port(0x20)
	masterData = cpu.Port(0x21)
	slaveCmd   = cpu.Port(0xa0)
	slaveData  = cpu.Port(0xa1)

	icw1Init = 0x10
	icw1ICW4 = 0x01

	// CascadeIRQ is the master input the slave is wired to.
	CascadeIRQ = 2

	icw4Mode8086 = 0x01

	ocw2EOI = 0x20

	// DefaultMasterOffset and DefaultSlaveOffset place the 16 IRQ lines
	// right after the CPU exception vectors.
	DefaultMasterOffset = 0x20
	DefaultSlaveOffset  = 0x28

	// NumIRQs is the number of lines served by the controller pair.
	NumIRQs = 16

	numReservedVectors = 32
)

var (
	errOffsetReserved  = &kernel.Error{Module: "pic", Message: "vector offset overlaps CPU exceptions"}
	errOffsetUnaligned = &kernel.Error{Module: "pic", Message: "vector offset is not a multiple of 8"}
	errOffsetsOverlap  = &kernel.Error{Module: "pic", Message: "master and slave vector ranges overlap"}
)

// Masks holds the interrupt mask register of each controller. A set bit
// disables the corresponding IRQ line.
type Masks struct {
	Master uint8
	Slave  uint8
}

// ReadMasks returns the current interrupt masks.
func ReadMasks() Masks {
	return Masks{
		Master: masterData.Read(),
		Slave:  slaveData.Read(),
	}
}

// WriteMasks replaces the interrupt masks.
func WriteMasks(m Masks) {
	masterData.Write(m.Master)
	slaveData.Write(m.Slave)
}

// Remap reinitializes both controllers so that master IRQs 0-7 are delivered
// to vectors masterOffset..masterOffset+7 and slave IRQs 8-15 to
// slaveOffset..slaveOffset+7. The interrupt masks in effect before the call
// are restored afterwards.
//
// The offsets are not validated; see CheckOffsets. Interrupts must be
// disabled while Remap runs.
func Remap(masterOffset, slaveOffset uint8) {
	masks := ReadMasks()

	// ICW1: start the initialization sequence, ICW4 follows.
	masterCmd.SlowWrite(icw1Init | icw1ICW4)
	slaveCmd.SlowWrite(icw1Init | icw1ICW4)

	// ICW2: vector offsets.
	masterData.SlowWrite(masterOffset)
	slaveData.SlowWrite(slaveOffset)

	// ICW3: the master gets a bitmask of slave inputs, the slave gets its
	// cascade identity.
	masterData.SlowWrite(1 << CascadeIRQ)
	slaveData.SlowWrite(CascadeIRQ)

	// ICW4
	masterData.SlowWrite(icw4Mode8086)
	slaveData.SlowWrite(icw4Mode8086)

	WriteMasks(masks)
}

// CheckOffsets validates a pair of vector offsets before they are passed to
// Remap. Each offset must be a multiple of 8 outside the 32 vectors reserved
// for CPU exceptions, and the two 8-vector ranges must not overlap.
func CheckOffsets(masterOffset, slaveOffset uint8) *kernel.Error {
	for _, off := range [2]uint8{masterOffset, slaveOffset} {
		switch {
		case off < numReservedVectors:
			return errOffsetReserved
		case off&0x7 != 0:
			return errOffsetUnaligned
		}
	}

	if masterOffset == slaveOffset {
		return errOffsetsOverlap
	}

	return nil
}

// lineFor returns the data port and mask bit serving irq.
func lineFor(irq uint8) (cpu.Port, uint8) {
	if irq < 8 {
		return masterData, irq
	}
	return slaveData, irq - 8
}

// MaskIRQ disables delivery of irq (0-15).
func MaskIRQ(irq uint8) {
	port, bit := lineFor(irq & (NumIRQs - 1))
	port.Write(port.Read() | 1<<bit)
}

// UnmaskIRQ enables delivery of irq (0-15). Slave lines are only delivered if
// the cascade line on the master is unmasked as well.
func UnmaskIRQ(irq uint8) {
	port, bit := lineFor(irq & (NumIRQs - 1))
	port.Write(port.Read() &^ (1 << bit))
}

// SendEOI acknowledges irq. Slave IRQs must be acknowledged on both
// controllers.
func SendEOI(irq uint8) {
	if irq >= 8 {
		slaveCmd.Write(ocw2EOI)
	}
	masterCmd.Write(ocw2EOI)
}
