package cpu

// ioDelayPort is not decoded by any device once POST has completed, which
// makes it a safe target for delay writes.
const ioDelayPort = Port(0x80)

// Bus performs single-byte port I/O.
type Bus interface {
	// In reads a byte from port.
	In(port uint16) uint8

	// Out writes val to port.
	Out(port uint16, val uint8)
}

type hardwareBus struct{}

func (hardwareBus) In(port uint16) uint8       { return PortReadByte(port) }
func (hardwareBus) Out(port uint16, val uint8) { PortWriteByte(port, val) }

// ActiveBus services every Port read and write. It defaults to the IN/OUT
// instructions; tests swap in a recording implementation.
var ActiveBus Bus = hardwareBus{}

// Port is an I/O port address. Register banks are modeled by adding a fixed
// offset to a base port.
type Port uint16

// Add returns the port located offset bytes after p.
func (p Port) Add(offset uint16) Port {
	return p + Port(offset)
}

// Read returns the byte currently presented by the port.
func (p Port) Read() uint8 {
	return ActiveBus.In(uint16(p))
}

// Write sends val to the port. Writes to ports without a device behind them
// are silently dropped by the hardware.
func (p Port) Write(val uint8) {
	ActiveBus.Out(uint16(p), val)
}

// SlowWrite sends val to the port and then stalls for one bus cycle so that
// devices which cannot accept back-to-back writes have time to settle.
func (p Port) SlowWrite(val uint8) {
	p.Write(val)
	IOWait()
}

// IOWait performs a discard write to an unused port.
func IOWait() {
	ioDelayPort.Write(0)
}
