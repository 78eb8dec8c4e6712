// Package serial implements an output-only driver for 16550-compatible UARTs.
package serial

import (
	"io"

	"github.com/Wonshtrum/CairnOS2/kernel"
	"github.com/Wonshtrum/CairnOS2/kernel/cpu"
	"github.com/Wonshtrum/CairnOS2/kernel/kfmt"
)

// COM1 is the base port of the first serial line.
const COM1 = cpu.Port(0x3f8)

// Register offsets from the base port.
const (
	regData       = 0 // divisor low byte while DLAB is set
	regIntEnable  = 1 // divisor high byte while DLAB is set
	regFIFOCtrl   = 2
	regLineCtrl   = 3
	regModemCtrl  = 4
	regLineStatus = 5
)

const (
	lineDLAB = 0x80
	line8N1  = 0x03

	// divisor for 115200 / 3 = 38400 baud.
	baudDivisor = 3

	// enable and clear both FIFOs with a 14-byte threshold.
	fifoEnable = 0xc7

	modemDTRRTSOut2 = 0x0b
	modemLoopback   = 0x1e
	modemNormal     = 0x0f

	lineStatusTHRE = 0x20

	loopbackProbe = 0xae
)

var errLoopbackMismatch = &kernel.Error{Module: "serial", Message: "loopback self-test failed"}

// Port is a serial line used as an output device.
type Port struct {
	base cpu.Port

	// crlf makes WriteByte emit a carriage return before each newline.
	crlf bool
}

// NewPort returns a Port for the UART at base. The UART is not programmed
// until DriverInit is called.
func NewPort(base cpu.Port, crlf bool) Port {
	return Port{base: base, crlf: crlf}
}

// Base returns the base I/O port of the UART.
func (p *Port) Base() cpu.Port {
	return p.base
}

// WriteByte sends b over the line, busy-waiting until the transmitter
// holding register is empty.
func (p *Port) WriteByte(b byte) error {
	if p.crlf && b == '\n' {
		p.transmit('\r')
	}
	p.transmit(b)
	return nil
}

func (p *Port) transmit(b byte) {
	for p.base.Add(regLineStatus).Read()&lineStatusTHRE == 0 {
	}
	p.base.Write(b)
}

// Write implements io.Writer.
func (p *Port) Write(data []byte) (int, error) {
	for _, b := range data {
		p.WriteByte(b)
	}
	return len(data), nil
}

// DriverName returns the name of this driver.
func (p *Port) DriverName() string {
	return "serial"
}

// DriverVersion returns the version of this driver.
func (p *Port) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit programs the UART for 38400 baud 8N1 and verifies that it
// echoes a byte in loopback mode.
func (p *Port) DriverInit(w io.Writer) *kernel.Error {
	p.base.Add(regIntEnable).Write(0)

	p.base.Add(regLineCtrl).SlowWrite(lineDLAB)
	p.base.Add(regData).SlowWrite(baudDivisor)
	p.base.Add(regIntEnable).SlowWrite(0)
	p.base.Add(regLineCtrl).SlowWrite(line8N1)

	p.base.Add(regFIFOCtrl).Write(fifoEnable)
	p.base.Add(regModemCtrl).Write(modemDTRRTSOut2)

	p.base.Add(regModemCtrl).Write(modemLoopback)
	p.base.Add(regData).Write(loopbackProbe)
	if got := p.base.Add(regData).Read(); got != loopbackProbe {
		return errLoopbackMismatch
	}

	p.base.Add(regModemCtrl).Write(modemNormal)

	kfmt.Fprintf(w, "port 0x%x, 38400 8N1, crlf %t\n", uint16(p.base), p.crlf)
	return nil
}
