// Package cputest provides a port I/O backend that records traffic instead of
// touching hardware. Tests install it by assigning a *Bus to cpu.ActiveBus.
package cputest

// Write records a single byte written to a port.
type Write struct {
	Port uint16
	Val  uint8
}

// Bus records every port write and answers reads from per-port queues.
//
// A read is served, in order of preference, from the queue registered for the
// port with Queue, from the last value written to the port if it was marked
// with Loopback, or from the default registered with SetDefault. Ports with
// none of these read as 0xFF, the value returned by an empty ISA bus.
type Bus struct {
	Writes []Write
	Reads  []uint16

	queued   map[uint16][]uint8
	defaults map[uint16]uint8
	loopback map[uint16]uint16
	last     map[uint16]uint8
}

// NewBus returns an empty recording bus.
func NewBus() *Bus {
	return &Bus{
		queued:   make(map[uint16][]uint8),
		defaults: make(map[uint16]uint8),
		loopback: make(map[uint16]uint16),
		last:     make(map[uint16]uint8),
	}
}

// Queue appends vals to the values returned by successive reads of port.
func (b *Bus) Queue(port uint16, vals ...uint8) {
	b.queued[port] = append(b.queued[port], vals...)
}

// SetDefault sets the value returned by reads of port once its queue is empty.
func (b *Bus) SetDefault(port uint16, val uint8) {
	b.defaults[port] = val
}

// Loopback makes reads of readPort return the last value written to
// writePort.
func (b *Bus) Loopback(readPort, writePort uint16) {
	b.loopback[readPort] = writePort
}

// In implements cpu.Bus.
func (b *Bus) In(port uint16) uint8 {
	b.Reads = append(b.Reads, port)

	if q := b.queued[port]; len(q) != 0 {
		b.queued[port] = q[1:]
		return q[0]
	}

	if src, ok := b.loopback[port]; ok {
		if v, written := b.last[src]; written {
			return v
		}
	}

	if v, ok := b.defaults[port]; ok {
		return v
	}

	return 0xff
}

// Out implements cpu.Bus.
func (b *Bus) Out(port uint16, val uint8) {
	b.Writes = append(b.Writes, Write{Port: port, Val: val})
	b.last[port] = val
}

// WritesTo returns the values written to port in the order they were issued.
func (b *Bus) WritesTo(port uint16) []uint8 {
	var out []uint8
	for _, w := range b.Writes {
		if w.Port == port {
			out = append(out, w.Val)
		}
	}
	return out
}

// WritesExcept returns the recorded writes minus those targeting any of the
// supplied ports.
func (b *Bus) WritesExcept(ports ...uint16) []Write {
	var out []Write
nextWrite:
	for _, w := range b.Writes {
		for _, p := range ports {
			if w.Port == p {
				continue nextWrite
			}
		}
		out = append(out, w)
	}
	return out
}

// Reset discards the recorded traffic. Queues, defaults and loopback
// registrations are kept.
func (b *Bus) Reset() {
	b.Writes = b.Writes[:0]
	b.Reads = b.Reads[:0]
}
