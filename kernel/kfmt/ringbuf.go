package kfmt

import "io"

// earlyBufferSize is the capacity of the buffer that holds Printf output
// produced before an output sink is attached. It fits a full 80x25 text
// screen and must be a power of 2.
const earlyBufferSize = 2048

// ringBuffer keeps the most recent earlyBufferSize-1 bytes written to it.
// Once full, each write overwrites the oldest unread byte.
type ringBuffer struct {
	buffer         [earlyBufferSize]byte
	rIndex, wIndex int

	// dropped counts the bytes overwritten before they could be read.
	dropped int
}

// Len returns the number of unread bytes.
func (rb *ringBuffer) Len() int {
	return (rb.wIndex - rb.rIndex) & (earlyBufferSize - 1)
}

// Reset discards the buffered bytes and the drop counter.
func (rb *ringBuffer) Reset() {
	rb.rIndex, rb.wIndex, rb.dropped = 0, 0, 0
}

// Write writes len(p) bytes from p to the ringBuffer.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[rb.wIndex] = b
		rb.wIndex = (rb.wIndex + 1) & (earlyBufferSize - 1)
		if rb.rIndex == rb.wIndex {
			rb.rIndex = (rb.rIndex + 1) & (earlyBufferSize - 1)
			rb.dropped++
		}
	}

	return len(p), nil
}

// chunk returns the unread bytes that are contiguous in the backing array.
func (rb *ringBuffer) chunk() []byte {
	if rb.rIndex <= rb.wIndex {
		return rb.buffer[rb.rIndex:rb.wIndex]
	}
	return rb.buffer[rb.rIndex:]
}

func (rb *ringBuffer) consume(n int) {
	rb.rIndex = (rb.rIndex + n) & (earlyBufferSize - 1)
}

// Read implements io.Reader. A single call never returns bytes from both
// ends of the backing array.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.rIndex == rb.wIndex {
		return 0, io.EOF
	}

	n := copy(p, rb.chunk())
	rb.consume(n)
	return n, nil
}

// WriteTo implements io.WriterTo. io.Copy prefers it over Read, which keeps
// io.Copy from allocating a transfer buffer.
func (rb *ringBuffer) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for rb.rIndex != rb.wIndex {
		n, err := w.Write(rb.chunk())
		rb.consume(n)
		total += int64(n)
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
	}

	return total, nil
}
