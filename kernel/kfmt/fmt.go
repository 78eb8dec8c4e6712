package kfmt

import (
	"io"
	"unsafe"
)

// maxBufSize defines the buffer size for formatting numbers. It fits a 64-bit
// value in base 2.
const maxBufSize = 64

const digits = "0123456789abcdef"

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	// numFmtBuf holds the digits of a formatted number plus its sign.
	numFmtBuf [maxBufSize + 1]byte

	// singleByte is used as a shared buffer for passing single characters
	// to doWrite.
	singleByte = []byte(" ")

	// earlyPrintBuffer is a ring buffer that stores Printf output before an
	// output device has been selected.
	earlyPrintBuffer ringBuffer

	// outputSink is a io.Writer where Printf will send its output. If set
	// to nil, then the output will be redirected to the earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the default target for calls to Printf to w and copies
// any data accumulated in the earlyPrintBuffer to it. If the buffer
// overflowed, a note with the number of lost bytes is written first.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w == nil {
		return
	}

	if lost := earlyPrintBuffer.dropped; lost != 0 {
		earlyPrintBuffer.dropped = 0
		Fprintf(w, "[kfmt] %d bytes of early output lost\n", lost)
	}
	io.Copy(w, &earlyPrintBuffer)
}

// GetOutputSink returns the writer used by Printf. Before SetOutputSink is
// called this is the early ring buffer.
func GetOutputSink() io.Writer {
	if outputSink == nil {
		return &earlyPrintBuffer
	}
	return outputSink
}

// Printf is an allocation-free subset of fmt.Printf that is safe to call
// before the Go runtime has been initialized.
//
// Supported verbs:
//
//	%s  string or []byte
//	%c  byte or rune; runes outside ASCII print as '?'
//	%b  integer, base 2
//	%o  integer, base 8
//	%d  integer, base 10
//	%x  integer, base 16 (lower-case)
//	%t  bool
//	%%  a literal percent sign
//
// A decimal width may precede the verb. Strings, characters and base-10
// integers are left-padded with spaces; base 2, 8 and 16 integers are
// left-padded with zeroes. Booleans ignore the width.
//
// Arguments are matched by concrete type only. io.Stringer is never consulted
// since itables may not be set up yet, and %p is not offered because pulling
// in reflect makes the compiler emit runtime.convT2E calls that allocate.
//
// Output goes to the sink registered with SetOutputSink or, until one is
// registered, to a ring buffer that is replayed into the first sink.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves like Printf but writes to w.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex int
		padLen   int
		verb     byte
	)

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			// format[a:b] cannot be handed to doWrite without an allocation.
			writeByte(w, format[i])
			continue
		}

		padLen = 0
		for i++; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
			padLen = padLen*10 + int(format[i]-'0')
		}
		if i == len(format) {
			break
		}

		switch verb = format[i]; verb {
		case '%':
			writeByte(w, '%')
			continue
		case 'b', 'o', 'd', 'x', 's', 'c', 't':
		default:
			doWrite(w, errNoVerb)
			continue
		}

		if argIndex >= len(args) {
			doWrite(w, errMissingArg)
			continue
		}

		arg := args[argIndex]
		argIndex++
		switch verb {
		case 'b':
			fmtInt(w, arg, 2, padLen)
		case 'o':
			fmtInt(w, arg, 8, padLen)
		case 'd':
			fmtInt(w, arg, 10, padLen)
		case 'x':
			fmtInt(w, arg, 16, padLen)
		case 's':
			fmtString(w, arg, padLen)
		case 'c':
			fmtChar(w, arg, padLen)
		case 't':
			fmtBool(w, arg)
		}
	}

	for ; argIndex < len(args); argIndex++ {
		doWrite(w, errExtraArg)
	}
}

func writeByte(w io.Writer, b byte) {
	singleByte[0] = b
	doWrite(w, singleByte)
}

func fmtBool(w io.Writer, v interface{}) {
	b, ok := v.(bool)
	switch {
	case !ok:
		doWrite(w, errWrongArgType)
	case b:
		doWrite(w, trueValue)
	default:
		doWrite(w, falseValue)
	}
}

// fmtString writes a string or []byte value, left-padded to padLen.
func fmtString(w io.Writer, v interface{}, padLen int) {
	switch s := v.(type) {
	case string:
		fmtRepeat(w, ' ', padLen-len(s))
		for i := 0; i < len(s); i++ {
			writeByte(w, s[i])
		}
	case []byte:
		fmtRepeat(w, ' ', padLen-len(s))
		doWrite(w, s)
	default:
		doWrite(w, errWrongArgType)
	}
}

func fmtChar(w io.Writer, v interface{}, padLen int) {
	var ch byte

	switch c := v.(type) {
	case uint8:
		ch = c
	case int32:
		ch = '?'
		if c >= 0 && c <= 0x7f {
			ch = byte(c)
		}
	default:
		doWrite(w, errWrongArgType)
		return
	}

	fmtRepeat(w, ' ', padLen-1)
	writeByte(w, ch)
}

func fmtRepeat(w io.Writer, ch byte, count int) {
	for ; count > 0; count-- {
		writeByte(w, ch)
	}
}

// intValue splits any built-in integer into its magnitude and sign.
func intValue(v interface{}) (mag uint64, neg, ok bool) {
	var s int64

	switch n := v.(type) {
	case uint8:
		return uint64(n), false, true
	case uint16:
		return uint64(n), false, true
	case uint32:
		return uint64(n), false, true
	case uint64:
		return n, false, true
	case uintptr:
		return uint64(n), false, true
	case int8:
		s = int64(n)
	case int16:
		s = int64(n)
	case int32:
		s = int64(n)
	case int64:
		s = n
	case int:
		s = int64(n)
	default:
		return 0, false, false
	}

	if s < 0 {
		return uint64(-s), true, true
	}
	return uint64(s), false, true
}

// fmtInt writes v in the given base, left-padded to padLen. Digits are
// produced right to left into the tail of numFmtBuf.
func fmtInt(w io.Writer, v interface{}, base uint64, padLen int) {
	mag, neg, ok := intValue(v)
	if !ok {
		doWrite(w, errWrongArgType)
		return
	}

	if padLen >= maxBufSize {
		padLen = maxBufSize - 1
	}

	padCh := byte('0')
	if base == 10 {
		padCh = ' '
	}

	pos := len(numFmtBuf)
	for {
		pos--
		numFmtBuf[pos] = digits[mag%base]
		if mag /= base; mag == 0 {
			break
		}
	}

	for len(numFmtBuf)-pos < padLen {
		pos--
		numFmtBuf[pos] = padCh
	}

	if neg {
		// The sign takes the blank closest to the digits if there is one.
		if numFmtBuf[pos] == ' ' {
			i := pos
			for numFmtBuf[i+1] == ' ' {
				i++
			}
			numFmtBuf[i] = '-'
		} else {
			pos--
			numFmtBuf[pos] = '-'
		}
	}

	doWrite(w, numFmtBuf[pos:])
}

// doWrite is a proxy that uses the runtime.noescape hack to hide p from the
// compiler's escape analysis. Without this hack, the compiler cannot properly
// detect that p does not escape (due to the call to the yet unknown outputSink
// io.Writer) and plays it safe by flagging it as escaping. This causes all
// calls to Printf to call runtime.convT2E which triggers a memory allocation
// causing the kernel to crash if a call to Printf is made before the Go
// allocator is initialized.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
	} else {
		earlyPrintBuffer.Write(p)
	}
}

// noEscape hides a pointer from escape analysis. This function is copied over
// from runtime/stubs.go
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
