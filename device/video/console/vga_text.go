// Package console implements a text console on top of the EGA-compatible
// framebuffer set up by the boot loader.
package console

import (
	"image/color"
	"io"
	"unsafe"

	"github.com/Wonshtrum/CairnOS2/kernel"
	"github.com/Wonshtrum/CairnOS2/kernel/cpu"
	"github.com/Wonshtrum/CairnOS2/kernel/kfmt"
)

const (
	crtcIndex = cpu.Port(0x3d4)
	crtcData  = cpu.Port(0x3d5)

	crtcCursorStart = 0x0a
	crtcCursorEnd   = 0x0b
	crtcCursorHigh  = 0x0e
	crtcCursorLow   = 0x0f

	// cursorDisable is bit 5 of the cursor start register.
	cursorDisable = 0x20

	dacWriteIndex = cpu.Port(0x3c8)
	dacData       = cpu.Port(0x3c9)
)

var errNoFramebuffer = &kernel.Error{Module: "vga_text_console", Message: "framebuffer has no cells"}

// FrameBuffer describes the text-mode framebuffer. Dimensions are in cells;
// Pitch is the distance in cells between the start of two rows.
type FrameBuffer struct {
	Width  uint32
	Height uint32
	Pitch  uint32
	Addr   uintptr
}

// VgaTextConsole implements an EGA-compatible text console. Each cell of the
// framebuffer holds a character code in the low byte and an attribute byte
// (4 bits foreground, 4 bits background) in the high byte.
//
// Output wraps at the right edge. When it moves past the last row it
// continues at the first row without scrolling.
type VgaTextConsole struct {
	fb    FrameBuffer
	cells []uint16

	// X and Y hold the position of the next character.
	X, Y uint32

	attr uint8
}

// NewVgaTextConsole returns a console writing to fb using fg on bg. The
// framebuffer is not touched until DriverInit is called.
func NewVgaTextConsole(fb FrameBuffer, fg, bg Color) VgaTextConsole {
	return VgaTextConsole{
		fb:   fb,
		attr: Attribute(fg, bg),
	}
}

// Dimensions returns the console width and height in characters.
func (cons *VgaTextConsole) Dimensions() (uint32, uint32) {
	return cons.fb.Width, cons.fb.Height
}

// SetColor changes the attribute used by subsequent writes.
func (cons *VgaTextConsole) SetColor(fg, bg Color) {
	cons.attr = Attribute(fg, bg)
}

// WriteAt stores ch with attribute attr at cell index idx. Indexes outside
// the framebuffer are ignored.
func (cons *VgaTextConsole) WriteAt(idx uint32, ch byte, attr uint8) {
	if idx >= uint32(len(cons.cells)) {
		return
	}
	cons.cells[idx] = cell(ch, attr)
}

// Clear fills the console with spaces in the current color and moves the
// cursor to the top-left corner.
func (cons *VgaTextConsole) Clear() {
	for y := uint32(0); y < cons.fb.Height; y++ {
		for x := uint32(0); x < cons.fb.Width; x++ {
			cons.WriteAt(y*cons.fb.Pitch+x, ' ', cons.attr)
		}
	}
	cons.X, cons.Y = 0, 0
	cons.UpdateCursor()
}

// WriteByte outputs ch at the current position and advances it. A newline
// moves to the start of the next row.
func (cons *VgaTextConsole) WriteByte(ch byte) error {
	if ch == '\n' {
		cons.X = 0
		cons.Y++
	} else {
		cons.WriteAt(cons.fb.Pitch*cons.Y+cons.X, ch, cons.attr)
		cons.X++
		if cons.X >= cons.fb.Width {
			cons.X = 0
			cons.Y++
		}
	}

	if cons.Y >= cons.fb.Height {
		cons.Y = 0
	}

	cons.UpdateCursor()
	return nil
}

// Write implements io.Writer.
func (cons *VgaTextConsole) Write(p []byte) (int, error) {
	for _, ch := range p {
		cons.WriteByte(ch)
	}
	return len(p), nil
}

// EnableCursor shows the hardware cursor spanning scanlines start to end of
// each cell.
func (cons *VgaTextConsole) EnableCursor(start, end uint8) {
	crtcIndex.Write(crtcCursorStart)
	crtcData.Write(crtcData.Read()&0xc0 | start)
	crtcIndex.Write(crtcCursorEnd)
	crtcData.Write(crtcData.Read()&0xe0 | end)
}

// DisableCursor hides the hardware cursor.
func (cons *VgaTextConsole) DisableCursor() {
	crtcIndex.Write(crtcCursorStart)
	crtcData.Write(cursorDisable)
}

// Cursor returns the linear cell index of the current position. Rows are
// Pitch cells apart, as in the framebuffer.
func (cons *VgaTextConsole) Cursor() uint32 {
	return cons.Y*cons.fb.Pitch + cons.X
}

// SetCursor moves the hardware cursor to linear cell index pos.
func (cons *VgaTextConsole) SetCursor(pos uint32) {
	crtcIndex.Write(crtcCursorLow)
	crtcData.Write(uint8(pos))
	crtcIndex.Write(crtcCursorHigh)
	crtcData.Write(uint8(pos >> 8))
}

// UpdateCursor moves the hardware cursor to the current position.
func (cons *VgaTextConsole) UpdateCursor() {
	cons.SetCursor(cons.Cursor())
}

// SetPaletteColor loads rgba into the DAC entry used by index. The DAC takes
// 6-bit components so the low 2 bits of each component are dropped.
func (cons *VgaTextConsole) SetPaletteColor(index Color, rgba color.RGBA) {
	if index >= numColors {
		return
	}

	dacWriteIndex.Write(uint8(index))
	dacData.Write(rgba.R >> 2)
	dacData.Write(rgba.G >> 2)
	dacData.Write(rgba.B >> 2)
}

// DriverName returns the name of this driver.
func (cons *VgaTextConsole) DriverName() string {
	return "vga_text_console"
}

// DriverVersion returns the version of this driver.
func (cons *VgaTextConsole) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit attaches the console to its framebuffer and clears it. Paging is
// disabled so the framebuffer is accessed at its physical address.
func (cons *VgaTextConsole) DriverInit(w io.Writer) *kernel.Error {
	if cons.fb.Width == 0 || cons.fb.Height == 0 || cons.fb.Pitch < cons.fb.Width {
		return errNoFramebuffer
	}

	cons.cells = unsafe.Slice((*uint16)(unsafe.Pointer(cons.fb.Addr)), cons.fb.Pitch*cons.fb.Height)
	cons.Clear()

	kfmt.Fprintf(w, "%dx%d cells at 0x%x\n", cons.fb.Width, cons.fb.Height, cons.fb.Addr)
	return nil
}
