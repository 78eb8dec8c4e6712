package console

import (
	"bytes"
	"image/color"
	"testing"
	"unsafe"

	"github.com/Wonshtrum/CairnOS2/device"
	"github.com/Wonshtrum/CairnOS2/kernel/cpu"
	"github.com/Wonshtrum/CairnOS2/kernel/cpu/cputest"
	"github.com/google/go-cmp/cmp"
)

func mockBus(t *testing.T) *cputest.Bus {
	bus := cputest.NewBus()
	orig := cpu.ActiveBus
	cpu.ActiveBus = bus
	t.Cleanup(func() { cpu.ActiveBus = orig })
	return bus
}

func mockConsole(t *testing.T, width, height, pitch uint32) (*VgaTextConsole, []uint16) {
	fb := make([]uint16, pitch*height)
	cons := NewVgaTextConsole(FrameBuffer{
		Width:  width,
		Height: height,
		Pitch:  pitch,
		Addr:   uintptr(unsafe.Pointer(&fb[0])),
	}, LightGrey, Black)

	if err := cons.DriverInit(&bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	return &cons, fb
}

func readRow(fb []uint16, pitch, row, width uint32) string {
	var buf bytes.Buffer
	for x := uint32(0); x < width; x++ {
		buf.WriteByte(byte(fb[row*pitch+x]))
	}
	return buf.String()
}

func TestAttribute(t *testing.T) {
	specs := []struct {
		fg, bg Color
		exp    uint8
	}{
		{LightGrey, Black, 0x07},
		{White, Blue, 0x1f},
		{Yellow, Red, 0x4e},
	}

	for specIndex, spec := range specs {
		if got := Attribute(spec.fg, spec.bg); got != spec.exp {
			t.Errorf("[spec %d] expected attribute %x; got %x", specIndex, spec.exp, got)
		}
	}

	if got := cell('A', 0x1f); got != 0x1f41 {
		t.Errorf("expected cell 0x1f41; got %x", got)
	}
}

func TestVgaTextDriverInit(t *testing.T) {
	mockBus(t)

	cons, fb := mockConsole(t, 4, 2, 6)
	for y := uint32(0); y < 2; y++ {
		for x := uint32(0); x < 6; x++ {
			exp := uint16(0)
			if x < 4 {
				exp = cell(' ', 0x07)
			}
			if got := fb[y*6+x]; got != exp {
				t.Errorf("expected cell (%d, %d) to be %x after init; got %x", x, y, exp, got)
			}
		}
	}

	if w, h := cons.Dimensions(); w != 4 || h != 2 {
		t.Errorf("expected dimensions 4x2; got %dx%d", w, h)
	}

	var out bytes.Buffer
	bad := NewVgaTextConsole(FrameBuffer{Width: 80, Height: 25, Pitch: 40}, LightGrey, Black)
	if err := bad.DriverInit(&out); err != errNoFramebuffer {
		t.Fatalf("expected errNoFramebuffer for a pitch smaller than the width; got %v", err)
	}
}

func TestVgaTextWriteWrap(t *testing.T) {
	mockBus(t)

	cons, fb := mockConsole(t, 4, 3, 4)
	cons.Write([]byte("abcdef\nxy"))

	if got := readRow(fb, 4, 0, 4); got != "abcd" {
		t.Errorf("expected row 0 to be %q; got %q", "abcd", got)
	}
	if got := readRow(fb, 4, 1, 4); got != "ef  " {
		t.Errorf("expected row 1 to be %q; got %q", "ef  ", got)
	}
	if got := readRow(fb, 4, 2, 4); got != "xy  " {
		t.Errorf("expected row 2 to be %q; got %q", "xy  ", got)
	}
	if cons.X != 2 || cons.Y != 2 {
		t.Errorf("expected position (2, 2); got (%d, %d)", cons.X, cons.Y)
	}

	// Moving past the last row continues at the top without scrolling.
	cons.Write([]byte("\nZ"))
	if got := readRow(fb, 4, 0, 4); got != "Zbcd" {
		t.Errorf("expected row 0 to be overwritten in place; got %q", got)
	}
	if got := readRow(fb, 4, 2, 4); got != "xy  " {
		t.Errorf("expected row 2 to be left untouched; got %q", got)
	}
}

func TestVgaTextWriteUsesPitch(t *testing.T) {
	mockBus(t)

	cons, fb := mockConsole(t, 2, 2, 3)
	cons.SetColor(White, Blue)
	cons.Write([]byte("abc"))

	exp := []uint16{
		cell('a', 0x1f), cell('b', 0x1f), 0,
		cell('c', 0x1f), cell(' ', 0x07), 0,
	}
	if !cmp.Equal(fb, exp) {
		t.Fatalf("unexpected framebuffer contents: %s", cmp.Diff(exp, fb))
	}
}

func TestVgaTextWriteAtBounds(t *testing.T) {
	mockBus(t)

	cons, fb := mockConsole(t, 2, 1, 2)
	cons.WriteAt(1, 'x', 0x4e)
	cons.WriteAt(2, 'y', 0x4e)

	if fb[1] != cell('x', 0x4e) {
		t.Fatalf("expected cell 1 to be written; got %x", fb[1])
	}
}

func TestVgaTextCursor(t *testing.T) {
	bus := mockBus(t)
	cons, _ := mockConsole(t, 80, 25, 80)

	bus.Reset()
	cons.X, cons.Y = 10, 3
	cons.UpdateCursor()

	// 3*80 + 10 = 250 = 0x00fa
	exp := []cputest.Write{
		{Port: 0x3d4, Val: 0x0f}, {Port: 0x3d5, Val: 0xfa},
		{Port: 0x3d4, Val: 0x0e}, {Port: 0x3d5, Val: 0x00},
	}
	if !cmp.Equal(bus.Writes, exp) {
		t.Fatalf("unexpected cursor writes: %s", cmp.Diff(exp, bus.Writes))
	}

	bus.Reset()
	cons.SetCursor(80*24 + 79)
	exp = []cputest.Write{
		{Port: 0x3d4, Val: 0x0f}, {Port: 0x3d5, Val: 0xcf},
		{Port: 0x3d4, Val: 0x0e}, {Port: 0x3d5, Val: 0x07},
	}
	if !cmp.Equal(bus.Writes, exp) {
		t.Fatalf("unexpected cursor writes: %s", cmp.Diff(exp, bus.Writes))
	}
}

func TestVgaTextCursorUsesPitch(t *testing.T) {
	bus := mockBus(t)

	cons, fb := mockConsole(t, 2, 3, 3)
	cons.Write([]byte("abc"))

	// The next write goes to row 1, column 1: cell 1*3+1.
	if got := cons.Cursor(); got != 4 {
		t.Fatalf("expected cursor at cell 4; got %d", got)
	}

	bus.Reset()
	cons.WriteByte('d')

	if fb[4] != cell('d', 0x07) {
		t.Fatalf("expected the write to land on the cursor cell; got %x", fb[4])
	}

	// The cursor follows the wrap to row 2, column 0: cell 2*3+0.
	exp := []cputest.Write{
		{Port: 0x3d4, Val: 0x0f}, {Port: 0x3d5, Val: 0x06},
		{Port: 0x3d4, Val: 0x0e}, {Port: 0x3d5, Val: 0x00},
	}
	if !cmp.Equal(bus.Writes, exp) {
		t.Fatalf("unexpected cursor writes: %s", cmp.Diff(exp, bus.Writes))
	}
}

func TestVgaTextEnableDisableCursor(t *testing.T) {
	bus := mockBus(t)
	cons, _ := mockConsole(t, 80, 25, 80)

	bus.Reset()
	bus.Queue(0x3d5, 0xff, 0xff)
	cons.EnableCursor(14, 15)

	exp := []cputest.Write{
		{Port: 0x3d4, Val: 0x0a}, {Port: 0x3d5, Val: 0xc0 | 14},
		{Port: 0x3d4, Val: 0x0b}, {Port: 0x3d5, Val: 0xe0 | 15},
	}
	if !cmp.Equal(bus.Writes, exp) {
		t.Fatalf("unexpected EnableCursor writes: %s", cmp.Diff(exp, bus.Writes))
	}

	bus.Reset()
	cons.DisableCursor()
	exp = []cputest.Write{{Port: 0x3d4, Val: 0x0a}, {Port: 0x3d5, Val: 0x20}}
	if !cmp.Equal(bus.Writes, exp) {
		t.Fatalf("unexpected DisableCursor writes: %s", cmp.Diff(exp, bus.Writes))
	}
}

func TestVgaTextSetPaletteColor(t *testing.T) {
	bus := mockBus(t)
	cons := NewVgaTextConsole(FrameBuffer{}, LightGrey, Black)

	t.Run("success", func(t *testing.T) {
		bus.Reset()
		cons.SetPaletteColor(Blue, color.RGBA{R: 255, G: 127, B: 0})

		// Values are normalized to the 0-63 range.
		exp := []cputest.Write{
			{Port: 0x3c8, Val: 1},
			{Port: 0x3c9, Val: 63},
			{Port: 0x3c9, Val: 31},
			{Port: 0x3c9, Val: 0},
		}
		if !cmp.Equal(bus.Writes, exp) {
			t.Fatalf("unexpected DAC writes: %s", cmp.Diff(exp, bus.Writes))
		}
	})

	t.Run("color index out of range", func(t *testing.T) {
		bus.Reset()
		cons.SetPaletteColor(50, color.RGBA{R: 255})
		if len(bus.Writes) != 0 {
			t.Fatalf("unexpected DAC writes: %v", bus.Writes)
		}
	})
}

func TestVgaTextDriverInterface(t *testing.T) {
	var dev device.Driver = &VgaTextConsole{}

	if dev.DriverName() == "" {
		t.Fatal("DriverName() returned an empty string")
	}

	if major, minor, patch := dev.DriverVersion(); major+minor+patch == 0 {
		t.Fatal("DriverVersion() returned an invalid version number")
	}
}
