package console

// Color is one of the 16 EGA text attribute colors.
type Color uint8

// The default EGA palette.
const (
	Black Color = iota
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightGrey
	DarkGrey
	LightBlue
	LightGreen
	LightCyan
	LightRed
	LightMagenta
	Yellow
	White
)

// numColors is the size of the text-mode palette.
const numColors = 16

// Attribute returns the cell attribute byte selecting fg on bg.
func Attribute(fg, bg Color) uint8 {
	return uint8(fg&0xf) | uint8(bg&0xf)<<4
}

// cell encodes ch with the given attribute byte.
func cell(ch byte, attr uint8) uint16 {
	return uint16(ch) | uint16(attr)<<8
}
