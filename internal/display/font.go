package display

// font maps runes to column bitmaps, one byte per column, bit 0 at the
// top row. Glyphs are variable width so HH:MM:SS:mmm fits in 64 columns.
var font = map[rune][]byte{
	' ': {0x00, 0x00},
	'.': {0x40},
	':': {0x36},
	'-': {0x08, 0x08, 0x08},
	'?': {0x02, 0x01, 0x51, 0x09, 0x06},

	'0': {0x3E, 0x51, 0x49, 0x45, 0x3E},
	'1': {0x00, 0x42, 0x7F, 0x40, 0x00},
	'2': {0x42, 0x61, 0x51, 0x49, 0x46},
	'3': {0x21, 0x41, 0x45, 0x4B, 0x31},
	'4': {0x18, 0x14, 0x12, 0x7F, 0x10},
	'5': {0x27, 0x45, 0x45, 0x45, 0x39},
	'6': {0x3C, 0x4A, 0x49, 0x49, 0x30},
	'7': {0x01, 0x71, 0x09, 0x05, 0x03},
	'8': {0x36, 0x49, 0x49, 0x49, 0x36},
	'9': {0x06, 0x49, 0x49, 0x29, 0x1E},

	'A': {0x7E, 0x11, 0x11, 0x7E},
	'D': {0x7F, 0x41, 0x41, 0x3E},
	'E': {0x7F, 0x49, 0x49, 0x41},
	'F': {0x7F, 0x09, 0x09, 0x01},
	'I': {0x41, 0x7F, 0x41},
	'M': {0x7F, 0x02, 0x0C, 0x02, 0x7F},
	'S': {0x46, 0x49, 0x49, 0x31},
	'T': {0x01, 0x7F, 0x01},

	'a': {0x20, 0x54, 0x54, 0x78},
	'd': {0x38, 0x44, 0x44, 0x7F},
	'g': {0x0C, 0x52, 0x52, 0x3E},
	'i': {0x7D},
	'n': {0x7C, 0x04, 0x04, 0x78},
	's': {0x48, 0x54, 0x54, 0x24},
	't': {0x04, 0x3F, 0x44},
}

func glyph(r rune) []byte {
	if g, ok := font[r]; ok {
		return g
	}
	return font['?']
}

// Render lays text out as width columns with one blank column between
// glyphs. Text wider than the display is cut on the right.
func Render(text string, width int, align Alignment) []byte {
	var cols []byte
	first := true
	for _, r := range text {
		if !first {
			cols = append(cols, 0x00)
		}
		first = false
		cols = append(cols, glyph(r)...)
	}
	if len(cols) > width {
		cols = cols[:width]
	}

	out := make([]byte, width)
	offset := 0
	if align == AlignCenter {
		offset = (width - len(cols)) / 2
	}
	copy(out[offset:], cols)
	return out
}

// TextWidth returns the number of columns text needs.
func TextWidth(text string) int {
	n := 0
	for _, r := range text {
		if n > 0 {
			n++
		}
		n += len(glyph(r))
	}
	return n
}
