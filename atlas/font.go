package atlas

import "github.com/jmchacon/tac70/memory"

// normalFont is an 8x8 ASCII font. Each glyph is 8 rows top to bottom and
// bit 0 of a row is the leftmost pixel which is exactly the 1bpp surface
// layout, so it's copied into memory verbatim. Control codes are blank.
var normalFont = [memory.GlyphCount][memory.GlyphBytes]uint8{
	0x20: {0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	0x21: {0x18, 0x3C, 0x3C, 0x18, 0x18, 0x00, 0x18, 0x00},
	0x22: {0x36, 0x36, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	0x23: {0x36, 0x36, 0x7F, 0x36, 0x7F, 0x36, 0x36, 0x00},
	0x24: {0x0C, 0x3E, 0x03, 0x1E, 0x30, 0x1F, 0x0C, 0x00},
	0x25: {0x00, 0x63, 0x33, 0x18, 0x0C, 0x66, 0x63, 0x00},
	0x26: {0x1C, 0x36, 0x1C, 0x6E, 0x3B, 0x33, 0x6E, 0x00},
	0x27: {0x06, 0x06, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00},
	0x28: {0x18, 0x0C, 0x06, 0x06, 0x06, 0x0C, 0x18, 0x00},
	0x29: {0x06, 0x0C, 0x18, 0x18, 0x18, 0x0C, 0x06, 0x00},
	0x2A: {0x00, 0x66, 0x3C, 0xFF, 0x3C, 0x66, 0x00, 0x00},
	0x2B: {0x00, 0x0C, 0x0C, 0x3F, 0x0C, 0x0C, 0x00, 0x00},
	0x2C: {0x00, 0x00, 0x00, 0x00, 0x00, 0x0C, 0x0C, 0x06},
	0x2D: {0x00, 0x00, 0x00, 0x3F, 0x00, 0x00, 0x00, 0x00},
	0x2E: {0x00, 0x00, 0x00, 0x00, 0x00, 0x0C, 0x0C, 0x00},
	0x2F: {0x60, 0x30, 0x18, 0x0C, 0x06, 0x03, 0x01, 0x00},
	0x30: {0x3E, 0x63, 0x73, 0x7B, 0x6F, 0x67, 0x3E, 0x00},
	0x31: {0x0C, 0x0E, 0x0C, 0x0C, 0x0C, 0x0C, 0x3F, 0x00},
	0x32: {0x1E, 0x33, 0x30, 0x1C, 0x06, 0x33, 0x3F, 0x00},
	0x33: {0x1E, 0x33, 0x30, 0x1C, 0x30, 0x33, 0x1E, 0x00},
	0x34: {0x38, 0x3C, 0x36, 0x33, 0x7F, 0x30, 0x78, 0x00},
	0x35: {0x3F, 0x03, 0x1F, 0x30, 0x30, 0x33, 0x1E, 0x00},
	0x36: {0x1C, 0x06, 0x03, 0x1F, 0x33, 0x33, 0x1E, 0x00},
	0x37: {0x3F, 0x33, 0x30, 0x18, 0x0C, 0x0C, 0x0C, 0x00},
	0x38: {0x1E, 0x33, 0x33, 0x1E, 0x33, 0x33, 0x1E, 0x00},
	0x39: {0x1E, 0x33, 0x33, 0x3E, 0x30, 0x18, 0x0E, 0x00},
	0x3A: {0x00, 0x0C, 0x0C, 0x00, 0x00, 0x0C, 0x0C, 0x00},
	0x3B: {0x00, 0x0C, 0x0C, 0x00, 0x00, 0x0C, 0x0C, 0x06},
	0x3C: {0x18, 0x0C, 0x06, 0x03, 0x06, 0x0C, 0x18, 0x00},
	0x3D: {0x00, 0x00, 0x3F, 0x00, 0x00, 0x3F, 0x00, 0x00},
	0x3E: {0x06, 0x0C, 0x18, 0x30, 0x18, 0x0C, 0x06, 0x00},
	0x3F: {0x1E, 0x33, 0x30, 0x18, 0x0C, 0x00, 0x0C, 0x00},
	0x40: {0x3E, 0x63, 0x7B, 0x7B, 0x7B, 0x03, 0x1E, 0x00},
	0x41: {0x0C, 0x1E, 0x33, 0x33, 0x3F, 0x33, 0x33, 0x00},
	0x42: {0x3F, 0x66, 0x66, 0x3E, 0x66, 0x66, 0x3F, 0x00},
	0x43: {0x3C, 0x66, 0x03, 0x03, 0x03, 0x66, 0x3C, 0x00},
	0x44: {0x1F, 0x36, 0x66, 0x66, 0x66, 0x36, 0x1F, 0x00},
	0x45: {0x7F, 0x46, 0x16, 0x1E, 0x16, 0x46, 0x7F, 0x00},
	0x46: {0x7F, 0x46, 0x16, 0x1E, 0x16, 0x06, 0x0F, 0x00},
	0x47: {0x3C, 0x66, 0x03, 0x03, 0x73, 0x66, 0x7C, 0x00},
	0x48: {0x33, 0x33, 0x33, 0x3F, 0x33, 0x33, 0x33, 0x00},
	0x49: {0x1E, 0x0C, 0x0C, 0x0C, 0x0C, 0x0C, 0x1E, 0x00},
	0x4A: {0x78, 0x30, 0x30, 0x30, 0x33, 0x33, 0x1E, 0x00},
	0x4B: {0x67, 0x66, 0x36, 0x1E, 0x36, 0x66, 0x67, 0x00},
	0x4C: {0x0F, 0x06, 0x06, 0x06, 0x46, 0x66, 0x7F, 0x00},
	0x4D: {0x63, 0x77, 0x7F, 0x7F, 0x6B, 0x63, 0x63, 0x00},
	0x4E: {0x63, 0x67, 0x6F, 0x7B, 0x73, 0x63, 0x63, 0x00},
	0x4F: {0x1C, 0x36, 0x63, 0x63, 0x63, 0x36, 0x1C, 0x00},
	0x50: {0x3F, 0x66, 0x66, 0x3E, 0x06, 0x06, 0x0F, 0x00},
	0x51: {0x1E, 0x33, 0x33, 0x33, 0x3B, 0x1E, 0x38, 0x00},
	0x52: {0x3F, 0x66, 0x66, 0x3E, 0x36, 0x66, 0x67, 0x00},
	0x53: {0x1E, 0x33, 0x07, 0x0E, 0x38, 0x33, 0x1E, 0x00},
	0x54: {0x3F, 0x2D, 0x0C, 0x0C, 0x0C, 0x0C, 0x1E, 0x00},
	0x55: {0x33, 0x33, 0x33, 0x33, 0x33, 0x33, 0x3F, 0x00},
	0x56: {0x33, 0x33, 0x33, 0x33, 0x33, 0x1E, 0x0C, 0x00},
	0x57: {0x63, 0x63, 0x63, 0x6B, 0x7F, 0x77, 0x63, 0x00},
	0x58: {0x63, 0x63, 0x36, 0x1C, 0x1C, 0x36, 0x63, 0x00},
	0x59: {0x33, 0x33, 0x33, 0x1E, 0x0C, 0x0C, 0x1E, 0x00},
	0x5A: {0x7F, 0x63, 0x31, 0x18, 0x4C, 0x66, 0x7F, 0x00},
	0x5B: {0x1E, 0x06, 0x06, 0x06, 0x06, 0x06, 0x1E, 0x00},
	0x5C: {0x03, 0x06, 0x0C, 0x18, 0x30, 0x60, 0x40, 0x00},
	0x5D: {0x1E, 0x18, 0x18, 0x18, 0x18, 0x18, 0x1E, 0x00},
	0x5E: {0x08, 0x1C, 0x36, 0x63, 0x00, 0x00, 0x00, 0x00},
	0x5F: {0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xFF},
	0x60: {0x0C, 0x0C, 0x18, 0x00, 0x00, 0x00, 0x00, 0x00},
	0x61: {0x00, 0x00, 0x1E, 0x30, 0x3E, 0x33, 0x6E, 0x00},
	0x62: {0x07, 0x06, 0x06, 0x3E, 0x66, 0x66, 0x3B, 0x00},
	0x63: {0x00, 0x00, 0x1E, 0x33, 0x03, 0x33, 0x1E, 0x00},
	0x64: {0x38, 0x30, 0x30, 0x3E, 0x33, 0x33, 0x6E, 0x00},
	0x65: {0x00, 0x00, 0x1E, 0x33, 0x3F, 0x03, 0x1E, 0x00},
	0x66: {0x1C, 0x36, 0x06, 0x0F, 0x06, 0x06, 0x0F, 0x00},
	0x67: {0x00, 0x00, 0x6E, 0x33, 0x33, 0x3E, 0x30, 0x1F},
	0x68: {0x07, 0x06, 0x36, 0x6E, 0x66, 0x66, 0x67, 0x00},
	0x69: {0x0C, 0x00, 0x0E, 0x0C, 0x0C, 0x0C, 0x1E, 0x00},
	0x6A: {0x30, 0x00, 0x30, 0x30, 0x30, 0x33, 0x33, 0x1E},
	0x6B: {0x07, 0x06, 0x66, 0x36, 0x1E, 0x36, 0x67, 0x00},
	0x6C: {0x0E, 0x0C, 0x0C, 0x0C, 0x0C, 0x0C, 0x1E, 0x00},
	0x6D: {0x00, 0x00, 0x33, 0x7F, 0x7F, 0x6B, 0x63, 0x00},
	0x6E: {0x00, 0x00, 0x1F, 0x33, 0x33, 0x33, 0x33, 0x00},
	0x6F: {0x00, 0x00, 0x1E, 0x33, 0x33, 0x33, 0x1E, 0x00},
	0x70: {0x00, 0x00, 0x3B, 0x66, 0x66, 0x3E, 0x06, 0x0F},
	0x71: {0x00, 0x00, 0x6E, 0x33, 0x33, 0x3E, 0x30, 0x78},
	0x72: {0x00, 0x00, 0x3B, 0x6E, 0x66, 0x06, 0x0F, 0x00},
	0x73: {0x00, 0x00, 0x3E, 0x03, 0x1E, 0x30, 0x1F, 0x00},
	0x74: {0x08, 0x0C, 0x3E, 0x0C, 0x0C, 0x2C, 0x18, 0x00},
	0x75: {0x00, 0x00, 0x33, 0x33, 0x33, 0x33, 0x6E, 0x00},
	0x76: {0x00, 0x00, 0x33, 0x33, 0x33, 0x1E, 0x0C, 0x00},
	0x77: {0x00, 0x00, 0x63, 0x6B, 0x7F, 0x7F, 0x36, 0x00},
	0x78: {0x00, 0x00, 0x63, 0x36, 0x1C, 0x36, 0x63, 0x00},
	0x79: {0x00, 0x00, 0x33, 0x33, 0x33, 0x3E, 0x30, 0x1F},
	0x7A: {0x00, 0x00, 0x3F, 0x19, 0x0C, 0x26, 0x3F, 0x00},
	0x7B: {0x38, 0x0C, 0x0C, 0x07, 0x0C, 0x0C, 0x38, 0x00},
	0x7C: {0x18, 0x18, 0x18, 0x00, 0x18, 0x18, 0x18, 0x00},
	0x7D: {0x07, 0x0C, 0x0C, 0x38, 0x0C, 0x0C, 0x07, 0x00},
	0x7E: {0x6E, 0x3B, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
}

// altFont is the small 3x5 font, drawn in the top left of each 8x8 cell.
// Lower case shares the upper case shapes.
var altFont = map[byte][5]string{
	'!':  {".#.", ".#.", ".#.", "...", ".#."},
	'"':  {"#.#", "#.#", "...", "...", "..."},
	'#':  {"#.#", "###", "#.#", "###", "#.#"},
	'$':  {".##", "##.", ".#.", ".##", "##."},
	'%':  {"#.#", "..#", ".#.", "#..", "#.#"},
	'&':  {".#.", "#.#", ".#.", "#.#", ".##"},
	'\'': {".#.", ".#.", "...", "...", "..."},
	'(':  {"..#", ".#.", ".#.", ".#.", "..#"},
	')':  {"#..", ".#.", ".#.", ".#.", "#.."},
	'*':  {"...", "#.#", ".#.", "#.#", "..."},
	'+':  {"...", ".#.", "###", ".#.", "..."},
	',':  {"...", "...", "...", ".#.", "#.."},
	'-':  {"...", "...", "###", "...", "..."},
	'.':  {"...", "...", "...", "...", ".#."},
	'/':  {"..#", "..#", ".#.", "#..", "#.."},
	'0':  {"###", "#.#", "#.#", "#.#", "###"},
	'1':  {".#.", "##.", ".#.", ".#.", "###"},
	'2':  {"##.", "..#", ".#.", "#..", "###"},
	'3':  {"##.", "..#", ".#.", "..#", "##."},
	'4':  {"#.#", "#.#", "###", "..#", "..#"},
	'5':  {"###", "#..", "##.", "..#", "##."},
	'6':  {".##", "#..", "###", "#.#", "###"},
	'7':  {"###", "..#", ".#.", ".#.", ".#."},
	'8':  {"###", "#.#", "###", "#.#", "###"},
	'9':  {"###", "#.#", "###", "..#", "##."},
	':':  {"...", ".#.", "...", ".#.", "..."},
	';':  {"...", ".#.", "...", ".#.", "#.."},
	'<':  {"..#", ".#.", "#..", ".#.", "..#"},
	'=':  {"...", "###", "...", "###", "..."},
	'>':  {"#..", ".#.", "..#", ".#.", "#.."},
	'?':  {"##.", "..#", ".#.", "...", ".#."},
	'@':  {".#.", "#.#", "###", "#..", ".##"},
	'A':  {".#.", "#.#", "###", "#.#", "#.#"},
	'B':  {"##.", "#.#", "##.", "#.#", "##."},
	'C':  {".##", "#..", "#..", "#..", ".##"},
	'D':  {"##.", "#.#", "#.#", "#.#", "##."},
	'E':  {"###", "#..", "##.", "#..", "###"},
	'F':  {"###", "#..", "##.", "#..", "#.."},
	'G':  {".##", "#..", "#.#", "#.#", ".##"},
	'H':  {"#.#", "#.#", "###", "#.#", "#.#"},
	'I':  {"###", ".#.", ".#.", ".#.", "###"},
	'J':  {"..#", "..#", "..#", "#.#", ".#."},
	'K':  {"#.#", "#.#", "##.", "#.#", "#.#"},
	'L':  {"#..", "#..", "#..", "#..", "###"},
	'M':  {"#.#", "###", "###", "#.#", "#.#"},
	'N':  {"##.", "#.#", "#.#", "#.#", "#.#"},
	'O':  {".#.", "#.#", "#.#", "#.#", ".#."},
	'P':  {"##.", "#.#", "##.", "#..", "#.."},
	'Q':  {".#.", "#.#", "#.#", "##.", ".##"},
	'R':  {"##.", "#.#", "##.", "#.#", "#.#"},
	'S':  {".##", "#..", ".#.", "..#", "##."},
	'T':  {"###", ".#.", ".#.", ".#.", ".#."},
	'U':  {"#.#", "#.#", "#.#", "#.#", "###"},
	'V':  {"#.#", "#.#", "#.#", "#.#", ".#."},
	'W':  {"#.#", "#.#", "###", "###", "#.#"},
	'X':  {"#.#", "#.#", ".#.", "#.#", "#.#"},
	'Y':  {"#.#", "#.#", ".#.", ".#.", ".#."},
	'Z':  {"###", "..#", ".#.", "#..", "###"},
	'[':  {"##.", "#..", "#..", "#..", "##."},
	'\\': {"#..", "#..", ".#.", "..#", "..#"},
	']':  {".##", "..#", "..#", "..#", ".##"},
	'^':  {".#.", "#.#", "...", "...", "..."},
	'_':  {"...", "...", "...", "...", "###"},
	'`':  {"#..", ".#.", "...", "...", "..."},
	'{':  {".##", ".#.", "#..", ".#.", ".##"},
	'|':  {".#.", ".#.", ".#.", ".#.", ".#."},
	'}':  {"##.", ".#.", "..#", ".#.", "##."},
	'~':  {"...", ".##", "##.", "...", "..."},
}

// altGlyph packs one small glyph into 1bpp rows.
func altGlyph(code byte) [memory.GlyphBytes]uint8 {
	var g [memory.GlyphBytes]uint8
	if code >= 'a' && code <= 'z' {
		code -= 'a' - 'A'
	}
	rows, ok := altFont[code]
	if !ok {
		return g
	}
	for y, row := range rows {
		for x := 0; x < len(row); x++ {
			if row[x] == '#' {
				g[y] |= 1 << uint(x)
			}
		}
	}
	return g
}

// SeedFont writes the built in Normal and Alt fonts into the font region of
// the arena. Any glyphs already there are overwritten. Call Recompute on
// every Atlas over the arena afterwards.
func SeedFont(a *memory.Arena) {
	font := a.View(memory.Font)
	for code := 0; code < memory.GlyphCount; code++ {
		copy(font[glyphOffset(code, Normal):], normalFont[code][:])
		g := altGlyph(byte(code))
		copy(font[glyphOffset(code, Alt):], g[:])
	}
}

func glyphOffset(code int, s Style) int {
	return (int(s)*memory.GlyphCount + code) * memory.GlyphBytes
}
