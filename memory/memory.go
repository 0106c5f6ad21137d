// Package memory defines the flat memory arena of the console and the
// fixed address map laid over it. Every peripheral (screen, sprites, map,
// palette, font, input registers) is simply a Region of the arena and
// the other packages build views on top of those regions.
package memory

import "fmt"

// Bank is anything addressable as a flat run of bytes.
type Bank interface {
	// Read returns the data byte stored at addr. Addresses outside the bank return 0.
	Read(addr uint32) uint8
	// Write updates addr with the new value. Addresses outside the bank are
	// simply a no-op without any error.
	Write(addr uint32, val uint8)
	// PowerOn performs power on reset of the memory. For the arena this zeros everything.
	PowerOn()
}

var _ = Bank(&Arena{})

const (
	// ArenaSize is the total addressable memory of the console.
	ArenaSize = 0x18000

	ScreenWidth  = 240
	ScreenHeight = 136
	ScreenBPP    = 4

	MapWidth  = 240
	MapHeight = 136

	SpriteCount = 512
	SpriteBytes = 32 // 8x8 at 4bpp

	GlyphCount = 128
	GlyphBytes = 8 // 8x8 at 1bpp

	PaletteColors = 16
)

// Region is a fixed run of the arena. It holds only an offset and a length
// so it's cheap to pass around by value.
type Region struct {
	Name string
	Addr uint32
	Size uint32
}

// End returns the first address past the region.
func (r Region) End() uint32 {
	return r.Addr + r.Size
}

// Contains reports whether addr lies inside the region.
func (r Region) Contains(addr uint32) bool {
	return addr >= r.Addr && addr < r.End()
}

// Overlaps reports whether the two regions share at least one byte.
func (r Region) Overlaps(o Region) bool {
	return r.Addr < o.End() && o.Addr < r.End()
}

func (r Region) String() string {
	return fmt.Sprintf("%s[0x%.5X-0x%.5X)", r.Name, r.Addr, r.End())
}

// The console address map.
// NOTE: SpriteBank is the union of Tiles and Sprites. Everything else is disjoint.
var (
	Screen     = Region{"SCREEN", 0x00000, ScreenWidth * ScreenHeight * ScreenBPP / 8}
	Palette    = Region{"PALETTE", 0x03FC0, PaletteColors * 3}
	Tiles      = Region{"TILES", 0x04000, 0x2000}
	Sprites    = Region{"SPRITES", 0x06000, 0x2000}
	SpriteBank = Region{"SPRITEBANK", 0x04000, SpriteCount * SpriteBytes}
	Map        = Region{"MAP", 0x08000, MapWidth * MapHeight}
	Gamepads   = Region{"GAMEPADS", 0x0FF80, 4}
	Mouse      = Region{"MOUSE", 0x0FF84, 4}
	Waveforms  = Region{"WAVEFORMS", 0x0FFE4, 256}
	Samples    = Region{"SAMPLES", 0x100E4, 4224}
	Patterns   = Region{"PATTERNS", 0x11164, 11520}
	Music      = Region{"MUSIC", 0x13E64, 408}
	Flags      = Region{"FLAGS", 0x14404, 512}
	Font       = Region{"FONT", 0x14604, 2 * GlyphCount * GlyphBytes}
)

// Regions returns the disjoint regions of the address map in address order.
func Regions() []Region {
	return []Region{Screen, Palette, Tiles, Sprites, Map, Gamepads, Mouse, Waveforms, Samples, Patterns, Music, Flags, Font}
}

// Arena is the single owner of the console memory. Views into it are handed
// out as sub-slices of exactly one region.
type Arena struct {
	mem [ArenaSize]uint8
}

// New returns a powered on (zeroed) arena.
func New() *Arena {
	a := &Arena{}
	a.PowerOn()
	return a
}

// Read implements the Bank interface.
func (a *Arena) Read(addr uint32) uint8 {
	if addr >= ArenaSize {
		return 0
	}
	return a.mem[addr]
}

// Write implements the Bank interface.
func (a *Arena) Write(addr uint32, val uint8) {
	if addr >= ArenaSize {
		return
	}
	a.mem[addr] = val
}

// PowerOn implements the Bank interface.
func (a *Arena) PowerOn() {
	for i := range a.mem {
		a.mem[i] = 0x00
	}
}

// View returns the bytes backing r. Writes through the slice land in the
// arena. The capacity is clipped so appends can't spill into the next region.
func (a *Arena) View(r Region) []uint8 {
	if r.Addr >= ArenaSize {
		return nil
	}
	end := r.End()
	if end > ArenaSize {
		end = ArenaSize
	}
	return a.mem[r.Addr:end:end]
}

// Load copies data to the start of r and returns the number of bytes copied
// which is min(len(data), r.Size).
func (a *Arena) Load(r Region, data []uint8) int {
	return copy(a.View(r), data)
}

// Bytes returns a copy of the whole arena.
func (a *Arena) Bytes() []uint8 {
	out := make([]uint8, ArenaSize)
	copy(out, a.mem[:])
	return out
}
