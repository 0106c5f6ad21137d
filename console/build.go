package console

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/golang/glog"

	"github.com/jmchacon/tac70/atlas"
	"github.com/jmchacon/tac70/cart"
	"github.com/jmchacon/tac70/memory"
	"github.com/jmchacon/tac70/palette"
)

// MemoryImage is the arena built from a cartridge plus the program text.
type MemoryImage struct {
	Arena *memory.Arena
	Title string
	Code  string
}

// InvalidCode is returned when a Code chunk isn't valid UTF-8 text.
type InvalidCode struct {
	Index  int // Chunk index in the cartridge.
	Offset int // First bad byte in the payload.
}

// Error implements the interface for error types.
func (e *InvalidCode) Error() string {
	return fmt.Sprintf("chunk %d: code isn't valid UTF-8 at byte %d", e.Index, e.Offset)
}

// UnsupportedChunk is returned for a chunk type that has no destination.
type UnsupportedChunk struct {
	Index int
	Type  cart.ChunkType
}

// Error implements the interface for error types.
func (e *UnsupportedChunk) Error() string {
	return fmt.Sprintf("chunk %d: unsupported chunk type %s", e.Index, e.Type)
}

// destinations maps the chunk types that copy straight into memory. Tiles
// and Sprites both start at the bank base so whichever comes last wins.
var destinations = map[cart.ChunkType]memory.Region{
	cart.Tiles:    memory.SpriteBank,
	cart.Sprites:  memory.SpriteBank,
	cart.Map:      memory.Map,
	cart.Samples:  memory.Samples,
	cart.Waveform: memory.Waveforms,
	cart.Flags:    memory.Flags,
	cart.Music:    memory.Music,
	cart.Patterns: memory.Patterns,
	// Only the first 48 bytes. The rest of a 96 byte chunk is reserved.
	cart.Palette: memory.Palette,
}

// inert chunk types are recognized and skipped.
var inert = map[cart.ChunkType]bool{
	cart.Default: true,
	cart.Screen:  true,
}

// Build applies every chunk of c in order to a fresh arena. The default
// palette goes in first so a cartridge without one still renders, and the
// built in font goes in last.
func Build(c *cart.Cartridge) (*MemoryImage, error) {
	a := memory.New()
	palette.Seed(a)
	var code []uint8
	for i, ch := range c.Chunks {
		if r, ok := destinations[ch.Type]; ok {
			n := a.Load(r, ch.Data)
			if n < len(ch.Data) {
				glog.Warningf("chunk %d (%s): %d of %d bytes fit in %s", i, ch.Type, n, len(ch.Data), r)
			}
			if glog.V(2) {
				glog.Infof("chunk %d (%s bank %d): %d bytes to %s", i, ch.Type, ch.Bank, n, r)
			}
			continue
		}
		switch {
		case ch.Type == cart.Code:
			if !utf8.Valid(ch.Data) {
				return nil, &InvalidCode{Index: i, Offset: firstInvalid(ch.Data)}
			}
			if len(ch.Data) > len(code) {
				code = append(code, make([]uint8, len(ch.Data)-len(code))...)
			}
			copy(code, ch.Data)
			if glog.V(2) {
				glog.Infof("chunk %d (%s bank %d): %d bytes of code", i, ch.Type, ch.Bank, len(ch.Data))
			}
		case inert[ch.Type]:
			glog.Warningf("chunk %d (%s): ignored", i, ch.Type)
		default:
			return nil, &UnsupportedChunk{Index: i, Type: ch.Type}
		}
	}
	atlas.SeedFont(a)
	return &MemoryImage{
		Arena: a,
		Title: c.Title,
		Code:  string(bytes.TrimRight(code, "\x00")),
	}, nil
}

func firstInvalid(b []uint8) int {
	for i := 0; i < len(b); {
		r, n := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && n <= 1 {
			return i
		}
		i += n
	}
	return len(b)
}
