// Package cart implements decoding and encoding of the chunked cartridge
// format. A cartridge is simply a run of records until end of input:
//
//	[5 bit type | 3 bit bank] [u16 little endian size] [reserved] [size bytes]
//
// The decoder never interprets the payloads, that's left to the console
// when it builds the memory image.
package cart

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"

	"github.com/golang/glog"
)

// ChunkType is the 5 bit chunk type selector. All 32 values are valid to
// decode even though only some have a meaning.
type ChunkType uint8

const (
	Dummy    ChunkType = 0
	Tiles    ChunkType = 1
	Sprites  ChunkType = 2
	CoverDep ChunkType = 3 // Deprecated.
	Map      ChunkType = 4
	Code     ChunkType = 5
	Flags    ChunkType = 6
	Samples  ChunkType = 9
	Waveform ChunkType = 10
	Palette  ChunkType = 12
	// PatternsDep is deprecated.
	PatternsDep ChunkType = 13
	Music       ChunkType = 14
	Patterns    ChunkType = 15
	CodeZip     ChunkType = 16 // Deprecated.
	Default     ChunkType = 17
	Screen      ChunkType = 18
	Binary      ChunkType = 19

	kMAX_TYPE = ChunkType(0x1F)
	kMAX_BANK = uint8(0x07)

	kMASK_TYPE  = uint8(0x1F)
	kShiftBank  = 5
	kHeaderSize = 4

	// MaxChunkSize is the largest payload a single record can describe.
	MaxChunkSize = 0xFFFF

	// DefaultTitle is used when a cartridge isn't loaded from a named file.
	DefaultTitle = "cart.tic"
)

var typeNames = map[ChunkType]string{
	Dummy:       "Dummy",
	Tiles:       "Tiles",
	Sprites:     "Sprites",
	CoverDep:    "CoverDep",
	Map:         "Map",
	Code:        "Code",
	Flags:       "Flags",
	Samples:     "Samples",
	Waveform:    "Waveform",
	Palette:     "Palette",
	PatternsDep: "PatternsDep",
	Music:       "Music",
	Patterns:    "Patterns",
	CodeZip:     "CodeZip",
	Default:     "Default",
	Screen:      "Screen",
	Binary:      "Binary",
}

func (t ChunkType) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Unknown(%d)", uint8(t))
}

// Known returns true for any type with an assigned meaning (including deprecated ones).
func (t ChunkType) Known() bool {
	_, ok := typeNames[t]
	return ok
}

// Deprecated returns true for the legacy types which are retained but never used.
func (t ChunkType) Deprecated() bool {
	return t == CoverDep || t == PatternsDep || t == CodeZip
}

// Chunk is a single typed, banked record.
type Chunk struct {
	Type     ChunkType
	Bank     uint8 // 0-7
	Reserved uint8 // Carried through untouched so encoding is byte exact.
	Data     []uint8
}

// Size returns the payload length.
func (c Chunk) Size() int {
	return len(c.Data)
}

// Cartridge is a decoded cartridge. Chunks are in the order they were read.
type Cartridge struct {
	Title  string
	Chunks []Chunk
}

// A few custom error types to distinguish why decoding stopped.

// UnexpectedEOF is returned when a header or payload is cut short.
type UnexpectedEOF struct {
	Offset int    // Offset of the record being read.
	What   string // "header" or "payload".
	Want   int
	Got    int
}

// Error implements the interface for error types.
func (e *UnexpectedEOF) Error() string {
	return fmt.Sprintf("truncated chunk %s at offset 0x%.4X: want %d bytes, got %d", e.What, e.Offset, e.Want, e.Got)
}

// Unwrap lets errors.Is match io.ErrUnexpectedEOF.
func (e *UnexpectedEOF) Unwrap() error {
	return io.ErrUnexpectedEOF
}

// InvalidChunk is returned by Encode for a chunk that can't be represented.
type InvalidChunk struct {
	Index  int
	Reason string
}

// Error implements the interface for error types.
func (e *InvalidChunk) Error() string {
	return fmt.Sprintf("invalid chunk %d: %s", e.Index, e.Reason)
}

// Decode parses b into a cartridge. Any truncation is an error and no
// partial cartridge is returned.
func Decode(b []uint8) (*Cartridge, error) {
	c := &Cartridge{
		Title: DefaultTitle,
	}
	for off := 0; off < len(b); {
		if rem := len(b) - off; rem < kHeaderSize {
			return nil, &UnexpectedEOF{Offset: off, What: "header", Want: kHeaderSize, Got: rem}
		}
		info := b[off]
		size := int(binary.LittleEndian.Uint16(b[off+1 : off+3]))
		reserved := b[off+3]
		start := off + kHeaderSize
		if rem := len(b) - start; rem < size {
			return nil, &UnexpectedEOF{Offset: off, What: "payload", Want: size, Got: rem}
		}
		ch := Chunk{
			Type:     ChunkType(info & kMASK_TYPE),
			Bank:     info >> kShiftBank,
			Reserved: reserved,
			Data:     make([]uint8, size),
		}
		copy(ch.Data, b[start:start+size])
		if glog.V(3) {
			glog.Infof("chunk at 0x%.4X: type %s bank %d size %d", off, ch.Type, ch.Bank, size)
		}
		c.Chunks = append(c.Chunks, ch)
		off = start + size
	}
	return c, nil
}

// Encode serializes the cartridge in the same format Decode reads.
func Encode(c *Cartridge) ([]uint8, error) {
	var b bytes.Buffer
	for i, ch := range c.Chunks {
		if ch.Type > kMAX_TYPE {
			return nil, &InvalidChunk{i, fmt.Sprintf("type %d doesn't fit in 5 bits", uint8(ch.Type))}
		}
		if ch.Bank > kMAX_BANK {
			return nil, &InvalidChunk{i, fmt.Sprintf("bank %d doesn't fit in 3 bits", ch.Bank)}
		}
		if len(ch.Data) > MaxChunkSize {
			return nil, &InvalidChunk{i, fmt.Sprintf("payload of %d bytes is over %d", len(ch.Data), MaxChunkSize)}
		}
		var hdr [kHeaderSize]uint8
		hdr[0] = uint8(ch.Type) | ch.Bank<<kShiftBank
		binary.LittleEndian.PutUint16(hdr[1:3], uint16(len(ch.Data)))
		hdr[3] = ch.Reserved
		b.Write(hdr[:])
		b.Write(ch.Data)
	}
	return b.Bytes(), nil
}

// Load reads and decodes the cartridge at path. The title is the base file name.
func Load(path string) (*Cartridge, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read cartridge: %w", err)
	}
	c, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("can't decode %s: %w", path, err)
	}
	c.Title = filepath.Base(path)
	glog.Infof("loaded %s: %d chunks from %d bytes", c.Title, len(c.Chunks), len(b))
	return c, nil
}

// Find returns every chunk of type t in decode order.
func (c *Cartridge) Find(t ChunkType) []Chunk {
	var out []Chunk
	for _, ch := range c.Chunks {
		if ch.Type == t {
			out = append(out, ch)
		}
	}
	return out
}

// String returns a human readable listing of the chunks.
func (c *Cartridge) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "=== CARTRIDGE %s ===\n", c.Title)
	for _, ch := range c.Chunks {
		fmt.Fprintf(&b, "BANK: %d SIZE: %d TYPE: %s\n", ch.Bank, ch.Size(), ch.Type)
	}
	return b.String()
}
