// cartpack builds a cartridge from loose files. Each flag names one file
// which becomes one chunk, written in the order Code, Palette, Tiles,
// Sprites, Map, Flags.
//
// Tiles and sprites may be raw 4bpp sprite data or a PNG sprite sheet
// (16 sprites per row, up to 128x256 pixels) which is mapped onto the
// nearest palette colors. Both chunk types load at the start of the sprite
// bank. The palette may be 48 raw bytes or 96 hex digits.
package main

import (
	"encoding/hex"
	"flag"
	"image"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/glog"

	"github.com/jmchacon/tac70/atlas"
	"github.com/jmchacon/tac70/cart"
	"github.com/jmchacon/tac70/memory"
	"github.com/jmchacon/tac70/palette"
)

var (
	code    = flag.String("code", "", "Lua source for the Code chunk")
	pal     = flag.String("palette", "", "Palette as 48 raw bytes or 96 hex digits")
	tiles   = flag.String("tiles", "", "Tiles chunk as raw sprite bank bytes or a PNG sheet")
	sprites = flag.String("sprites", "", "Sprites chunk as raw sprite bank bytes or a PNG sheet")
	mapFile = flag.String("map", "", "Raw 240 byte wide map rows")
	flags   = flag.String("flags", "", "Raw sprite flag bytes")
	out     = flag.String("out", "", "Output cartridge path")
)

func read(path string) []uint8 {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		glog.Fatalf("Can't open %s - %v", path, err)
	}
	return b
}

// paletteBytes accepts either raw bytes or a hex string (whitespace and a
// leading # are ignored).
func paletteBytes(b []uint8) []uint8 {
	s := strings.TrimPrefix(strings.Join(strings.Fields(string(b)), ""), "#")
	if len(s) == 2*int(memory.Palette.Size) {
		if d, err := hex.DecodeString(s); err == nil {
			return d
		}
	}
	return b
}

// sheet converts a sprite sheet image into sprite bank data. Only whole
// rows of sprites the image touches are returned.
func sheet(img image.Image, p *palette.Palette) []uint8 {
	const w = atlas.SheetWidth * atlas.TileSize
	h := memory.SpriteCount / atlas.SheetWidth * atlas.TileSize
	a := memory.New()
	at := atlas.New(a)
	bounds := img.Bounds()
	if bounds.Dy() < h {
		h = bounds.Dy()
	}
	for y := 0; y < h; y++ {
		for x := 0; x < bounds.Dx() && x < w; x++ {
			s, _ := at.Sprite(x/atlas.TileSize + (y/atlas.TileSize)*atlas.SheetWidth)
			s.SetPix(x%atlas.TileSize, y%atlas.TileSize, p.Nearest(img.At(bounds.Min.X+x, bounds.Min.Y+y)))
		}
	}
	rows := (h + atlas.TileSize - 1) / atlas.TileSize
	return append([]uint8{}, a.View(memory.SpriteBank)[:rows*atlas.SheetWidth*memory.SpriteBytes]...)
}

func spriteData(path string, p *palette.Palette) []uint8 {
	if strings.ToLower(filepath.Ext(path)) != ".png" {
		return read(path)
	}
	img, err := gg.LoadPNG(path)
	if err != nil {
		glog.Fatalf("Can't decode %s - %v", path, err)
	}
	return sheet(img, p)
}

func main() {
	flag.Parse()
	defer glog.Flush()
	if *out == "" {
		glog.Fatalf("Invalid command: %s -out <cart> [-code <lua>] [-palette <file>] [-tiles <file>] [-sprites <file>] [-map <file>] [-flags <file>]", os.Args[0])
	}

	// PNG sheets are matched against the cart's own palette if there is one.
	a := memory.New()
	palette.Seed(a)
	c := &cart.Cartridge{Title: filepath.Base(*out)}
	add := func(t cart.ChunkType, data []uint8) {
		if len(data) > cart.MaxChunkSize {
			glog.Fatalf("%s data is %d bytes, max is %d", t, len(data), cart.MaxChunkSize)
		}
		c.Chunks = append(c.Chunks, cart.Chunk{Type: t, Data: data})
	}
	if *code != "" {
		add(cart.Code, read(*code))
	}
	if *pal != "" {
		b := paletteBytes(read(*pal))
		a.Load(memory.Palette, b)
		add(cart.Palette, b)
	}
	p := palette.New(a)
	if *tiles != "" {
		add(cart.Tiles, spriteData(*tiles, p))
	}
	if *sprites != "" {
		add(cart.Sprites, spriteData(*sprites, p))
	}
	if *mapFile != "" {
		add(cart.Map, read(*mapFile))
	}
	if *flags != "" {
		add(cart.Flags, read(*flags))
	}

	b, err := cart.Encode(c)
	if err != nil {
		glog.Fatalf("Can't encode - %v", err)
	}
	if err := ioutil.WriteFile(*out, b, 0644); err != nil {
		glog.Fatalf("Can't write %s - %v", *out, err)
	}
	glog.Infof("wrote %d chunks (%d bytes) to %s", len(c.Chunks), len(b), *out)
	os.Stdout.WriteString(c.String())
}
