// cartdump takes a cartridge filename and prints its chunk listing to
// stdout. With -spew every decoded chunk (payload included) is dumped,
// with -code the program text is printed after building the memory image
// and with -sheet the 512 sprites are written out as a 128x256 PNG.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/fogleman/gg"
	"github.com/golang/glog"

	"github.com/jmchacon/tac70/atlas"
	"github.com/jmchacon/tac70/cart"
	"github.com/jmchacon/tac70/console"
	"github.com/jmchacon/tac70/memory"
	"github.com/jmchacon/tac70/palette"
)

var (
	dump  = flag.Bool("spew", false, "If true dump every chunk struct including payload bytes")
	code  = flag.Bool("code", false, "If true print the program text")
	sheet = flag.String("sheet", "", "If set write the sprite bank as a PNG to this path")
)

func main() {
	flag.Parse()
	defer glog.Flush()
	if len(flag.Args()) != 1 {
		glog.Fatalf("Invalid command: %s [-spew] [-code] [-sheet <png>] <filename>", os.Args[0])
	}
	fn := flag.Args()[0]

	c, err := cart.Load(fn)
	if err != nil {
		glog.Fatalf("Can't load %s - %v", fn, err)
	}
	fmt.Print(c)
	if *dump {
		spew.Dump(c.Chunks)
	}
	if !*code && *sheet == "" {
		return
	}

	img, err := console.Build(c)
	if err != nil {
		glog.Fatalf("Can't build %s - %v", fn, err)
	}
	if *code {
		fmt.Println("=== CODE ===")
		fmt.Println(img.Code)
	}
	if *sheet != "" {
		if err := gg.SavePNG(*sheet, spriteSheet(img.Arena)); err != nil {
			glog.Fatalf("Can't write %s - %v", *sheet, err)
		}
	}
}

// spriteSheet lays out every sprite the same way spr() addresses blocks.
func spriteSheet(a *memory.Arena) image.Image {
	at := atlas.New(a)
	p := palette.New(a)
	w := atlas.SheetWidth * atlas.TileSize
	h := memory.SpriteCount / atlas.SheetWidth * atlas.TileSize
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	blk := at.Block(0, atlas.SheetWidth, memory.SpriteCount/atlas.SheetWidth)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(x, y, p.Get(blk.Pix(x, y)).Opaque())
		}
	}
	return out
}
