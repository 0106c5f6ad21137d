package main

import (
	"image"
	"testing"

	"github.com/go-test/deep"

	"github.com/jmchacon/tac70/atlas"
	"github.com/jmchacon/tac70/memory"
	"github.com/jmchacon/tac70/palette"
)

func TestPaletteBytes(t *testing.T) {
	raw := make([]uint8, memory.Palette.Size)
	for i := range raw {
		raw[i] = uint8(i)
	}
	hexed := "#000102030405060708090a0b0c0d0e0f\n101112131415161718191a1b1c1d1e1f\n202122232425262728292a2b2c2d2e2f\n"
	tests := []struct {
		name string
		in   []uint8
		want []uint8
	}{
		{"raw", raw, raw},
		{"hex", []uint8(hexed), raw},
		{"short hex stays raw", []uint8("0001"), []uint8("0001")},
	}
	for _, test := range tests {
		if diff := deep.Equal(paletteBytes(test.in), test.want); diff != nil {
			t.Errorf("%s: %v", test.name, diff)
		}
	}
}

func TestSheet(t *testing.T) {
	a := memory.New()
	palette.Seed(a)
	p := palette.New(a)

	// Two rows of sprites. Sprite 17 (second row, second column) is color 5.
	img := image.NewNRGBA(image.Rect(0, 0, 128, 16))
	for y := 8; y < 16; y++ {
		for x := 8; x < 16; x++ {
			img.Set(x, y, palette.Default[5].Opaque())
		}
	}
	got := sheet(img, p)
	if want := 2 * atlas.SheetWidth * memory.SpriteBytes; len(got) != want {
		t.Fatalf("len = %d, want %d", len(got), want)
	}
	for i, b := range got {
		want := uint8(0)
		if i/memory.SpriteBytes == 17 {
			want = 0x55
		}
		if b != want {
			t.Fatalf("byte %d = 0x%.2X, want 0x%.2X", i, b, want)
		}
	}

	// Larger than the bank is clipped to 512 sprites.
	if got := sheet(image.NewNRGBA(image.Rect(0, 0, 200, 300)), p); len(got) != int(memory.SpriteBank.Size) {
		t.Errorf("oversized sheet len = %d, want %d", len(got), memory.SpriteBank.Size)
	}
}
