// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package qr encodes QR codes.

Text is split into segments by package split, which also picks the
smallest version holding them, and encoded by package coding.  The
resulting Code can be drawn as an image.Image, written as PBM, or
rendered in other formats by package render.
*/
package qr // import "github.com/unixdj/qrgen"

import (
	"errors"
	"image"
	"image/color"
	"strings"

	"github.com/unixdj/qrgen/coding"
	"github.com/unixdj/qrgen/split"
)

// A Level denotes a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
type Level = coding.Level

const (
	L = coding.L // 20% redundant
	M = coding.M // 38% redundant
	Q = coding.Q // 55% redundant
	H = coding.H // 65% redundant
)

// Errors.  Errors returned by this package wrap one of these, so
// test them with errors.Is.
var (
	ErrEmptyContent       = split.ErrEmptyContent
	ErrDataTooLong        = coding.ErrDataTooLong
	ErrUnsupportedVersion = coding.ErrUnsupportedVersion
	ErrNotEncodable       = split.ErrNotEncodable
	ErrEncoding           = split.ErrEncoding
	ErrInternal           = coding.ErrInternal
	ErrArgs               = errors.New("qr: invalid arguments")
)

// DefaultQuietZone is the width of the quiet zone in modules.
const DefaultQuietZone = 4

// Options control encoding.
type Options struct {
	Level    Level          // error correction level
	Version  coding.Version // 0 means the smallest version that fits
	Encoding string         // byte mode charset label; "" means UTF-8
	ECI      bool           // begin with an ECI segment for Encoding
	NoKanji  bool           // don't use kanji mode
}

// DefaultOptions returns Options for level M, the smallest version
// and UTF-8.
func DefaultOptions() Options { return Options{Level: M} }

// An Encoder turns text into a Code.
type Encoder interface {
	Encode(text string, o Options) (*Code, error)
}

type native struct{}

func (native) Encode(text string, o Options) (*Code, error) {
	return EncodeText(text, o)
}

// Native is the Encoder implemented by this module.
var Native Encoder = native{}

// Encode returns an encoding of text at the given error correction
// level, in the smallest version that holds it.
func Encode(text string, level Level) (*Code, error) {
	return EncodeText(text, Options{Level: level})
}

// EncodeText returns an encoding of text according to o.
func EncodeText(text string, o Options) (*Code, error) {
	cs, err := split.LookupCharset(o.Encoding)
	if err != nil {
		return nil, err
	}
	t := split.Text{Text: text, Charset: cs, ECI: o.ECI, NoKanji: o.NoKanji}
	var segs []coding.Segment
	v := o.Version
	if v == 0 {
		segs, v, err = split.Split(t, o.Level)
	} else {
		segs, err = split.SplitVersion(t, v, o.Level)
	}
	if err != nil {
		return nil, err
	}
	cc, err := coding.Encode(v, o.Level, segs...)
	if err != nil {
		return nil, err
	}
	return newCode(cc), nil
}

func newCode(cc *coding.Code) *Code {
	return &Code{
		Bitmap:    cc.Bitmap,
		Size:      cc.Size,
		Stride:    cc.Stride,
		Version:   cc.Version,
		Level:     cc.Level,
		Mask:      cc.Mask,
		QuietZone: DefaultQuietZone,
		Scale:     8,
	}
}

// A Code is a square pixel grid surrounded by a quiet zone.
// It implements image.Image and direct PBM encoding.
type Code struct {
	Bitmap []byte // 1 is black, 0 is white
	Size   int    // number of pixels on a side
	Stride int    // number of bytes per row

	Version coding.Version
	Level   Level
	Mask    int // mask pattern, 0 to 7

	QuietZone int             // quiet zone width in modules
	Scale     int             // number of image pixels per QR pixel
	Palette   *[2]color.Color // background and foreground; nil is black on white
}

func (c *Code) isValid() bool {
	return c != nil && c.Size > 0 && c.Stride >= (c.Size+7)/8 &&
		len(c.Bitmap) >= c.Stride*c.Size &&
		c.Scale > 0 && c.QuietZone >= 0
}

// Black returns true if the pixel at (x,y) is black.
// Pixels outside the code, including the quiet zone, are white.
func (c *Code) Black(x, y int) bool {
	return 0 <= x && x < c.Size && 0 <= y && y < c.Size &&
		c.Bitmap[y*c.Stride+x/8]&(1<<uint(7-x&7)) != 0
}

// Pixels returns the side of the image in pixels, quiet zone included.
func (c *Code) Pixels() int {
	return (c.Size + 2*c.QuietZone) * c.Scale
}

// Colors returns the background and foreground colours.
func (c *Code) Colors() (bg, fg color.Color) {
	if c.Palette != nil {
		return c.Palette[0], c.Palette[1]
	}
	return whiteColor, blackColor
}

// Image returns an Image displaying the code.
func (c *Code) Image() image.Image {
	bg, fg := c.Colors()
	return &codeImage{c, color.Palette{bg, fg}}
}

// String returns the code drawn with Unicode half blocks, two rows
// per line.  Light modules are drawn, so that the code reads on a
// terminal with a dark background.
func (c *Code) String() string {
	return c.halfBlocks(true)
}

// halfBlocks draws the code with half blocks, drawing light modules
// if light is true and dark modules otherwise.
func (c *Code) halfBlocks(light bool) string {
	blocks := [4]string{" ", "▄", "▀", "█"}
	q := c.QuietZone
	var b strings.Builder
	for y := -q; y < c.Size+q; y += 2 {
		for x := -q; x < c.Size+q; x++ {
			top := c.Black(x, y) != light
			bot := y+1 < c.Size+q && c.Black(x, y+1) != light
			b.WriteString(blocks[b2i(top)<<1|b2i(bot)])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Blocks is like String but draws dark modules, for light backgrounds.
func (c *Code) Blocks() string {
	return c.halfBlocks(false)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// codeImage implements image.Image
type codeImage struct {
	*Code
	pal color.Palette
}

var (
	whiteColor color.Color = color.Gray{0xFF}
	blackColor color.Color = color.Gray{0x00}
)

func (c *codeImage) Bounds() image.Rectangle {
	d := c.Pixels()
	return image.Rect(0, 0, d, d)
}

func (c *codeImage) At(x, y int) color.Color {
	if x < 0 || y < 0 {
		return c.pal[0]
	}
	q := c.QuietZone
	if c.Black(x/c.Scale-q, y/c.Scale-q) {
		return c.pal[1]
	}
	return c.pal[0]
}

// ColorIndexAt returns the palette index of the pixel at (x,y),
// making codeImage usable as an image.PalettedImage.
func (c *codeImage) ColorIndexAt(x, y int) uint8 {
	if x < 0 || y < 0 {
		return 0
	}
	q := c.QuietZone
	return uint8(b2i(c.Black(x/c.Scale-q, y/c.Scale-q)))
}

func (c *codeImage) ColorModel() color.Model {
	return c.pal
}
