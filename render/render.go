// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render writes QR codes as images and text.
package render // import "github.com/unixdj/qrgen/render"

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	qr "github.com/unixdj/qrgen"
)

var (
	ErrKind  = errors.New("render: unknown output type")
	ErrColor = errors.New("render: bad colour spec")
	ErrSize  = errors.New("render: bad size")
)

// A Kind is an output format.
type Kind int

const (
	PNG Kind = iota
	JPEG
	SVG
	BMP
	PBM
	EPS
	Text  // UTF-8 half blocks
	ASCII // two "#" per dark module
	nkinds
)

var kinds = [nkinds]struct {
	name, ext, mime string
}{
	PNG:   {"png", "png", "image/png"},
	JPEG:  {"jpeg", "jpg", "image/jpeg"},
	SVG:   {"svg", "svg", "image/svg+xml"},
	BMP:   {"bmp", "bmp", "image/bmp"},
	PBM:   {"pbm", "pbm", "image/x-portable-bitmap"},
	EPS:   {"eps", "eps", "application/postscript"},
	Text:  {"utf8", "txt", "text/plain; charset=utf-8"},
	ASCII: {"ascii", "txt", "text/plain; charset=us-ascii"},
}

func (k Kind) valid() bool { return 0 <= k && k < nkinds }

func (k Kind) String() string {
	if !k.valid() {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kinds[k].name
}

// Ext returns the filename extension for k, without the dot.
func (k Kind) Ext() string {
	if !k.valid() {
		return ""
	}
	return kinds[k].ext
}

// ContentType returns the MIME type of k.
func (k Kind) ContentType() string {
	if !k.valid() {
		return "application/octet-stream"
	}
	return kinds[k].mime
}

// Filename returns the download filename for k, e.g. "qrcode.png".
func Filename(k Kind) string {
	return "qrcode." + k.Ext()
}

// ParseKind returns the Kind named by name, which may also be a
// filename extension.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "svg":
		return SVG, nil
	case "bmp":
		return BMP, nil
	case "pbm":
		return PBM, nil
	case "eps", "ps":
		return EPS, nil
	case "utf8", "txt", "text":
		return Text, nil
	case "ascii":
		return ASCII, nil
	}
	return 0, fmt.Errorf("%w %q", ErrKind, name)
}

// Style describes how a code is drawn.
type Style struct {
	Scale      int         // pixels (EPS: points) per module; 0 keeps the code's
	Width      int         // image width in pixels; 0 means Scale decides
	Foreground color.Color // nil means black
	Background color.Color // nil means white
	QuietZone  int         // quiet zone in modules; -1 keeps the code's
}

// DefaultStyle returns black on white at 8 pixels per module with
// the code's quiet zone.
func DefaultStyle() Style {
	return Style{Scale: 8, QuietZone: -1}
}

// apply returns a copy of c with s applied.
func (s Style) apply(c *qr.Code) *qr.Code {
	cc := *c
	if s.Scale > 0 {
		cc.Scale = s.Scale
	}
	if s.QuietZone >= 0 {
		cc.QuietZone = s.QuietZone
	}
	if cc.Scale <= 0 {
		cc.Scale = 1
	}
	if s.Width > 0 {
		cc.Scale = max(s.Width/(cc.Size+2*cc.QuietZone), 1)
	}
	if s.Foreground != nil || s.Background != nil {
		bg, fg := c.Colors()
		if s.Background != nil {
			bg = s.Background
		}
		if s.Foreground != nil {
			fg = s.Foreground
		}
		cc.Palette = &[2]color.Color{bg, fg}
	}
	return &cc
}

// A Renderer writes a code to w.
type Renderer interface {
	Render(w io.Writer, c *qr.Code, s Style) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(w io.Writer, c *qr.Code, s Style) error

func (f RendererFunc) Render(w io.Writer, c *qr.Code, s Style) error {
	return f(w, c, s)
}

var renderers = [nkinds]Renderer{
	PNG:   RendererFunc(renderPNG),
	JPEG:  RendererFunc(renderJPEG),
	SVG:   RendererFunc(renderSVG),
	BMP:   RendererFunc(renderBMP),
	PBM:   RendererFunc(renderPBM),
	EPS:   RendererFunc(renderEPS),
	Text:  RendererFunc(renderText),
	ASCII: RendererFunc(renderASCII),
}

// For returns the Renderer for k.
func For(k Kind) (Renderer, error) {
	if !k.valid() {
		return nil, fmt.Errorf("%w %v", ErrKind, k)
	}
	return renderers[k], nil
}

// Render writes c to w in format k.
func Render(w io.Writer, k Kind, c *qr.Code, s Style) error {
	r, err := For(k)
	if err != nil {
		return err
	}
	return r.Render(w, c, s)
}

// Size presets in pixels.
var sizePresets = map[string]int{
	"small":  200,
	"medium": 400,
	"large":  600,
	"xlarge": 800,
}

// MaxWidth is the largest image width SizePreset accepts.
const MaxWidth = 4000

// SizePreset returns the width for a preset name (small, medium,
// large, xlarge) or a number of pixels.
func SizePreset(s string) (int, error) {
	if n, ok := sizePresets[strings.ToLower(s)]; ok {
		return n, nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "px"))
	if err != nil || n <= 0 || n > MaxWidth {
		return 0, fmt.Errorf("%w %q", ErrSize, s)
	}
	return n, nil
}

// ParseColor parses "#rgb", "#rgba", "#rrggbb", "#rrggbbaa" (the "#"
// is optional) or an SVG/X11 colour name.
func ParseColor(s string) (color.RGBA, error) {
	name := strings.ToLower(strings.ReplaceAll(s, " ", ""))
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}
	h := strings.TrimPrefix(name, "#")
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w %q", ErrColor, s)
	}
	switch len(h) {
	case 3:
		n = n<<4 | 0xf
		fallthrough
	case 4:
		var nn uint64
		for i := 0; i < 4; i++ {
			nn = nn<<8 | n>>12&0xf*0x11
			n <<= 4
		}
		n = nn
	case 6:
		n = n<<8 | 0xff
	case 8:
	default:
		return color.RGBA{}, fmt.Errorf("%w %q", ErrColor, s)
	}
	nc := color.NRGBA{uint8(n >> 24), uint8(n >> 16), uint8(n >> 8), uint8(n)}
	return color.RGBAModel.Convert(nc).(color.RGBA), nil
}

// Hex formats c as "#rrggbb", or "#rrggbbaa" if it is not opaque.
func Hex(c color.Color) string {
	r := color.NRGBAModel.Convert(c).(color.NRGBA)
	if r.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", r.R, r.G, r.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", r.R, r.G, r.B, r.A)
}
