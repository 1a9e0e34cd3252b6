// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command qr writes a QR code for its arguments or standard input.
package main

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt/v2"

	qr "github.com/unixdj/qrgen"
	"github.com/unixdj/qrgen/coding"
	"github.com/unixdj/qrgen/render"
	"github.com/unixdj/qrgen/scan"
)

var g = struct {
	style   render.Style // rendering style
	kind    render.Kind  // output format
	fn      string       // filename
	opts    qr.Options   // encoding options
	cx      int          // randr source X coordinate index in inc
	inc     [2]int       // randr source X,Y coordinate increments
	upper   bool         // uppercase
	verify  bool         // decode and compare
	bg, fg  colour       // colours
	colSet  bool         // colour set
	charset string       // byte mode charset
}{
	style: render.DefaultStyle(),
	inc:   [2]int{1, 1},
	bg:    colour{color.RGBA{0xff, 0xff, 0xff, 0xff}},
	fg:    colour{color.RGBA{0x00, 0x00, 0x00, 0xff}},
}

func printUsage(w io.Writer) {
	cl := getopt.CommandLine
	prog := cl.Program()
	ul := make([]string, 1, 4)
	ul[0] = cl.UsageLine() + " [string ...]"
	ml := max(70-len("Usage: ")-1-len(prog), 0)
	for i := 0; len(ul[i]) > ml; i++ {
		s := ul[i]
		n := ml - 1
		for n > 0 && (s[n] != ' ' || s[n+1] != '[') {
			n--
		}
		ul = append(ul, s[n+1:])
		ul[i] = s[:max(n, 0)]
		ml = 60
	}
	fmt.Fprint(w, "QR code generator\nUsage: ", prog, " ",
		strings.Join(ul, "\n          "), `
If no string is given, data is read from standard input and the final
newline is stripped.  Defaults: level M, smallest version, UTF-8 byte
mode, kanji mode segments enabled, no ECI segment.

`)
	var b bytes.Buffer
	cl.PrintOptions(&b)
	w.Write(b.Bytes())
}

type opt func()

func (opt) String() string                    { return "" }
func (o opt) Set(string, getopt.Option) error { o(); return nil }

func usage() {
	printUsage(os.Stderr)
	os.Exit(2)
}

func help() {
	printUsage(os.Stdout)
	os.Exit(0)
}

func version() {
	fmt.Println(`qr version 0.9.0
Copyright (c) 2011 The Go Authors
Copyright (c) 2025 Vadim Vygonets`)
	os.Exit(0)
}

func flip() {
	g.inc[0] = -g.inc[0]
}

func rotate() {
	g.cx ^= 1
	m := g.inc[0] * g.inc[1]
	g.inc[0] *= m
	g.inc[1] *= -m
}

// colour is a getopt.Value holding a colour.
type colour struct {
	color.RGBA
}

func (c *colour) String() string {
	switch c.RGBA {
	case color.RGBA{0x00, 0x00, 0x00, 0xff}:
		return "black"
	case color.RGBA{0xff, 0xff, 0xff, 0xff}:
		return "white"
	}
	return render.Hex(c.RGBA)
}

func (c *colour) Set(s string, _ getopt.Option) error {
	g.colSet = true
	v, err := render.ParseColor(s)
	if err != nil {
		return err
	}
	c.RGBA = v
	return nil
}

var formats = []string{
	"png", "jpeg", "svg", "bmp", "pbm", "eps", "utf8", "ascii",
}

func parseFlags() {
	getopt.SetUsage(usage)
	getopt.Flag(opt(help), 'h', "show this help").SetFlag()
	getopt.Flag(opt(version), 'V', "print version and copyright").SetFlag()
	getopt.FlagLong(&g.bg, "background", 'B', `background colour; see -F`,
		"RGB[A]|name")
	getopt.FlagLong(&g.fg, "foreground", 'F', `foreground colour `+
		`as 3, 4, 6 or 8 hex digits or SVG colour name; `+
		`ignored for types pbm, utf8 and ascii`, "RGB[A]|name")
	getopt.Flag(opt(flip), 'f', `flip code horizontally; `+
		`to flip vertically, use "-frr"`).SetFlag()
	getopt.Flag(opt(rotate), 'r', `rotate code 90° counterclockwise; `+
		`-r and -f may be given multiple times, `+
		`order matters: "-fr" = "-rfrr" = "-rrrf"`).SetFlag()
	getopt.Flag(&g.opts.NoKanji, 'K', "disable kanji mode")
	getopt.Flag(&g.charset, 'e', `byte mode character encoding, `+
		`e.g. latin1, shift_jis, windows-1251 [utf-8]`, "charset")
	getopt.Flag(&g.opts.ECI, 'E', "encode ECI segment announcing "+
		"the character encoding")
	getopt.Flag(&g.upper, 'i', `ignore case, convert input to uppercase`)
	getopt.Flag(&g.verify, 'c', `check the code by decoding it`)
	qz := getopt.Unsigned('m', 4, &getopt.UnsignedLimit{Base: 0, Bits: 8, Min: 0, Max: 100},
		`quiet zone in modules`, "margin")
	fno := getopt.Flag(&g.fn, 'o', `output file, or "-" for `+
		`standard output`, "file")
	ver := getopt.Unsigned('v', 0, &getopt.UnsignedLimit{Base: 0, Bits: 8, Min: 0, Max: 40},
		"QR code version, 0 for the smallest that fits", "ver")
	lev := getopt.Enum('l',
		[]string{"l", "m", "q", "h", "L", "M", "Q", "H"}, "m",
		"error correction level, lowest to highest", "l|m|q|h")
	scale := getopt.Unsigned('s', 8,
		&(getopt.UnsignedLimit{Base: 0, Bits: 28, Min: 1, Max: 1 << 12}),
		`image pixels (type eps: points) per QR module ("pixel"); `+
			`ignored for types utf8 and ascii`, "scale")
	width := getopt.Unsigned('w', 0,
		&(getopt.UnsignedLimit{Base: 0, Bits: 16, Min: 0, Max: render.MaxWidth}),
		`image width in pixels, overrides -s; `+
			`for types png, jpeg, bmp and svg`, "width")
	ff := getopt.Enum('t', formats, "", `output format, one of: `+
		strings.Join(formats, ", ")+
		`; if no -o is given and standard output is a TTY, `+
		`default is utf8, otherwise png`, "type")

	getopt.Parse()
	g.opts.Version = coding.Version(*ver)
	g.opts.Level = qr.Level(strings.Index("lmqhLMQH", *lev) & 3)
	g.opts.Encoding = g.charset
	g.style.Scale = int(*scale)
	g.style.Width = int(*width)
	g.style.QuietZone = int(*qz)
	if *ff == "" {
		if !fno.Seen() && isatty.IsTerminal(uintptr(syscall.Stdout)) {
			*ff = "utf8"
		} else {
			*ff = "png"
		}
	}
	k, err := render.ParseKind(*ff)
	if err != nil {
		log.Fatalln(err)
	}
	g.kind = k
	if g.fn == "-" {
		g.fn = ""
	}
	if g.colSet {
		g.style.Background = g.bg.RGBA
		g.style.Foreground = g.fg.RGBA
	}
}

func main() {
	log.SetFlags(0)
	parseFlags()

	var s string
	if args := getopt.Args(); len(args) != 0 {
		s = strings.Join(args, " ")
	} else {
		var b strings.Builder
		if _, err := io.Copy(&b, os.Stdin); err != nil {
			log.Fatalln(err)
		}
		s, _ = strings.CutSuffix(
			strings.ReplaceAll(b.String(), "\r\n", "\n"), "\n")
	}
	if g.upper {
		s = strings.ToUpper(s)
	}

	c, err := qr.EncodeText(s, g.opts)
	if err != nil {
		log.Fatalln(err)
	}
	if g.verify {
		if err := scan.Verify(c, s); err != nil {
			log.Fatalln(err)
		}
	}
	write(randr(c))
}

func write(c *qr.Code) {
	var w = os.Stdout
	if g.fn != "" {
		var err error
		if w, err = os.OpenFile(g.fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC,
			0666); err != nil {
			log.Fatalln(err)
		}
	}
	err := render.Render(w, g.kind, c, g.style)
	if g.fn != "" && err == nil {
		err = w.Close()
	}
	if err != nil {
		log.Fatalln(err)
	}
}

// randr rotates and reflects c.
func randr(c *qr.Code) *qr.Code {
	cx, inc := g.cx, g.inc
	if cx == 0 && inc == [2]int{1, 1} {
		return c
	}
	b := make([]byte, 0, len(c.Bitmap))
	var coord [2]int
	siz := c.Size
	coord[cx^1] = (siz - 1) & inc[1]
	for y := 0; y < siz; y++ {
		coord[cx] = (siz - 1) & inc[0]
		var bb byte
		for x := 0; x < siz; x++ {
			bb <<= 1
			if c.Black(coord[0], coord[1]) {
				bb |= 1
			}
			if x&7 == 7 {
				b = append(b, bb)
			}
			coord[cx] += inc[0]
		}
		b = append(b, bb<<(8-siz&7))
		coord[cx^1] += inc[1]
	}
	cc := *c
	cc.Bitmap = b
	return &cc
}
