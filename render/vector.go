// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"bufio"
	"fmt"
	"image/color"
	"io"

	qr "github.com/unixdj/qrgen"
)

// runs calls f for each run of dark modules in row y of c, with the
// column where the run starts and its length.
func runs(c *qr.Code, y int, f func(x, n int)) {
	for x := 0; x < c.Size; {
		for x < c.Size && !c.Black(x, y) {
			x++
		}
		if x == c.Size {
			break
		}
		b := x
		for x < c.Size && c.Black(x, y) {
			x++
		}
		f(b, x-b)
	}
}

// renderSVG writes one path made of horizontal runs, in module
// units.  The viewBox includes the quiet zone.
func renderSVG(w io.Writer, c *qr.Code, s Style) error {
	cc := s.apply(c)
	q := cc.QuietZone
	n := cc.Size + 2*q
	width := s.Width
	if width <= 0 {
		width = cc.Pixels()
	}
	bg, fg := cc.Colors()
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" version="1.1" viewBox="0 0 %d %d" width="%d" height="%d" shape-rendering="crispEdges">
<rect width="%d" height="%d" fill="%s"/>
<path fill="%s" d="`, n, n, width, width, n, n, Hex(bg), Hex(fg))
	for y := 0; y < cc.Size; y++ {
		runs(cc, y, func(x, n int) {
			fmt.Fprintf(b, "M%d,%dh%dv1h-%dz", q+x, q+y, n, n)
		})
	}
	b.WriteString("\"/>\n</svg>\n")
	return b.Flush()
}

func rgb(c color.Color) (r, g, b float64) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return float64(n.R) / 0xff, float64(n.G) / 0xff, float64(n.B) / 0xff
}

// renderEPS writes Encapsulated PostScript drawing each run of dark
// modules as a stroke one module wide.  Scale is in points.
func renderEPS(w io.Writer, c *qr.Code, s Style) error {
	cc := s.apply(c)
	q := cc.QuietZone
	n := cc.Size + 2*q
	pt := n * cc.Scale
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, `%%!PS-Adobe-3.0 EPSF-3.0
%%%%Creator: qrgen https://github.com/unixdj/qrgen
%%%%Title: QR Code
%%%%BoundingBox: 0 0 %d %d
%%%%EndComments
%%%%EndProlog
<< >> begin
gsave
0 %d translate
%d dup neg scale
/p { 0 rmoveto 0 rlineto } def
/r { 0 exch moveto } def
`, pt, pt, pt, cc.Scale)
	if cc.Palette != nil {
		bg, fg := cc.Colors()
		br, bgr, bb := rgb(bg)
		fr, fgr, fb := rgb(fg)
		fmt.Fprintf(b, "%.3g %.3g %.3g setrgbcolor\n0 0 %d %d rectfill\n"+
			"%.3g %.3g %.3g setrgbcolor\n", br, bgr, bb, n, n, fr, fgr, fb)
	}
	b.WriteString("1 setlinewidth\nnewpath\n")
	for y := 0; y < cc.Size; y++ {
		fmt.Fprintf(b, "%d.5 r ", q+y)
		last := -q
		runs(cc, y, func(x, n int) {
			fmt.Fprintf(b, "%d %d p ", n, x-last)
			last = x + n
		})
		b.WriteString("\n")
	}
	b.WriteString("stroke grestore\nend\n%%Trailer\n%%EOF\n")
	return b.Flush()
}
