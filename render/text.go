// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"io"

	qr "github.com/unixdj/qrgen"
)

// renderText writes the code as half blocks drawing light modules,
// for terminals with a dark background.  Scale and colours are
// ignored.
func renderText(w io.Writer, c *qr.Code, s Style) error {
	_, err := io.WriteString(w, s.apply(c).String())
	return err
}

// renderASCII writes two characters per module, "##" for dark and
// spaces for light.
func renderASCII(w io.Writer, c *qr.Code, s Style) error {
	cc := s.apply(c)
	siz := cc.Size
	bord := cc.QuietZone
	pix := siz + 2*bord
	b := make([]byte, (pix*2+1)*pix)
	i := 0
	for y := -bord; y < siz+bord; y++ {
		for x := -bord; x < siz+bord; x++ {
			var p byte = ' '
			if cc.Black(x, y) {
				p = '#'
			}
			b[i], b[i+1] = p, p
			i += 2
		}
		b[i] = '\n'
		i++
	}
	_, err := w.Write(b)
	return err
}
