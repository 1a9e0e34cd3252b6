// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"bufio"
	"io"
	"strconv"
)

// EncodePBM writes a Portable Bit Map image displaying the code to w,
// for use with netpbm.  EncodePBM disregards c.Palette, as other PNM
// formats are not supported.
func (c *Code) EncodePBM(w io.Writer) error {
	if !c.isValid() {
		return ErrArgs
	}
	b := bufio.NewWriter(w)
	length := c.Pixels()
	ls := strconv.Itoa(length)
	if _, err := b.WriteString("P4\n" + ls + " " + ls + "\n"); err != nil {
		return err
	}
	row := make([]byte, (length+7)/8)
	q := c.QuietZone
	for y := -q; y < c.Size+q; y++ {
		c.pixelRow(row, y)
		for i := 0; i < c.Scale; i++ {
			if _, err := b.Write(row); err != nil {
				return err
			}
		}
	}
	return b.Flush()
}

// pixelRow sets row to pixel row y of the code, one bit per pixel
// with 1 for black.  y counts modules from the top of the code, so
// the quiet zone rows are negative or at least c.Size.
func (c *Code) pixelRow(row []byte, y int) {
	clear(row)
	if y < 0 || y >= c.Size {
		return
	}
	if c.Scale == 8 {
		pbmRow8(row[c.QuietZone:], c, y)
	} else {
		pbmRow(row, c, y)
	}
}

// pbmRow8 encodes row y of the code at scale 8, one byte per module.
func pbmRow8(row []byte, c *Code, y int) {
	for x := 0; x < c.Size; x++ {
		if c.Black(x, y) {
			row[x] = 0xff
		}
	}
}

// pbmRow encodes row y of the code at any scale.
func pbmRow(row []byte, c *Code, y int) {
	scale := c.Scale
	p := c.QuietZone * scale
	for x := 0; x < c.Size; x++ {
		if !c.Black(x, y) {
			p += scale
			continue
		}
		for end := p + scale; p < end; p++ {
			row[p>>3] |= 0x80 >> (p & 7)
		}
	}
}
