// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

/*
Bespoke PNG Encoder

The image is 1 bit per pixel, grey for black on white and paletted
otherwise.  The zlib stream is a single DEFLATE block with fixed
Huffman codes, and its vocabulary is limited to:

  - Literals.
  - Repeating the previous row of pixels, which covers every row but
    the first of each module row and all of the quiet zone but its
    first row.
  - Repeating the last byte, for runs of same-coloured bytes within
    a row (modules at scales 8 and up, the quiet zone).

No searching is done, so encoding takes time linear in the number of
distinct rows.
*/

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/adler32"
	"hash/crc32"
	"image/color"
	"io"
	"math/bits"
)

var ErrLargeImage = errors.New("qr: image too large")

// PNG returns a PNG image displaying the code, or nil if c is not
// valid or the image would be over 64 gigapixels.
func (c *Code) PNG() []byte {
	var b bytes.Buffer
	if err := c.EncodePNG(&b); err != nil {
		return nil
	}
	return b.Bytes()
}

// EncodePNG writes a PNG image displaying the code to w.
func (c *Code) EncodePNG(w io.Writer) error {
	if w == nil || !c.isValid() {
		return ErrArgs
	}
	pix := c.Pixels()
	if pix > 32767*8 {
		return ErrLargeImage // rows must fit in the DEFLATE window
	}
	var p pngWriter
	pal, gray := c.pngPalette()

	p.buf.WriteString(pngHeader)

	binary.BigEndian.PutUint32(p.tmp[0:4], uint32(pix))
	binary.BigEndian.PutUint32(p.tmp[4:8], uint32(pix))
	p.tmp[8] = 1 // 1-bit
	if gray {
		p.tmp[9] = 0
	} else {
		p.tmp[9] = 3 // palette
	}
	p.tmp[10] = 0 // deflate
	p.tmp[11] = 0 // adaptive filtering
	p.tmp[12] = 0 // no interlace
	p.writeChunk("IHDR", p.tmp[:13])

	if !gray {
		p.tmp[0], p.tmp[1], p.tmp[2] = pal[0].R, pal[0].G, pal[0].B
		p.tmp[3], p.tmp[4], p.tmp[5] = pal[1].R, pal[1].G, pal[1].B
		p.writeChunk("PLTE", p.tmp[:6])
		p.tmp[0], p.tmp[1] = pal[0].A, pal[1].A
		for a := 2; a > 0; a-- {
			if p.tmp[a-1] != 0xff {
				p.writeChunk("tRNS", p.tmp[:a])
				break
			}
		}
	}

	p.startChunk("IDAT")
	p.writeCode(c, gray)
	p.endChunk()

	p.writeChunk("IEND", nil)

	_, err := p.buf.WriteTo(w)
	return err
}

const pngHeader = "\x89PNG\r\n\x1a\n"

// pngPalette returns the background and foreground colours and
// whether the image can be grey, which is the case for opaque black
// on white.
func (c *Code) pngPalette() (pal [2]color.NRGBA, gray bool) {
	if c.Palette == nil {
		return pal, true
	}
	for i, v := range c.Palette {
		pal[i] = color.NRGBAModel.Convert(v).(color.NRGBA)
	}
	return pal, pal == [2]color.NRGBA{{0xff, 0xff, 0xff, 0xff}, {0, 0, 0, 0xff}}
}

// A pngWriter is a writer for PNG and zlib.
type pngWriter struct {
	buf   bytes.Buffer
	tmp   [13]byte
	start int

	bit  uint64
	nbit int
}

func (w *pngWriter) writeChunk(name string, data []byte) {
	w.startChunk(name)
	w.buf.Write(data)
	w.endChunk()
}

// startChunk writes the chunk name twice, the first copy holding the
// place of the length.
func (w *pngWriter) startChunk(name string) {
	w.start = w.buf.Len()
	w.buf.WriteString(name)
	w.buf.WriteString(name)
}

func (w *pngWriter) endChunk() {
	b := w.buf.Bytes()[w.start:]
	binary.BigEndian.PutUint32(b, uint32(len(b)-8))
	binary.BigEndian.PutUint32(w.tmp[0:4], crc32.ChecksumIEEE(b[4:]))
	w.buf.Write(w.tmp[0:4])
}

// writeCode writes the zlib stream holding the pixels.  In grey
// images 1 is white, in paletted ones it is the foreground.
func (w *pngWriter) writeCode(c *Code, gray bool) {
	n := 1 + (c.Pixels()+7)/8 // filter type, pixels
	cur, prev := make([]byte, n), make([]byte, n)
	sum := adler32.New()

	w.buf.Write([]byte{0x78, 0x01}) // 32 KB window, fastest
	w.writeBits(1, 1)               // final block
	w.writeBits(1, 2)               // fixed Huffman codes

	q := c.QuietZone
	run := 0 // bytes repeating prev
	for y := -q; y < c.Size+q; y++ {
		c.pixelRow(cur[1:], y)
		if gray {
			for i := 1; i < n; i++ {
				cur[i] = ^cur[i]
			}
		}
		for i := 0; i < c.Scale; i++ {
			sum.Write(cur)
		}
		if y != -q && bytes.Equal(cur, prev) {
			run += c.Scale * n
			continue
		}
		w.repeat(prev, run)
		w.literals(cur)
		run = (c.Scale - 1) * n
		cur, prev = prev, cur
	}
	w.repeat(prev, run)
	w.sym(256) // end of block
	w.flushBits()

	binary.BigEndian.PutUint32(w.tmp[0:4], sum.Sum32())
	w.buf.Write(w.tmp[0:4])
}

func (w *pngWriter) writeBits(bit uint64, nbit int) {
	w.bit |= bit << w.nbit
	w.nbit += nbit
	for w.nbit >= 8 {
		w.buf.WriteByte(byte(w.bit))
		w.bit >>= 8
		w.nbit -= 8
	}
}

func (w *pngWriter) flushBits() {
	if w.nbit > 0 {
		w.buf.WriteByte(byte(w.bit))
	}
	w.bit, w.nbit = 0, 0
}

// huff writes a Huffman code, most significant bit first.
func (w *pngWriter) huff(code, n int) {
	w.writeBits(uint64(bits.Reverse16(uint16(code))>>(16-n)), n)
}

// sym writes a literal/length symbol with the fixed code.
func (w *pngWriter) sym(s int) {
	switch {
	case s < 144:
		w.huff(0x30+s, 8)
	case s < 256:
		w.huff(0x190+s-144, 9)
	case s < 280:
		w.huff(s-256, 7)
	default:
		w.huff(0xc0+s-280, 8)
	}
}

var (
	lengthBase  = [...]uint16{3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31, 35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258}
	lengthExtra = [...]uint8{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0}
	distBase    = [...]uint16{1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193, 257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577}
	distExtra   = [...]uint8{0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13}
)

// lastAtMost returns the index of the last element of t not above v.
func lastAtMost(t []uint16, v int) int {
	i := len(t) - 1
	for int(t[i]) > v {
		i--
	}
	return i
}

// match writes a copy of l bytes from distance d, 3 <= l <= 258.
func (w *pngWriter) match(l, d int) {
	i := lastAtMost(lengthBase[:], l)
	w.sym(257 + i)
	w.writeBits(uint64(l-int(lengthBase[i])), int(lengthExtra[i]))
	j := lastAtMost(distBase[:], d)
	w.huff(j, 5)
	w.writeBits(uint64(d-int(distBase[j])), int(distExtra[j]))
}

// repeat writes n bytes continuing the cycle of seq, whose last
// copy has just been written.
func (w *pngWriter) repeat(seq []byte, n int) {
	for done := 0; done < n; {
		rem := n - done
		if rem < 3 {
			for ; done < n; done++ {
				w.sym(int(seq[done%len(seq)]))
			}
			return
		}
		l := min(rem, 258)
		if r := rem - l; r > 0 && r < 3 {
			l = rem - 3
		}
		w.match(l, len(seq))
		done += l
	}
}

// literals writes b, replacing runs of a byte by repeats.
func (w *pngWriter) literals(b []byte) {
	for i := 0; i < len(b); {
		j := i + 1
		for j < len(b) && b[j] == b[i] {
			j++
		}
		w.sym(int(b[i]))
		w.repeat(b[i:i+1], j-i-1)
		i = j
	}
}
