// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package split splits strings into QR code segments and chooses the
smallest QR code version that holds them.
*/
package split // import "github.com/unixdj/qrgen/split"

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/unixdj/qrgen/coding"
)

// QR error correction levels.
const (
	L = coding.L // 20% redundant
	M = coding.M // 38% redundant
	Q = coding.Q // 55% redundant
	H = coding.H // 65% redundant
)

var (
	ErrEmptyContent       = errors.New("qr: empty content")
	ErrDataTooLong        = coding.ErrDataTooLong
	ErrUnsupportedVersion = coding.ErrUnsupportedVersion
	ErrNotEncodable       = errors.New("qr: text not encodable in given charset")
	ErrEncoding           = errors.New("qr: unknown character encoding")
)

var (
	sizeClass = [3]struct{ min, max coding.Version }{
		{1, 9}, {10, 26}, {27, 40},
	}

	sizeLimit = func() (lim [4][3]int) {
		for l := L; l <= H; l++ {
			for c, sc := range sizeClass {
				lim[l][c] = sc.max.DataBits(l)
			}
		}
		return
	}()
)

// Text describes text to encode.
type Text struct {
	Text    string
	Charset *Charset // byte mode encoding; nil means UTF8
	ECI     bool     // begin with an ECI segment for Charset
	NoKanji bool     // don't use kanji mode
}

/*
Split returns segments and minimum QR code version for t at the
given error correction level.

Text is split into numeric, alphanumeric, byte and kanji mode
segments to minimise the encoded length.  Byte mode segments are
encoded in t.Charset.  Kanji mode segments hold UTF-8 text, which
coding converts to Shift JIS.
*/
func Split(t Text, level coding.Level) ([]coding.Segment, coding.Version, error) {
	if !level.IsValid() {
		return nil, 0, coding.ErrLevel
	}
	sp, err := newSplitter(t)
	if err != nil {
		return nil, 0, err
	}
	lim := sizeLimit[level]
	bits := 0
	for class := range lim {
		var segs []coding.Segment
		if segs, bits, err = sp.split(class); err != nil {
			return nil, 0, err
		}
		if bits > lim[class] {
			continue
		}
		// Find version in the size class.
		v := sizeClass[class].min
		for max := sizeClass[class].max; v < max; {
			if mid := (v + max) / 2; mid.DataBits(level) < bits {
				v = mid + 1
			} else {
				max = mid
			}
		}
		return segs, v, nil
	}
	return nil, 0, &coding.CapacityError{
		Version:  coding.MaxVersion,
		Level:    level,
		Bits:     bits,
		Capacity: lim[len(lim)-1],
	}
}

// SplitVersion returns segments for t encoded in a QR code of the
// given version and error correction level.
func SplitVersion(t Text, v coding.Version, level coding.Level) ([]coding.Segment, error) {
	if !level.IsValid() {
		return nil, coding.ErrLevel
	}
	if !v.IsValid() {
		return nil, fmt.Errorf("%w: no version %d", ErrUnsupportedVersion, v)
	}
	sp, err := newSplitter(t)
	if err != nil {
		return nil, err
	}
	segs, bits, err := sp.split(v.SizeClass())
	if err != nil {
		return nil, err
	}
	if capa := v.DataBits(level); bits > capa {
		return nil, fmt.Errorf("%w: %d bits in %d-bit code (version %v, level %v)",
			ErrUnsupportedVersion, bits, capa, v, level)
	}
	return segs, nil
}

/*
splitter and its component types.

newSplitter determines modes in which each rune in the string is
encodable and creates a slice of spans, each span describing a
substring of runes encodable in the same modes.  To avoid multiple
allocations, the span structure contains an array of segments for the
modes.

splitter.split creates a linked list of segments representing an
optimal split of the data.  A segment contains its mode, length in
bytes and runes, total encoded length in bits of the string from this
segment to the end, and a link to the next segment.

The split is calculated by walking the spans backwards.  For each
span n, for each mode m, a segment (n,m) is created representing an
optimal split for the string from span n to the end, starting with
mode m.

The segment (n,m) is created thusly.  For each mode mm in which span
n+1 is encodable, a segment (n,m,mm) linking to (n+1,mm) is created.
If m=mm, the segments are merged, so the header is paid once.  The
encoded length is calculated, and the total encoded length of the
next segment is added to it.  Of these segments, the one with the
smallest total encoded length is chosen as (n,m).

When the beginning of the span slice is reached, a segment (0,m) with
the smallest total encoded length for any m describes an optimal split
for the whole string.
*/
type (
	// segment describes a segment encoded in a certain mode.
	segment struct {
		mode    coding.Mode // encoding mode
		segdata             // lengths and pointer to next
	}

	// segdata is the mutable portion of segment.
	segdata struct {
		next *segment // link to next segment in the chain
		len  int      // length of string in bytes
		rlen int      // length of string in Unicode code points
		blen int      // length of string in bytes in the Charset
		bits int      // encoded size of all segments in the chain
	}

	// span describes a span of bytes encodable in the same modes.
	span struct {
		len   int        // length of string in bytes
		rlen  int        // length of string in Unicode code points
		blen  int        // length of string in bytes in the Charset
		modes byte       // mode bit field
		n     int        // number of segments
		seg   [4]segment // segments
	}

	// splitter splits a string.
	splitter struct {
		s   string
		enc encoder
		pre []coding.Segment // leading ECI segment
		sp  []span
	}
)

// Mode bits.  Bit N is set for coding.Mode(N).
const (
	numMode   = 1 << coding.Numeric
	alphaMode = 1 << coding.Alphanumeric
	byteMode  = 1 << coding.Byte
	kanjiMode = 1 << coding.Kanji
)

// classify returns a bit field of modes in which the rune is
// encodable.
func classify(r rune, kanji bool) byte {
	switch {
	case coding.IsDigit(r):
		return numMode | alphaMode | byteMode
	case coding.IsAlphanumeric(r):
		return alphaMode | byteMode
	case kanji && coding.IsKanji(r):
		return kanjiMode | byteMode
	}
	return byteMode
}

// newSplitter scans t and returns a splitter for it.
func newSplitter(t Text) (*splitter, error) {
	if t.Text == "" {
		return nil, ErrEmptyContent
	}
	cs := t.Charset
	if cs == nil {
		cs = UTF8
	}
	s := &splitter{s: t.Text, enc: cs.newEncoder()}
	if t.ECI {
		seg, err := coding.NewECI(cs.ECI)
		if err != nil || cs.ECI == 0 {
			return nil, fmt.Errorf("%w: no ECI number for %s",
				ErrEncoding, cs.Name)
		}
		s.pre = []coding.Segment{seg}
	}

	// Scan the string, merge runes encodable in the same modes.
	var cur *span
	for i, sz := 0, 0; i < len(t.Text); i += sz {
		var r rune
		r, sz = utf8.DecodeRuneInString(t.Text[i:])
		m := classify(r, !t.NoKanji)
		blen, ok := s.enc.runeLen(r, sz)
		if !ok {
			m &^= byteMode
		}
		if m == 0 {
			return nil, fmt.Errorf("%w: %q at offset %d",
				ErrNotEncodable, t.Text[i:i+sz], i)
		}
		if cur == nil || cur.modes != m {
			s.sp = append(s.sp, span{modes: m})
			cur = &s.sp[len(s.sp)-1]
			for v := m; v != 0; v &= v - 1 {
				cur.seg[cur.n].mode = coding.Mode(lowBit(v))
				cur.n++
			}
		}
		cur.len += sz
		cur.rlen++
		cur.blen += blen
	}
	return s, nil
}

// lowBit returns the index of the lowest set bit in v.
func lowBit(v byte) int {
	n := 0
	for ; v&1 == 0; v >>= 1 {
		n++
	}
	return n
}

const inf = 1 << 30 // excessive encoded length

func (d *segdata) setBits(mode coding.Mode, class int) {
	n := d.len
	if mode == coding.Byte {
		n = d.blen
	}
	d.bits = mode.Length(n, d.rlen, class)
	if d.next != nil {
		d.bits += d.next.bits
	}
}

// add adds v to the split before p, returning a pointer to the
// segment with the smallest encoded length.
func (v *span) add(p *span, class int) *segment {
	var best *segment
	for j := range v.seg[:v.n] {
		seg := &v.seg[j]
		seg.bits = inf
		if p == nil {
			c := segdata{len: v.len, rlen: v.rlen, blen: v.blen}
			c.setBits(seg.mode, class)
			seg.segdata = c
		} else {
			for k := range p.seg[:p.n] {
				c := segdata{len: v.len, rlen: v.rlen, blen: v.blen,
					next: &p.seg[k]}
				merged := seg.mode == c.next.mode
				if merged {
					c.len += c.next.len
					c.rlen += c.next.rlen
					c.blen += c.next.blen
					c.next = c.next.next
				}
				c.setBits(seg.mode, class)
				if c.bits < seg.bits || merged && c.bits == seg.bits {
					seg.segdata = c
				}
			}
		}
		if best == nil || seg.bits < best.bits {
			best = seg
		}
	}
	return best
}

// split returns an optimal split for the size class and its encoded
// length in bits.
func (s *splitter) split(class int) ([]coding.Segment, int, error) {
	// process spans in reverse order
	var head *segment
	var next *span
	for i := len(s.sp) - 1; i >= 0; i-- {
		head = s.sp[i].add(next, class)
		next = &s.sp[i]
	}
	segs := append([]coding.Segment(nil), s.pre...)
	bits := 0
	for _, seg := range s.pre {
		bits += seg.EncodedLength(class)
	}
	for seg, str := head, s.s; seg != nil; seg = seg.next {
		text := str[:seg.len]
		str = str[seg.len:]
		if seg.mode == coding.Byte {
			var err error
			if text, err = s.enc.encode(text); err != nil {
				return nil, 0, err
			}
		}
		cs := coding.Segment{Text: text, Mode: seg.mode}
		bits += cs.EncodedLength(class)
		segs = append(segs, cs)
	}
	return segs, bits, nil
}
