// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"fmt"

	"github.com/unixdj/qrgen/gf256"
)

// Bits is a bit buffer.  The zero value is an empty buffer.
type Bits struct {
	b    []byte
	nbit int
}

// NewBits returns Bits with enough capacity for a QR code of the
// given version.
func NewBits(v Version) *Bits {
	return &Bits{b: make([]byte, 0, vtab[v].bytes)}
}

// Reset empties b, keeping its buffer.
func (b *Bits) Reset() {
	b.b = b.b[:0]
	b.nbit = 0
}

func (b *Bits) Bits() int { return b.nbit }

// Bytes returns the buffer.  The last byte may be partial.
func (b *Bits) Bytes() []byte { return b.b }

// Write appends the nbit low bits of v to b, most significant first.
func (b *Bits) Write(v uint32, nbit int) {
	v <<= 32 - nbit
	if rem := -b.nbit & 7; rem != 0 {
		b.b[len(b.b)-1] |= byte(v >> (32 - rem))
		if rem >= nbit {
			b.nbit += nbit
			return
		}
		b.nbit += rem
		nbit -= rem
		v <<= rem
	}
	for n := nbit; n > 0; n -= 8 {
		b.b = append(b.b, byte(v>>24))
		v <<= 8
	}
	b.nbit += nbit
}

// padTo adds up to t terminator bits to b, zero pads it to a byte
// boundary and fills it up to n bits with alternating 0xec and 0x11.
// n must be a multiple of 8.
func (b *Bits) padTo(t, n int) {
	b.nbit = min(b.nbit+t, n)
	for len(b.b)*8 < b.nbit {
		b.b = append(b.b, 0)
	}
	b.nbit = len(b.b) * 8
	for pad := byte(0xec); b.nbit < n; pad ^= 0xec ^ 0x11 {
		b.b = append(b.b, pad)
		b.nbit += 8
	}
}

// AddCheckBytes adds terminator, padding and checksum to b for the
// given QR version and level.  The data blocks stay in order, followed
// by the check blocks in the same order.
func (b *Bits) AddCheckBytes(v Version, l Level) error {
	if !v.IsValid() {
		return ErrVersion
	}
	if !l.IsValid() {
		return ErrLevel
	}
	nb := v.DataBits(l)
	if b.nbit > nb {
		return &CapacityError{v, l, b.nbit, nb}
	}
	b.padTo(4, nb)

	vt := &vtab[v]
	lev := vt.level[l]
	nd := nb >> 3
	if nd < lev.nblock {
		return fmt.Errorf("qr: %d data bytes in %d blocks: %w",
			nd, lev.nblock, ErrInternal)
	}
	db := nd / lev.nblock
	short := (db+1)*lev.nblock - nd // blocks of db bytes come first
	rs := gf256.NewRSEncoder(Field, lev.check)
	check := make([]byte, lev.nblock*lev.check)
	dat := b.b
	for i, chk := 0, check; i < lev.nblock; i++ {
		if i == short {
			db++
		}
		rs.ECC(dat[:db], chk[:lev.check])
		dat, chk = dat[db:], chk[lev.check:]
	}
	if len(dat) != 0 {
		return fmt.Errorf("qr: %d data bytes left over: %w",
			len(dat), ErrInternal)
	}
	b.b = append(b.b, check...)
	b.nbit = len(b.b) * 8
	if len(b.b) != vt.bytes {
		return fmt.Errorf("qr: %d codewords for version %v: %w",
			len(b.b), v, ErrInternal)
	}
	return nil
}

// interleave interleaves nblock blocks from src to dst, which must be
// of equal length.  Blocks one byte longer than the rest come last.
func interleave(dst, src []byte, nblock int) {
	db := len(src) / nblock
	extra := dst[db*nblock:]
	dst = dst[:db*nblock]
	normal := nblock - len(extra)
	for i := 0; i < nblock; i++ {
		for j, v := range src[:db] {
			dst[j*nblock+i] = v
		}
		src = src[db:]
		if i >= normal {
			extra[i-normal] = src[0]
			src = src[1:]
		}
	}
}

// Permute returns a BitStream reading data and checksum bytes in b
// with blocks interleaved for the given QR code version and level.
// b must hold the output of AddCheckBytes.
func (b *Bits) Permute(v Version, l Level) (BitStream, error) {
	vt := &vtab[v]
	src := b.b
	if len(src) != vt.bytes {
		return BitStream{}, fmt.Errorf("qr: %d codewords for version %v: %w",
			len(src), v, ErrInternal)
	}
	dst := src
	if nblock := vt.level[l].nblock; nblock != 1 {
		dst = make([]byte, vt.bytes)
		nd := v.DataBytes(l)
		interleave(dst[:nd], src[:nd], nblock)
		interleave(dst[nd:], src[nd:], nblock)
	}
	return NewBitStream(dst), nil
}

// BitStream reads bits from the underlying buffer.
type BitStream struct {
	b   []byte
	pos int
}

// NewBitStream returns a BitStream reading from b.
func NewBitStream(b []byte) BitStream { return BitStream{b: b} }

// Bytes returns the data underlying s.
func (s *BitStream) Bytes() []byte { return s.b }

// Len returns the number of bits in s.
func (s *BitStream) Len() int { return len(s.b) * 8 }

// Next returns the next bit from s as 0 or 1.
// Past end of buffer Next returns 0.
func (s *BitStream) Next() byte {
	var b byte
	if i := s.pos >> 3; i < len(s.b) {
		b = s.b[i] >> (7 &^ s.pos) & 1
		s.pos++
	}
	return b
}
