// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

// Total penalty is the sum of penalties for runs and boxes
// of same-colour pixels, finder patterns and colour balance.
//
//   - RunP: for non-overlapping runs of n pixels, n>=5 -> n-2
//   - BoxP: for possibly overlapping 2x2 boxes -> 3
//   - FindP: for possibly overlapping finder-like patterns -> 40
//     The pattern is 1011101 with 0000 on either side;
//     may extend into the quiet zone
//   - BalP: for n% of black pixels -> 10*(ceiling(abs(n-50)/5)-1)
//
// https://www.nayuki.io/page/creating-a-qr-code-step-by-step
const (
	minRun    = 5  // RunP:  minimum run length
	runPDelta = -2 // RunP:  add to run length
	boxPP     = 3  // BoxP:  points per box
	findPP    = 40 // FindP: points per pattern
	balPP     = 10 // BalP:  10 points for every 5%

	quiet = 4 // quiet zone modules on each side of a line
)

// 12 module finder windows, oldest module in the high bit.
const (
	findB    = 0b0000_1011101_0 // light zone before
	findA    = 0b0_1011101_0000 // light zone after
	findMask = 1<<12 - 1
)

// Penalty returns the penalty value for a QR code.
// The value is used for choosing the mask.
func (c *Code) Penalty() int {
	dark := make([]bool, c.Size*c.Size)
	for y := 0; y < c.Size; y++ {
		for x := 0; x < c.Size; x++ {
			dark[y*c.Size+x] = c.Black(x, y)
		}
	}
	return penalty(dark, c.Size)
}

// penalty returns the penalty of the row-major module map dark.
func penalty(dark []bool, siz int) int {
	row := func(i, j int) bool { return dark[i*siz+j] }
	col := func(i, j int) bool { return dark[j*siz+i] }
	p := 0
	for i := 0; i < siz; i++ {
		p += linePenalty(row, i, siz)
		p += linePenalty(col, i, siz)
	}
	// boxes
	for y := 1; y < siz; y++ {
		for x := 1; x < siz; x++ {
			c := dark[y*siz+x]
			if c == dark[y*siz+x-1] && c == dark[(y-1)*siz+x] &&
				c == dark[(y-1)*siz+x-1] {
				p += boxPP
			}
		}
	}
	// balance
	n := 0
	for _, d := range dark {
		if d {
			n++
		}
	}
	total := len(dark)
	k := (abs(n*20-total*10)+total-1)/total - 1
	return p + max(k, 0)*balPP
}

// linePenalty returns RunP and FindP for line i of a code, reading
// module j through at.  The line is padded with light quiet zone
// modules for finder matching.
func linePenalty(at func(i, j int) bool, i, siz int) int {
	p := 0
	run, prev := 0, false
	var win uint32
	for j := -quiet; j < siz+quiet; j++ {
		d := 0 <= j && j < siz && at(i, j)
		win = (win<<1 | b2u(d)) & findMask
		if j >= -quiet+11 {
			switch win {
			case findB, findA:
				p += findPP
			}
		}
		if j < 0 || j >= siz {
			continue
		}
		if j > 0 && d == prev {
			run++
			continue
		}
		if run >= minRun {
			p += run + runPDelta
		}
		run, prev = 1, d
	}
	if run >= minRun {
		p += run + runPDelta
	}
	return p
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
