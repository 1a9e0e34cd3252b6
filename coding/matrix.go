// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"fmt"
	"sync"
)

// A Module is the colour of a single matrix cell.
type Module byte

const (
	Unset Module = iota // not yet written
	Light
	Dark
)

// MatrixState is the construction stage of a Matrix.
type MatrixState int

// Matrix states, in order.  Each transition is allowed only from the
// preceding state.
const (
	Empty MatrixState = iota
	FunctionsPlaced
	DataPlaced
	Masked
	Finalized
)

func (s MatrixState) String() string {
	switch s {
	case Empty:
		return "empty"
	case FunctionsPlaced:
		return "functions-placed"
	case DataPlaced:
		return "data-placed"
	case Masked:
		return "masked"
	case Finalized:
		return "finalized"
	}
	return fmt.Sprintf("MatrixState(%d)", int(s))
}

// A Matrix is a QR symbol under construction.
type Matrix struct {
	Version Version
	Size    int

	mod   []Module // row-major modules
	fn    []bool   // function modules; shared with the plan, read-only
	state MatrixState
	level Level
	mask  int
}

// NewMatrix returns an empty matrix for version v.
func NewMatrix(v Version) (*Matrix, error) {
	if !v.IsValid() {
		return nil, ErrVersion
	}
	siz := v.Size()
	return &Matrix{
		Version: v,
		Size:    siz,
		mod:     make([]Module, siz*siz),
		mask:    -1,
	}, nil
}

// State returns the construction stage of m.
func (m *Matrix) State() MatrixState { return m.state }

// At returns the module at column x, row y.
func (m *Matrix) At(x, y int) Module { return m.mod[y*m.Size+x] }

// IsFunction reports whether the module at x, y belongs to a function
// pattern or the reserved format and version areas.
func (m *Matrix) IsFunction(x, y int) bool {
	return m.fn != nil && m.fn[y*m.Size+x]
}

// Mask returns the applied mask, or -1 before masking.
func (m *Matrix) Mask() int { return m.mask }

func (m *Matrix) transition(from, to MatrixState) error {
	if m.state != from {
		return fmt.Errorf("qr: matrix %v, want %v before %v: %w",
			m.state, from, to, ErrInternal)
	}
	m.state = to
	return nil
}

// Pre-allocated plans.  A plan holds the function patterns for a
// version and is created the first time the version is used.
var plans [MaxVersion + 1]struct {
	once sync.Once
	m    *Matrix
}

// plan returns the function pattern template for version v.
func plan(v Version) *Matrix {
	p := &plans[v]
	p.once.Do(func() {
		m, _ := NewMatrix(v)
		m.fn = make([]bool, len(m.mod))
		m.drawFunctions()
		p.m = m
	})
	return p.m
}

// PlaceFunctions draws finder, separator, timing and alignment
// patterns and version information, and reserves the format areas.
func (m *Matrix) PlaceFunctions() error {
	if err := m.transition(Empty, FunctionsPlaced); err != nil {
		return err
	}
	p := plan(m.Version)
	copy(m.mod, p.mod)
	m.fn = p.fn
	return nil
}

func (m *Matrix) setFunction(x, y int, dark bool) {
	i := y*m.Size + x
	// The function map is shared with the plan.  drawFormat runs on
	// copies of the plan and only touches modules already marked.
	if !m.fn[i] {
		m.fn[i] = true
	}
	m.mod[i] = Light
	if dark {
		m.mod[i] = Dark
	}
}

func (m *Matrix) drawFunctions() {
	siz := m.Size
	// Timing patterns, partly overwritten by finders.
	for i := 0; i < siz; i++ {
		m.setFunction(6, i, i%2 == 0)
		m.setFunction(i, 6, i%2 == 0)
	}
	// Finder patterns with separators.
	m.drawFinder(3, 3)
	m.drawFinder(siz-4, 3)
	m.drawFinder(3, siz-4)
	// Alignment patterns, except where they would hit the finders.
	align := vtab[m.Version].align
	last := len(align) - 1
	for i, x := range align {
		for j, y := range align {
			if i == 0 && j == 0 || i == 0 && j == last ||
				i == last && j == 0 {
				continue
			}
			m.drawAlignment(x, y)
		}
	}
	// Reserve format areas; the real bits are drawn with the mask.
	m.drawFormat(0)
	m.drawVersion()
}

func (m *Matrix) drawFinder(x, y int) {
	for dy := -4; dy <= 4; dy++ {
		for dx := -4; dx <= 4; dx++ {
			xx, yy := x+dx, y+dy
			if 0 <= xx && xx < m.Size && 0 <= yy && yy < m.Size {
				dist := max(abs(dx), abs(dy))
				m.setFunction(xx, yy, dist != 2 && dist != 4)
			}
		}
	}
}

func (m *Matrix) drawAlignment(x, y int) {
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			m.setFunction(x+dx, y+dy, max(abs(dx), abs(dy)) != 1)
		}
	}
}

// FormatBits returns the 15 bit format information for level l and
// mask: BCH(15,5) with generator 0x537, xored with 0x5412.
func FormatBits(l Level, mask int) uint16 {
	data := uint32(l^1)<<3 | uint32(mask)
	rem := data
	for i := 0; i < 10; i++ {
		rem = rem<<1 ^ rem>>9*0x537
	}
	return uint16((data<<10 | rem) ^ 0x5412)
}

// VersionBits returns the 18 bit version information for v:
// BCH(18,6) with generator 0x1f25.  It is only drawn for version 7
// and above.
func VersionBits(v Version) uint32 {
	rem := uint32(v)
	for i := 0; i < 12; i++ {
		rem = rem<<1 ^ rem>>11*0x1f25
	}
	return uint32(v)<<12 | rem
}

// drawFormat draws both copies of the format information and the
// dark module.
func (m *Matrix) drawFormat(bits uint16) {
	bit := func(i int) bool { return bits>>i&1 != 0 }
	siz := m.Size
	// around the top left finder
	for i := 0; i < 6; i++ {
		m.setFunction(8, i, bit(i))
	}
	m.setFunction(8, 7, bit(6))
	m.setFunction(8, 8, bit(7))
	m.setFunction(7, 8, bit(8))
	for i := 9; i < 15; i++ {
		m.setFunction(14-i, 8, bit(i))
	}
	// split between the top right and bottom left finders
	for i := 0; i < 8; i++ {
		m.setFunction(siz-1-i, 8, bit(i))
	}
	for i := 8; i < 15; i++ {
		m.setFunction(8, siz-15+i, bit(i))
	}
	m.setFunction(8, siz-8, true)
}

// drawVersion draws both 6x3 version information blocks.
func (m *Matrix) drawVersion() {
	bits := vtab[m.Version].pattern
	if bits == 0 {
		return
	}
	for i := 0; i < 18; i++ {
		dark := bits>>i&1 != 0
		a, b := m.Size-11+i%3, i/3
		m.setFunction(a, b, dark)
		m.setFunction(b, a, dark)
	}
}

// PlaceData writes the codeword bits from s into the non-function
// modules in zigzag order, starting at the bottom right corner and
// moving in two module wide columns, skipping the vertical timing
// pattern.  Modules past the end of s are light remainder bits.
func (m *Matrix) PlaceData(s BitStream) error {
	vt := &vtab[m.Version]
	if s.Len() != vt.bytes*8 {
		return fmt.Errorf("qr: %d codeword bits for version %v: %w",
			s.Len(), m.Version, ErrInternal)
	}
	if err := m.transition(FunctionsPlaced, DataPlaced); err != nil {
		return err
	}
	siz, n := m.Size, 0
	for right := siz - 1; right >= 1; right -= 2 {
		if right == 6 {
			right = 5
		}
		upward := (right+1)&2 == 0
		for vert := 0; vert < siz; vert++ {
			y := vert
			if upward {
				y = siz - 1 - vert
			}
			for x := right; x > right-2; x-- {
				i := y*siz + x
				if m.fn[i] {
					continue
				}
				m.mod[i] = Light
				if s.Next() != 0 {
					m.mod[i] = Dark
				}
				n++
			}
		}
	}
	if n != vt.bytes*8+vt.remainder {
		return fmt.Errorf("qr: %d data modules for version %v: %w",
			n, m.Version, ErrInternal)
	}
	return nil
}

// Masks returns whether the mask pattern inverts the module at
// column x, row y.
func Masks(mask, x, y int) bool {
	switch mask {
	case 0:
		return (x+y)%2 == 0
	case 1:
		return y%2 == 0
	case 2:
		return x%3 == 0
	case 3:
		return (x+y)%3 == 0
	case 4:
		return (x/3+y/2)%2 == 0
	case 5:
		return x*y%2+x*y%3 == 0
	case 6:
		return (x*y%2+x*y%3)%2 == 0
	case 7:
		return ((x+y)%2+x*y%3)%2 == 0
	}
	return false
}

// masked returns the dark map of m with mask applied to the data
// modules and format information for l and mask drawn.
func (m *Matrix) masked(dst []bool, l Level, mask int) []bool {
	t := Matrix{Size: m.Size, mod: make([]Module, len(m.mod)), fn: m.fn}
	copy(t.mod, m.mod)
	t.drawFormat(FormatBits(l, mask))
	siz := m.Size
	for i, v := range t.mod {
		dark := v == Dark
		if !m.fn[i] && Masks(mask, i%siz, i/siz) {
			dark = !dark
		}
		dst[i] = dark
	}
	return dst
}

// ApplyMask applies the given mask to the data modules and draws the
// format information for level l.
func (m *Matrix) ApplyMask(l Level, mask int) error {
	if !l.IsValid() {
		return ErrLevel
	}
	if mask < 0 || mask > 7 {
		return fmt.Errorf("qr: invalid mask %d: %w", mask, ErrInternal)
	}
	if err := m.transition(DataPlaced, Masked); err != nil {
		return err
	}
	siz := m.Size
	for i, v := range m.mod {
		if !m.fn[i] && Masks(mask, i%siz, i/siz) {
			m.mod[i] = v ^ Light ^ Dark
		}
	}
	m.drawFormat(FormatBits(l, mask))
	m.level, m.mask = l, mask
	return nil
}

// ChooseMask evaluates all eight masks for level l, applies the one
// with the lowest penalty and returns it.  Ties go to the lowest mask.
func (m *Matrix) ChooseMask(l Level) (int, error) {
	if !l.IsValid() {
		return 0, ErrLevel
	}
	if m.state != DataPlaced {
		return 0, fmt.Errorf("qr: matrix %v, want %v before masking: %w",
			m.state, DataPlaced, ErrInternal)
	}
	var pen [8]int
	dark := make([]bool, len(m.mod))
	for mask := range pen {
		pen[mask] = penalty(m.masked(dark, l, mask), m.Size)
	}
	best := lowestPenalty(pen)
	return best, m.ApplyMask(l, best)
}

// lowestPenalty returns the mask with the lowest penalty, the lowest
// such mask on a tie.
func lowestPenalty(pen [8]int) int {
	best := 0
	for mask, p := range pen {
		if p < pen[best] {
			best = mask
		}
	}
	return best
}

// Code freezes m into a packed Code.
func (m *Matrix) Code() (*Code, error) {
	if err := m.transition(Masked, Finalized); err != nil {
		return nil, err
	}
	siz := m.Size
	stride := (siz + 7) >> 3
	c := &Code{
		Bitmap:  make([]byte, siz*stride),
		Size:    siz,
		Stride:  stride,
		Version: m.Version,
		Level:   m.level,
		Mask:    m.mask,
	}
	for y := 0; y < siz; y++ {
		row := c.Bitmap[y*stride:]
		for x, v := range m.mod[y*siz : (y+1)*siz] {
			if v == Dark {
				row[x>>3] |= 0x80 >> (x & 7)
			}
		}
	}
	return c, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
