// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

// Encoder encodes a QR code.
type Encoder struct {
	v Version
	l Level
	b *Bits
}

// NewEncoder returns an Encoder for the given version and level.
func NewEncoder(version Version, level Level) (*Encoder, error) {
	if !version.IsValid() {
		return nil, ErrVersion
	}
	if !level.IsValid() {
		return nil, ErrLevel
	}
	return &Encoder{v: version, l: level, b: NewBits(version)}, nil
}

// Write adds text to e.
func (e *Encoder) Write(text ...Segment) error {
	class := e.v.SizeClass()
	for _, t := range text {
		if err := t.Encode(e.b, class); err != nil {
			return err
		}
	}
	return nil
}

// Reset discards the data written to e, so that it can encode
// another code.
func (e *Encoder) Reset() { e.b.Reset() }

// Code returns a QR code containing data written to e.
func (e *Encoder) Code() (*Code, error) {
	if n, nb := e.b.Bits(), e.v.DataBits(e.l); n > nb {
		return nil, &CapacityError{e.v, e.l, n, nb}
	}
	if err := e.b.AddCheckBytes(e.v, e.l); err != nil {
		return nil, err
	}
	bits, err := e.b.Permute(e.v, e.l)
	if err != nil {
		return nil, err
	}
	m, err := NewMatrix(e.v)
	if err != nil {
		return nil, err
	}
	if err := m.PlaceFunctions(); err != nil {
		return nil, err
	}
	if err := m.PlaceData(bits); err != nil {
		return nil, err
	}
	if _, err := m.ChooseMask(e.l); err != nil {
		return nil, err
	}
	return m.Code()
}

// Encode is a wrapper around Write and Code.
func (e *Encoder) Encode(text ...Segment) (*Code, error) {
	if err := e.Write(text...); err != nil {
		return nil, err
	}
	return e.Code()
}

// Encode encodes text using an Encoder with the given version and level.
func Encode(version Version, level Level, text ...Segment) (*Code, error) {
	e, err := NewEncoder(version, level)
	if err != nil {
		return nil, err
	}
	return e.Encode(text...)
}
