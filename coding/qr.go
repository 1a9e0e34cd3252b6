// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coding implements low-level QR coding details: segment
// encoding, error correction blocks, module placement and masking.
package coding // import "github.com/unixdj/qrgen/coding"

//go:generate sh -c "go run gen.go | gofmt > tables.go"

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/unixdj/qrgen/gf256"
)

var (
	ErrLevel   = errors.New("qr: invalid level")
	ErrVersion = errors.New("qr: invalid version")

	// ErrDataTooLong is returned when the data does not fit in a
	// version 40 code at the requested level.
	ErrDataTooLong = errors.New("qr: data too long")

	// ErrUnsupportedVersion is returned when the requested version
	// is too small for the data.
	ErrUnsupportedVersion = errors.New("qr: data does not fit in version")

	// ErrInternal signals a broken internal invariant.  It is never
	// returned for valid input.
	ErrInternal = errors.New("qr: internal error")
)

// Field is the field for QR error correction.
var Field = gf256.NewField(0x11d, 2)

// A Version represents a QR version.
// The version specifies the size of the QR code:
// a QR code with version v has 4v+17 pixels on a side.
// Versions run from 1 to 40: the larger the version,
// the more information the code can store.
type Version int

// Code versions.
const (
	MinVersion Version = 1  // Minimum QR version
	MaxVersion Version = 40 // Maximum QR version
)

func (v Version) String() string { return strconv.Itoa(int(v)) }

// IsValid reports whether v is between MinVersion and MaxVersion.
func (v Version) IsValid() bool { return MinVersion <= v && v <= MaxVersion }

// QR version size classes.  The length of the character count
// field depends on the class.
const (
	Class0 = iota // QR versions 1 to 9
	Class1        // QR versions 10 to 26
	Class2        // QR versions 27 to 40
)

// SizeClass returns the size class of v, as documented under Class0.
func (v Version) SizeClass() int {
	if v <= 9 {
		return Class0
	}
	if v <= 26 {
		return Class1
	}
	return Class2
}

// Size returns the number of modules on a side of a version v code.
func (v Version) Size() int { return int(v)*4 + 17 }

// DataBytes returns the number of data bytes that can be
// stored in a QR code with the given version and level.
func (v Version) DataBytes(l Level) int {
	vt := &vtab[v]
	lev := vt.level[l]
	return vt.bytes - lev.nblock*lev.check
}

// DataBits returns the number of data bits that can be
// stored in a QR code with the given version and level.
func (v Version) DataBits(l Level) int { return v.DataBytes(l) * 8 }

// A Level represents a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
type Level int

const (
	L Level = iota // recovers about 7% of codewords
	M              // 15%
	Q              // 25%
	H              // 30%
)

func (l Level) String() string {
	if l.IsValid() {
		return "LMQH"[l : l+1]
	}
	return strconv.Itoa(int(l))
}

// IsValid reports whether l is one of L, M, Q or H.
func (l Level) IsValid() bool { return L <= l && l <= H }

// ParseLevel parses a level name, either a letter (case-insensitive)
// or the approximate recovery percentage.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "L", "l", "7", "7%":
		return L, nil
	case "M", "m", "15", "15%":
		return M, nil
	case "Q", "q", "25", "25%":
		return Q, nil
	case "H", "h", "30", "30%":
		return H, nil
	}
	return 0, fmt.Errorf("%w %q", ErrLevel, s)
}

// CapacityError reports that encoded data does not fit in a code.
type CapacityError struct {
	Version  Version
	Level    Level
	Bits     int // encoded length
	Capacity int // data bits available
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("qr: cannot encode %d bits into %d-bit code "+
		"(version %v, level %v)", e.Bits, e.Capacity, e.Version, e.Level)
}

// Unwrap returns ErrDataTooLong for the largest version and
// ErrUnsupportedVersion otherwise.
func (e *CapacityError) Unwrap() error {
	if e.Version >= MaxVersion {
		return ErrDataTooLong
	}
	return ErrUnsupportedVersion
}

// A version describes metadata associated with a version.
type version struct {
	bytes     int   // total codewords
	remainder int   // remainder bits after the last codeword
	pattern   int   // version information, 0 below version 7
	align     []int // alignment pattern centre coordinates
	level     [4]level
}

type level struct {
	nblock int // number of error correction blocks
	check  int // check bytes per block
}

// A Code is a square pixel grid.
type Code struct {
	Bitmap []byte // 1 is black, 0 is white
	Size   int    // number of pixels on a side
	Stride int    // number of bytes per row

	Version Version
	Level   Level
	Mask    int // applied mask pattern, 0 to 7
}

// Black reports whether the module at x, y is dark.
// Modules outside the code are light.
func (c *Code) Black(x, y int) bool {
	return 0 <= x && x < c.Size && 0 <= y && y < c.Size &&
		c.Bitmap[y*c.Stride+x/8]&(1<<uint(7&^x)) != 0
}
