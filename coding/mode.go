// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
)

// A Mode is a QR segment encoding mode.
type Mode int

// Encoding modes.
const (
	Numeric      Mode = iota // digits 0-9
	Alphanumeric             // 0-9, A-Z, space and $%*+-./:
	Byte                     // any bytes
	Kanji                    // UTF-8 text in the QR Kanji subset of JIS X 0208
	ECI                      // ECI designator, raw segment
)

// modeEncoder implements a QR segment encoding.
type modeEncoder struct {
	name      string
	indicator uint32 // 4 bit mode indicator

	// countLength lists lengths of the character count field in the
	// three version size classes.
	countLength [3]int

	// encodedLength returns the encoded data length in bits of a
	// valid string of the given length in bytes and runes.
	encodedLength func(bytes, runes int) int

	// accepts reports whether the mode accepts the rune.
	accepts func(rune) bool

	// valid overrides the per-rune check.
	valid func(string) bool

	// transform returns the bytes to encode and the character count.
	transform func(string) (string, int, bool)

	// encN return the encoding of N bytes and its length in bits.
	// The encoder uses each non-nil encN as long as N source bytes
	// are left, in descending order of N.  If all are nil, each byte
	// is encoded as 8 bits.
	enc3 func([3]byte) (uint32, int)
	enc2 func([2]byte) (uint32, int)
	enc1 func(byte) (uint32, int)
}

const alphamask uint64 = 0x07fffffe_07ffec31 // SPACE $% *+ -./ [0-9] : [A-Z]

// Alphanumeric encoding table.  Used after validation.
// "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"
var alpha = [64]byte{
	00, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, // 0x40
	25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35, 00, 00, 00, 00, 00, // 0x50
	36, 00, 00, 00, 37, 38, 00, 00, 00, 00, 39, 40, 00, 41, 42, 43, // 0x20
	00, 01, 02, 03, 04, 05, 06, 07, 010, 9, 44, 00, 00, 00, 00, 00, // 0x30
}

// IsDigit reports whether r is encodable in numeric mode.
func IsDigit(r rune) bool { return uint32(r-'0') < 10 }

// IsAlphanumeric reports whether r is encodable in alphanumeric mode.
func IsAlphanumeric(r rune) bool {
	return uint32(r)-' ' < 64 && alphamask>>(uint32(r)-' ')&1 != 0
}

// IsKanji reports whether the Unicode rune r maps to a double byte
// Shift JIS character in the ranges 0x8140-0x9ffc or 0xe040-0xebbf.
func IsKanji(r rune) bool {
	if r < 0x80 || !utf8.ValidRune(r) {
		return false
	}
	b, err := japanese.ShiftJIS.NewEncoder().String(string(r))
	if err != nil || len(b) != 2 {
		return false
	}
	_, ok := kanjiValue(b[0], b[1])
	return ok
}

// kanjiValue returns the 13 bit kanji mode value of a Shift JIS
// character.
func kanjiValue(hi, lo byte) (uint32, bool) {
	c := uint32(hi)<<8 | uint32(lo)
	switch {
	case 0x8140 <= c && c <= 0x9ffc:
		c -= 0x8140
	case 0xe040 <= c && c <= 0xebbf:
		c -= 0xc140
	default:
		return 0, false
	}
	return c>>8*0xc0 + c&0xff, true
}

// toShiftJIS converts UTF-8 text to Shift JIS kanji pairs.
func toShiftJIS(s string) (string, int, bool) {
	t, err := japanese.ShiftJIS.NewEncoder().String(s)
	if err != nil || len(t)&1 != 0 {
		return "", 0, false
	}
	for i := 0; i < len(t); i += 2 {
		if _, ok := kanjiValue(t[i], t[i+1]); !ok {
			return "", 0, false
		}
	}
	return t, len(t) >> 1, true
}

var modes = [...]modeEncoder{
	Numeric: {
		name:          "numeric",
		indicator:     1,
		countLength:   [3]int{10, 12, 14},
		encodedLength: func(b, r int) int { return (10*b + 2) / 3 },
		accepts:       IsDigit,
		enc3: func(b [3]byte) (uint32, int) {
			return uint32(b[0]-'0')*100 + uint32(b[1]-'0')*10 +
				uint32(b[2]-'0'), 10
		},
		enc2: func(b [2]byte) (uint32, int) {
			return uint32(b[0]-'0')*10 + uint32(b[1]-'0'), 7
		},
		enc1: func(b byte) (uint32, int) {
			return uint32(b - '0'), 4
		},
	},
	Alphanumeric: {
		name:          "alphanumeric",
		indicator:     2,
		countLength:   [3]int{9, 11, 13},
		encodedLength: func(b, r int) int { return (11*b + 1) / 2 },
		accepts:       IsAlphanumeric,
		enc2: func(b [2]byte) (uint32, int) {
			return uint32(alpha[b[0]&0x3f])*45 +
				uint32(alpha[b[1]&0x3f]), 11
		},
		enc1: func(b byte) (uint32, int) {
			return uint32(alpha[b&0x3f]), 6
		},
	},
	Byte: {
		name:          "byte",
		indicator:     4,
		countLength:   [3]int{8, 16, 16},
		encodedLength: func(b, r int) int { return b * 8 },
	},
	Kanji: {
		name:          "kanji",
		indicator:     8,
		countLength:   [3]int{8, 10, 12},
		encodedLength: func(b, r int) int { return r * 13 },
		accepts:       IsKanji,
		transform:     toShiftJIS,
		enc2: func(b [2]byte) (uint32, int) {
			v, _ := kanjiValue(b[0], b[1])
			return v, 13
		},
	},
	ECI: {
		name:          "eci",
		indicator:     7,
		encodedLength: func(b, r int) int { return b * 8 },
		valid: func(s string) bool {
			ok := s != "" && len(s) == max(1, int(s[0]>>6))
			if ok && len(s) == 3 {
				ok = uint32(s[0]&^0xc0)<<16+uint32(s[1])<<8+
					uint32(s[2]) < 1e6
			}
			return ok
		},
	},
}

func getMode(mode Mode) *modeEncoder {
	if mode >= 0 && int(mode) < len(modes) {
		return &modes[mode]
	}
	return nil
}

func (mode Mode) String() string {
	if m := getMode(mode); m != nil {
		return m.name
	}
	return strconv.Itoa(int(mode))
}

// Is reports whether r is encodable in mode.
func Is(r rune, mode Mode) bool {
	m := getMode(mode)
	return m != nil && m.accepts != nil && m.accepts(r)
}

// Length returns the length in bits of a valid string of the given
// length in bytes and runes encoded in mode at the given QR version
// size class, including the header.  Length returns 0 if and only if
// mode is invalid.
func (mode Mode) Length(bytes, runes, class int) int {
	m := getMode(mode)
	if m == nil || class < Class0 || class > Class2 {
		return 0
	}
	return 4 + m.countLength[class] + m.encodedLength(bytes, runes)
}

// A Segment describes a QR code segment.
type Segment struct {
	Text string // data to encode
	Mode Mode   // encoding mode
}

// SegmentError represents an invalid Segment.
type SegmentError Segment

func (e SegmentError) Error() string {
	if m := getMode(e.Mode); m != nil {
		return fmt.Sprintf("qr: non-%s string %#q", m.name, e.Text)
	}
	return fmt.Sprintf("qr: invalid mode %d", e.Mode)
}

// NewECI returns an ECI segment for the assignment number n.
func NewECI(n int) (Segment, error) {
	var s string
	switch {
	case n < 0:
	case n < 1<<7:
		s = string([]byte{byte(n)})
	case n < 1<<14:
		s = string([]byte{byte(n>>8) | 0x80, byte(n)})
	case n < 1e6:
		s = string([]byte{byte(n>>16) | 0xc0, byte(n >> 8), byte(n)})
	}
	if s == "" {
		return Segment{}, fmt.Errorf("qr: invalid ECI designator %d", n)
	}
	return Segment{s, ECI}, nil
}

func (m *modeEncoder) isValid(s string) bool {
	if m.valid != nil {
		return m.valid(s)
	}
	if m.accepts == nil {
		return true
	}
	if m.transform == nil {
		for i := 0; i < len(s); i++ {
			if !m.accepts(rune(s[i])) {
				return false
			}
		}
		return true
	}
	for _, r := range s {
		if !m.accepts(r) {
			return false
		}
	}
	return true
}

// IsValid reports whether seg is encodable.
func (seg Segment) IsValid() bool {
	m := getMode(seg.Mode)
	return m != nil && m.isValid(seg.Text)
}

// EncodedLength returns the encoded length in bits of seg in the
// given QR version size class, including the header.  The segment
// is not validated.
func (seg Segment) EncodedLength(class int) int {
	return seg.Mode.Length(len(seg.Text),
		utf8.RuneCountInString(seg.Text), class)
}

// Encode writes seg encoded for the given QR version size class to b.
func (seg Segment) Encode(b *Bits, class int) error {
	m := getMode(seg.Mode)
	if m == nil {
		return SegmentError(seg)
	}
	if !m.isValid(seg.Text) {
		return SegmentError(seg)
	}
	s, count := seg.Text, len(seg.Text)
	if m.transform != nil {
		var ok bool
		if s, count, ok = m.transform(s); !ok {
			return SegmentError(seg)
		}
	}
	// write header
	b.Write(m.indicator, 4)
	if seg.Mode != ECI {
		n := m.countLength[class]
		if count >= 1<<n {
			return fmt.Errorf("qr: %s segment of %d characters "+
				"exceeds count field: %w", m.name, count, ErrDataTooLong)
		}
		b.Write(uint32(count), n)
	}
	// encode the string
	if m.enc3 == nil && m.enc2 == nil && m.enc1 == nil {
		for i := 0; i < len(s); i++ {
			b.Write(uint32(s[i]), 8)
		}
		return nil
	}
	if m.enc3 != nil {
		for ; len(s) >= 3; s = s[3:] {
			b.Write(m.enc3([3]byte{s[0], s[1], s[2]}))
		}
	}
	if m.enc2 != nil {
		for ; len(s) >= 2; s = s[2:] {
			b.Write(m.enc2([2]byte{s[0], s[1]}))
		}
	}
	if m.enc1 != nil {
		for ; len(s) >= 1; s = s[1:] {
			b.Write(m.enc1(s[0]))
		}
	}
	if s != "" {
		return fmt.Errorf("qr: %s mode: %w", m.name, ErrInternal)
	}
	return nil
}
