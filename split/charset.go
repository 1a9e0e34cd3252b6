// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package split

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
)

// Extended Channel Interpretation assignment numbers.
const (
	Latin1ECI   = 3   // ISO 8859-1
	ShiftJISECI = 20  // Shift JIS
	UTF8ECI     = 26  // UTF-8
	BinaryECI   = 899 // 8-bit binary data
)

// eciNumber maps WHATWG encoding names to ECI assignment numbers.
var eciNumber = map[string]int{
	"iso-8859-1":   Latin1ECI,
	"iso-8859-2":   4,
	"iso-8859-3":   5,
	"iso-8859-4":   6,
	"iso-8859-5":   7,
	"iso-8859-6":   8,
	"iso-8859-7":   9,
	"iso-8859-8":   10,
	"iso-8859-10":  12,
	"iso-8859-13":  15,
	"iso-8859-14":  16,
	"iso-8859-15":  17,
	"iso-8859-16":  18,
	"shift_jis":    ShiftJISECI,
	"windows-1250": 21,
	"windows-1251": 22,
	"windows-1252": 23,
	"windows-1256": 24,
	"utf-16be":     25,
	"utf-8":        UTF8ECI,
	"big5":         28,
	"gbk":          29,
	"gb18030":      29,
	"euc-kr":       30,
}

// A Charset is the character encoding of byte mode segments.
type Charset struct {
	Name string // WHATWG encoding name
	ECI  int    // ECI assignment number, 0 if there is none

	enc encoding.Encoding // nil for UTF-8
}

// Predefined Charsets.
var (
	// UTF8 passes text through as is.  It is the default.
	UTF8 = &Charset{Name: "utf-8", ECI: UTF8ECI}

	// Latin1 encodes byte mode segments as ISO 8859-1, the QR
	// default when no ECI segment is present.
	Latin1 = &Charset{Name: "iso-8859-1", ECI: Latin1ECI,
		enc: charmap.ISO8859_1}

	// ShiftJIS encodes byte mode segments as Shift JIS.
	ShiftJIS = &Charset{Name: "shift_jis", ECI: ShiftJISECI,
		enc: japanese.ShiftJIS}
)

// LookupCharset returns the Charset for an encoding label such as
// "UTF-8", "latin1" or "Shift_JIS".  Labels are resolved using the
// WHATWG Encoding Standard, except that ISO 8859-1 labels denote
// ISO 8859-1 rather than Windows-1252.  An empty label means UTF-8.
func LookupCharset(label string) (*Charset, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8":
		return UTF8, nil
	case "iso-8859-1", "iso8859-1", "iso_8859-1", "latin1", "l1":
		return Latin1, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrEncoding, label)
	}
	name, err := htmlindex.Name(enc)
	if err != nil || name == "replacement" {
		return nil, fmt.Errorf("%w %q", ErrEncoding, label)
	}
	switch name {
	case UTF8.Name:
		return UTF8, nil
	case ShiftJIS.Name:
		return ShiftJIS, nil
	}
	return &Charset{Name: name, ECI: eciNumber[name], enc: enc}, nil
}

func (c *Charset) String() string { return c.Name }

// encoder converts UTF-8 text to c.  The zero value is the UTF-8
// identity encoder.  An encoder is not safe for concurrent use.
type encoder struct {
	e *encoding.Encoder
}

func (c *Charset) newEncoder() encoder {
	if c == nil || c.enc == nil {
		return encoder{}
	}
	return encoder{c.enc.NewEncoder()}
}

// runeLen returns the encoded length of the rune r occupying sz bytes
// of UTF-8 input.
func (e encoder) runeLen(r rune, sz int) (int, bool) {
	if e.e == nil {
		return sz, true
	}
	if r == utf8.RuneError && sz == 1 {
		return 0, false
	}
	var buf [utf8.UTFMax]byte
	b, err := e.e.Bytes(buf[:utf8.EncodeRune(buf[:], r)])
	if err != nil || len(b) == 0 {
		return 0, false
	}
	return len(b), true
}

func (e encoder) encode(s string) (string, error) {
	if e.e == nil {
		return s, nil
	}
	t, err := e.e.String(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotEncodable, err)
	}
	return t, nil
}
