// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package split

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"

	"github.com/unixdj/qrgen/coding"
)

func modesOf(segs []coding.Segment) []coding.Mode {
	m := make([]coding.Mode, len(segs))
	for i, s := range segs {
		m[i] = s.Mode
	}
	return m
}

func equalModes(a, b []coding.Mode) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSplitModes(t *testing.T) {
	tests := []struct {
		text  string
		modes []coding.Mode
	}{
		{"0123456789", []coding.Mode{coding.Numeric}},
		{"HELLO WORLD", []coding.Mode{coding.Alphanumeric}},
		{"HTTP://EXAMPLE.COM/$%*+-./:", []coding.Mode{coding.Alphanumeric}},
		{"hello, world", []coding.Mode{coding.Byte}},
		{"a1", []coding.Mode{coding.Byte}},
		{"点茗", []coding.Mode{coding.Kanji}},
		{"HELLO 12345678901234567890",
			[]coding.Mode{coding.Alphanumeric, coding.Numeric}},
	}
	for _, tt := range tests {
		segs, _, err := Split(Text{Text: tt.text}, M)
		if err != nil {
			t.Errorf("%q: %v", tt.text, err)
			continue
		}
		if got := modesOf(segs); !equalModes(got, tt.modes) {
			t.Errorf("%q: modes %v, want %v", tt.text, got, tt.modes)
		}
	}
}

func TestSplitDigitsAlwaysNumeric(t *testing.T) {
	for n := 1; n <= 300; n += 7 {
		s := strings.Repeat("8675309", n)[:n]
		segs, _, err := Split(Text{Text: s}, L)
		if err != nil {
			t.Fatal(err)
		}
		if len(segs) != 1 || segs[0].Mode != coding.Numeric || segs[0].Text != s {
			t.Errorf("%d digits: got %v", n, segs)
		}
	}
}

func TestSplitMixedText(t *testing.T) {
	segs, _, err := Split(Text{Text: "HELLO 12345678901234567890"}, M)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 2 || segs[0].Text != "HELLO " ||
		segs[1].Text != "12345678901234567890" {
		t.Errorf("got %q", segs)
	}
}

func TestSplitHelloWorldQ(t *testing.T) {
	segs, v, err := Split(Text{Text: "HELLO WORLD"}, Q)
	if err != nil {
		t.Fatal(err)
	}
	if v != 1 {
		t.Errorf("version %v, want 1", v)
	}
	if len(segs) != 1 || segs[0].Mode != coding.Alphanumeric {
		t.Errorf("got %v", segs)
	}
}

func TestSplitEmpty(t *testing.T) {
	if _, _, err := Split(Text{}, M); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("got %v, want ErrEmptyContent", err)
	}
	if _, err := SplitVersion(Text{}, 1, M); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("SplitVersion: got %v, want ErrEmptyContent", err)
	}
}

func TestSplitCapacity(t *testing.T) {
	digits := strings.Repeat("1234567890", 306)
	segs, v, err := Split(Text{Text: digits[:3057]}, H)
	if err != nil || v != 40 || len(segs) != 1 {
		t.Errorf("3057 digits at H: version %v, %d segments, %v", v, len(segs), err)
	}
	if _, _, err := Split(Text{Text: digits[:3058]}, H); !errors.Is(err, ErrDataTooLong) {
		t.Errorf("3058 digits at H: got %v, want ErrDataTooLong", err)
	}

	// 1273 bytes is the byte mode limit at 40-H: 4+16+1273*8 <= 1276*8
	bin := strings.Repeat("x", 1274)
	if _, v, err := Split(Text{Text: bin[:1273]}, H); err != nil || v != 40 {
		t.Errorf("1273 bytes at H: version %v, %v", v, err)
	}
	if _, _, err := Split(Text{Text: bin}, H); !errors.Is(err, ErrDataTooLong) {
		t.Errorf("1274 bytes at H: got %v, want ErrDataTooLong", err)
	}
}

func TestSplitLongText(t *testing.T) {
	text := strings.Repeat("QR CODE ", 375) // 3000 characters
	if _, _, err := Split(Text{Text: text}, H); !errors.Is(err, ErrDataTooLong) {
		t.Errorf("H: got %v, want ErrDataTooLong", err)
	}
	segs, v, err := Split(Text{Text: text}, L)
	if err != nil {
		t.Fatalf("L: %v", err)
	}
	if v < 27 || len(segs) != 1 || segs[0].Mode != coding.Alphanumeric {
		t.Errorf("L: version %v, modes %v", v, modesOf(segs))
	}
	if bits := segs[0].EncodedLength(v.SizeClass()); bits > v.DataBits(L) ||
		bits <= (v-1).DataBits(L) {
		t.Errorf("L: version %v is not the smallest for %d bits", v, bits)
	}
}

func TestSplitVersion(t *testing.T) {
	text := Text{Text: "HELLO WORLD"}
	if _, err := SplitVersion(text, 5, Q); err != nil {
		t.Errorf("version 5: %v", err)
	}
	for _, v := range []coding.Version{0, 41} {
		if _, err := SplitVersion(text, v, Q); !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("version %v: got %v, want ErrUnsupportedVersion", v, err)
		}
	}
	long := Text{Text: strings.Repeat("A", 30)}
	if _, err := SplitVersion(long, 1, H); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("30 characters at 1-H: got %v, want ErrUnsupportedVersion", err)
	}
	if _, err := SplitVersion(text, 1, coding.Level(9)); !errors.Is(err, coding.ErrLevel) {
		t.Errorf("level 9: got %v", err)
	}
}

func TestSplitCharset(t *testing.T) {
	segs, _, err := Split(Text{Text: "café", Charset: Latin1}, M)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 1 || segs[0].Mode != coding.Byte || segs[0].Text != "caf\xe9" {
		t.Errorf("Latin-1: got %q", segs)
	}
	segs, _, err = Split(Text{Text: "café"}, M)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 1 || segs[0].Text != "café" {
		t.Errorf("UTF-8: got %q", segs)
	}
	if _, _, err := Split(Text{Text: "€", Charset: Latin1}, M); !errors.Is(err, ErrNotEncodable) {
		t.Errorf("euro in Latin-1: got %v, want ErrNotEncodable", err)
	}
	// kanji mode does not depend on the byte mode charset
	segs, _, err = Split(Text{Text: "点茗", Charset: Latin1}, M)
	if err != nil || len(segs) != 1 || segs[0].Mode != coding.Kanji {
		t.Errorf("kanji with Latin-1: got %v, %v", segs, err)
	}
}

func TestSplitKanji(t *testing.T) {
	text := "日本語のテキスト"
	segs, _, err := Split(Text{Text: text}, M)
	if err != nil {
		t.Fatal(err)
	}
	enc := japanese.ShiftJIS.NewEncoder()
	for _, seg := range segs {
		if seg.Mode != coding.Kanji {
			continue
		}
		b, err := enc.String(seg.Text)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i+1 < len(b); i += 2 {
			c := uint16(b[i])<<8 | uint16(b[i+1])
			if !(0x8140 <= c && c <= 0x9ffc || 0xe040 <= c && c <= 0xebbf) {
				t.Errorf("%q: Shift JIS %#04x outside kanji ranges", seg.Text, c)
			}
		}
	}
	if got := modesOf(segs); !equalModes(got, []coding.Mode{coding.Kanji}) {
		t.Errorf("modes %v, want kanji", got)
	}

	segs, _, err = Split(Text{Text: text, NoKanji: true}, M)
	if err != nil {
		t.Fatal(err)
	}
	if got := modesOf(segs); !equalModes(got, []coding.Mode{coding.Byte}) {
		t.Errorf("NoKanji: modes %v, want byte", got)
	}
}

func TestSplitECI(t *testing.T) {
	segs, _, err := Split(Text{Text: "Grüße", ECI: true}, M)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 2 || segs[0].Mode != coding.ECI || segs[0].Text != "\x1a" {
		t.Errorf("got %q", segs)
	}
	cs, _ := LookupCharset("Shift_JIS")
	segs, _, err = Split(Text{Text: "ｱｲｳ", Charset: cs, ECI: true}, M)
	if err != nil {
		t.Fatal(err)
	}
	if segs[0].Text != "\x14" || segs[1].Mode != coding.Byte || segs[1].Text != "\xb1\xb2\xb3" {
		t.Errorf("Shift JIS: got %q", segs)
	}
}

func TestLookupCharset(t *testing.T) {
	tests := []struct {
		label string
		name  string
		eci   int
	}{
		{"", "utf-8", 26},
		{"UTF-8", "utf-8", 26},
		{"latin1", "iso-8859-1", 3},
		{"ISO-8859-1", "iso-8859-1", 3},
		{"sjis", "shift_jis", 20},
		{"cp1251", "windows-1251", 22},
		{"iso-8859-15", "iso-8859-15", 17},
		{"euc-kr", "euc-kr", 30},
	}
	for _, tt := range tests {
		cs, err := LookupCharset(tt.label)
		if err != nil {
			t.Errorf("%q: %v", tt.label, err)
			continue
		}
		if cs.Name != tt.name || cs.ECI != tt.eci {
			t.Errorf("%q: got %s/%d, want %s/%d", tt.label, cs.Name, cs.ECI, tt.name, tt.eci)
		}
	}
	for _, label := range []string{"klingon", "replacement"} {
		if _, err := LookupCharset(label); !errors.Is(err, ErrEncoding) {
			t.Errorf("%q: got %v, want ErrEncoding", label, err)
		}
	}
}

func TestSplitInvalidLevel(t *testing.T) {
	if _, _, err := Split(Text{Text: "x"}, coding.Level(-1)); !errors.Is(err, coding.ErrLevel) {
		t.Errorf("got %v", err)
	}
}
