// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qr "github.com/unixdj/qrgen"
	"github.com/unixdj/qrgen/coding"
	"github.com/unixdj/qrgen/render"
)

var roundTrip = []string{
	"HELLO WORLD",
	"0123456789012345678901234567890",
	"https://github.com/unixdj/qrgen?size=medium&fg=%23000000",
	"HELLO 12345678901234567890 hello",
	"点茗",
	strings.Repeat("The quick brown fox jumps over the lazy dog. ", 12),
	strings.Repeat("31415926535897932384626433832795", 40),
}

func TestRoundTrip(t *testing.T) {
	for _, level := range []qr.Level{qr.L, qr.M, qr.Q, qr.H} {
		for _, text := range roundTrip {
			name := fmt.Sprintf("%v/%d", level, len(text))
			c, err := qr.Encode(text, level)
			require.NoError(t, err, name)
			assert.NoError(t, Verify(c, text), "%s version %v", name, c.Version)
		}
	}
}

func TestRoundTripVersions(t *testing.T) {
	for _, v := range []int{1, 2, 6, 7, 10, 14, 21, 27, 40} {
		o := qr.DefaultOptions()
		o.Version = coding.Version(v)
		c, err := qr.EncodeText("QRGEN", o)
		require.NoError(t, err)
		assert.Equal(t, 4*v+17, c.Size)
		assert.NoError(t, Verify(c, "QRGEN"), "version %d", v)
	}
}

func TestRoundTripECI(t *testing.T) {
	o := qr.DefaultOptions()
	o.ECI = true
	o.NoKanji = true
	c, err := qr.EncodeText("Grüße, 世界", o)
	require.NoError(t, err)
	assert.NoError(t, Verify(c, "Grüße, 世界"))
}

func TestDecodeRendered(t *testing.T) {
	c, err := qr.Encode("HELLO WORLD", qr.M)
	require.NoError(t, err)
	for _, k := range []render.Kind{render.PNG, render.JPEG, render.BMP} {
		s := render.DefaultStyle()
		s.Width = 300
		s.Foreground = color.RGBA{0x00, 0x00, 0x80, 0xff}
		s.Background = color.RGBA{0xff, 0xff, 0xe0, 0xff}
		var b bytes.Buffer
		require.NoError(t, render.Render(&b, k, c, s))
		got, err := DecodeReader(&b)
		if assert.NoError(t, err, k.String()) {
			assert.Equal(t, "HELLO WORLD", got, k.String())
		}
	}
}

func TestDecodeBlank(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	_, err := Decode(img)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestVerifyMismatch(t *testing.T) {
	c, err := qr.Encode("HELLO", qr.M)
	require.NoError(t, err)
	assert.ErrorIs(t, Verify(c, "WORLD"), ErrMismatch)
}
