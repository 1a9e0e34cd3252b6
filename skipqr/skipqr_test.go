// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package skipqr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qr "github.com/unixdj/qrgen"
	"github.com/unixdj/qrgen/scan"
)

func TestEncode(t *testing.T) {
	var enc qr.Encoder = Encoder{}
	for _, text := range []string{"HELLO WORLD", "https://example.com/a?b=c", "12345"} {
		for _, l := range []qr.Level{qr.L, qr.M, qr.Q, qr.H} {
			c, err := enc.Encode(text, qr.Options{Level: l})
			require.NoError(t, err)
			assert.Equal(t, int(c.Version)*4+17, c.Size)
			assert.Equal(t, l, c.Level)
			assert.NoError(t, scan.Verify(c, text), "%q at %v", text, l)
		}
	}
}

func TestEncodeVersion(t *testing.T) {
	c, err := Encoder{}.Encode("HELLO", qr.Options{Level: qr.M, Version: 5})
	require.NoError(t, err)
	assert.Equal(t, 37, c.Size)
	assert.NoError(t, scan.Verify(c, "HELLO"))

	_, err = Encoder{}.Encode("HELLO", qr.Options{Version: 41})
	assert.ErrorIs(t, err, qr.ErrUnsupportedVersion)
	_, err = Encoder{}.Encode(strings.Repeat("x", 100), qr.Options{Level: qr.H, Version: 1})
	assert.ErrorIs(t, err, qr.ErrUnsupportedVersion)
}

func TestEncodeErrors(t *testing.T) {
	_, err := Encoder{}.Encode("", qr.Options{})
	assert.ErrorIs(t, err, qr.ErrEmptyContent)
	_, err = Encoder{}.Encode("x", qr.Options{Encoding: "latin1"})
	assert.ErrorIs(t, err, qr.ErrEncoding)
	_, err = Encoder{}.Encode("x", qr.Options{ECI: true})
	assert.ErrorIs(t, err, qr.ErrEncoding)
	_, err = Encoder{}.Encode(strings.Repeat("x", 4000), qr.Options{Level: qr.H})
	assert.ErrorIs(t, err, qr.ErrDataTooLong)
}

// Both encoders must agree on the version for plain text.
func TestSameVersion(t *testing.T) {
	for _, text := range []string{"HELLO WORLD", "hello, world", "0123456789"} {
		a, err := qr.Encode(text, qr.M)
		require.NoError(t, err)
		b, err := Encoder{}.Encode(text, qr.Options{Level: qr.M})
		require.NoError(t, err)
		assert.Equal(t, a.Version, b.Version, text)
	}
}
