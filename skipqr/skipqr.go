// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package skipqr implements qr.Encoder on top of
// github.com/skip2/go-qrcode.  It supports UTF-8 text only, without
// ECI segments, and does not report the chosen mask.
package skipqr // import "github.com/unixdj/qrgen/skipqr"

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	qr "github.com/unixdj/qrgen"
	"github.com/unixdj/qrgen/coding"
)

// Encoder is a qr.Encoder backed by go-qrcode.
type Encoder struct{}

var _ qr.Encoder = Encoder{}

var levels = [...]qrcode.RecoveryLevel{
	qr.L: qrcode.Low,
	qr.M: qrcode.Medium,
	qr.Q: qrcode.High,
	qr.H: qrcode.Highest,
}

// Encode encodes text according to o.  o.Encoding must be empty or
// UTF-8, and o.ECI and o.NoKanji are not supported.
func (Encoder) Encode(text string, o qr.Options) (*qr.Code, error) {
	if text == "" {
		return nil, qr.ErrEmptyContent
	}
	if !o.Level.IsValid() {
		return nil, coding.ErrLevel
	}
	switch strings.ToLower(o.Encoding) {
	case "", "utf-8", "utf8":
	default:
		return nil, fmt.Errorf("%w: go-qrcode supports UTF-8 only, not %q",
			qr.ErrEncoding, o.Encoding)
	}
	if o.ECI {
		return nil, fmt.Errorf("%w: go-qrcode does not write ECI segments",
			qr.ErrEncoding)
	}
	var (
		q   *qrcode.QRCode
		err error
	)
	if o.Version == 0 {
		q, err = qrcode.New(text, levels[o.Level])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", qr.ErrDataTooLong, err)
		}
	} else {
		if !o.Version.IsValid() {
			return nil, fmt.Errorf("%w: no version %d",
				qr.ErrUnsupportedVersion, o.Version)
		}
		q, err = qrcode.NewWithForcedVersion(text, int(o.Version), levels[o.Level])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", qr.ErrUnsupportedVersion, err)
		}
	}
	q.DisableBorder = true
	return pack(q.Bitmap(), coding.Version(q.VersionNumber), o.Level), nil
}

// pack converts a module grid to a Code.
func pack(bm [][]bool, v coding.Version, l qr.Level) *qr.Code {
	siz := len(bm)
	stride := (siz + 7) >> 3
	c := &qr.Code{
		Bitmap:    make([]byte, siz*stride),
		Size:      siz,
		Stride:    stride,
		Version:   v,
		Level:     l,
		Mask:      -1,
		QuietZone: qr.DefaultQuietZone,
		Scale:     8,
	}
	for y, row := range bm {
		for x, dark := range row {
			if dark {
				c.Bitmap[y*stride+x>>3] |= 0x80 >> (x & 7)
			}
		}
	}
	return c
}
