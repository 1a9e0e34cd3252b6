// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scan reads QR codes back from images, to check that what
// was encoded decodes to the original text.
package scan // import "github.com/unixdj/qrgen/scan"

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	_ "golang.org/x/image/bmp"

	qr "github.com/unixdj/qrgen"
)

var (
	ErrNotFound = errors.New("scan: no QR code found")
	ErrMismatch = errors.New("scan: decoded text differs")
)

// Decode returns the text of the QR code in img.
func Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("scan: creating bitmap: %w", err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	res, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return res.GetText(), nil
}

// DecodeReader decodes a PNG, JPEG or BMP image from r and returns
// the text of the QR code in it.
func DecodeReader(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("scan: decoding image: %w", err)
	}
	return Decode(img)
}

// Verify decodes c and checks that it holds text.
func Verify(c *qr.Code, text string) error {
	cc := *c
	cc.Scale = 4
	cc.QuietZone = qr.DefaultQuietZone
	cc.Palette = nil
	got, err := Decode(cc.Image())
	if err != nil {
		return err
	}
	if got != text {
		return fmt.Errorf("%w: got %q, want %q", ErrMismatch, got, text)
	}
	return nil
}
