// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"

	qr "github.com/unixdj/qrgen"
)

// JPEGQuality is the quality of JPEG output.
const JPEGQuality = 90

// Image returns c drawn according to s.  If s.Width is set and is
// not a multiple of the module count, the image is resized to exactly
// s.Width pixels using nearest neighbour sampling, which keeps the
// modules sharp.
func Image(c *qr.Code, s Style) image.Image {
	cc := s.apply(c)
	img := cc.Image()
	if s.Width > 0 && s.Width != cc.Pixels() {
		return imaging.Resize(img, s.Width, s.Width, imaging.NearestNeighbor)
	}
	return img
}

// renderPNG uses the code's own PNG encoder when the width is a
// whole number of pixels per module, and image/png on the resized
// image otherwise.
func renderPNG(w io.Writer, c *qr.Code, s Style) error {
	if cc := s.apply(c); s.Width == 0 || s.Width == cc.Pixels() {
		if err := cc.EncodePNG(w); !errors.Is(err, qr.ErrLargeImage) {
			return err
		}
	}
	return png.Encode(w, Image(c, s))
}

func renderBMP(w io.Writer, c *qr.Code, s Style) error {
	return bmp.Encode(w, Image(c, s))
}

// renderJPEG flattens the image onto the background colour, as JPEG
// has no transparency.
func renderJPEG(w io.Writer, c *qr.Code, s Style) error {
	img := Image(c, s)
	bg := s.Background
	if bg == nil {
		bg, _ = c.Colors()
	}
	dst := image.NewRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Over)
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Over)
	return jpeg.Encode(w, dst, &jpeg.Options{Quality: JPEGQuality})
}

func renderPBM(w io.Writer, c *qr.Code, s Style) error {
	return s.apply(c).EncodePBM(w)
}
