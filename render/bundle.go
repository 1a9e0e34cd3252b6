// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"archive/zip"
	"fmt"
	"io"

	qr "github.com/unixdj/qrgen"
)

// BundleKinds are the formats Bundle writes when given none.
var BundleKinds = []Kind{PNG, JPEG, SVG}

// Bundle file name and content type.
const (
	BundleFilename    = "qrcode.zip"
	BundleContentType = "application/zip"
)

// Bundle writes a zip archive holding c rendered in each of kinds,
// named by Filename.
func Bundle(w io.Writer, c *qr.Code, s Style, kinds ...Kind) error {
	if len(kinds) == 0 {
		kinds = BundleKinds
	}
	zw := zip.NewWriter(w)
	seen := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		r, err := For(k)
		if err != nil {
			return err
		}
		name := Filename(k)
		if seen[name] {
			return fmt.Errorf("%w: %s twice in bundle", ErrKind, name)
		}
		seen[name] = true
		method := zip.Deflate
		if k == PNG || k == JPEG {
			method = zip.Store // already compressed
		}
		f, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
		if err != nil {
			return err
		}
		if err := r.Render(f, c, s); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return zw.Close()
}
