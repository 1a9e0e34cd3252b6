// Copyright 2011 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package split_test

import (
	"fmt"
	"log"

	"github.com/unixdj/qrgen/coding"
	"github.com/unixdj/qrgen/split"
)

func ExampleSplit() {
	segs, v, err := split.Split(split.Text{
		Text: "HELLO 12345678901234567890",
	}, split.M)
	if err != nil {
		log.Fatalln(err)
	}
	fmt.Printf("version %d, %d segments:\n", v, len(segs))
	class := v.SizeClass()
	for _, s := range segs {
		fmt.Printf("  %-12s %3d bits  %q\n", s.Mode, s.EncodedLength(class), s.Text)
	}
	// Output:
	// version 1, 2 segments:
	//   alphanumeric  46 bits  "HELLO "
	//   numeric       81 bits  "12345678901234567890"
}

func ExampleLookupCharset() {
	// Encode byte mode segments as Shift JIS, preceded by an ECI
	// segment announcing the encoding.
	cs, err := split.LookupCharset("Shift_JIS")
	if err != nil {
		log.Fatalln(err)
	}
	segs, v, err := split.Split(split.Text{
		Text:    "ｼﾞｬﾊﾟﾝ 20円",
		Charset: cs,
		ECI:     true,
	}, split.Q)
	if err != nil {
		log.Fatalln(err)
	}
	// To encode the segments above:
	c, err := coding.Encode(v, split.Q, segs...)
	if err != nil {
		log.Fatalln(err)
	}
	fmt.Println(c.Size, c.Version, c.Level)
}
