// Copyright 2010 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gf256

import (
	"bytes"
	"testing"
)

var qrField = NewField(0x11d, 2)

func TestExpLog(t *testing.T) {
	for i := 0; i < 255; i++ {
		x := qrField.Exp(i)
		if l := qrField.Log(x); l != i {
			t.Errorf("Log(Exp(%d)) = %d", i, l)
		}
	}
	if l := qrField.Log(0); l != -1 {
		t.Errorf("Log(0) = %d, want -1", l)
	}
	if x := qrField.Exp(255); x != 1 {
		t.Errorf("Exp(255) = %d, want 1", x)
	}
}

func TestMulInv(t *testing.T) {
	for x := 1; x < 256; x++ {
		inv := qrField.Inv(byte(x))
		if p := qrField.Mul(byte(x), inv); p != 1 {
			t.Errorf("%d * Inv(%d) = %d", x, x, p)
		}
		if p := qrField.Mul(byte(x), 0); p != 0 {
			t.Errorf("%d * 0 = %d", x, p)
		}
	}
	// 0x80 * 2 overflows and reduces by 0x11d.
	if p := qrField.Mul(0x80, 2); p != 0x1d {
		t.Errorf("Mul(0x80, 2) = %#x, want 0x1d", p)
	}
}

func TestGen(t *testing.T) {
	gen, _ := qrField.gen(7)
	want := []byte{1, 127, 122, 154, 164, 11, 68, 117}
	if !bytes.Equal(gen, want) {
		t.Errorf("gen(7) = %v, want %v", gen, want)
	}
}

func TestECC(t *testing.T) {
	// "HELLO WORLD", version 1, level M.
	data := []byte{32, 91, 11, 120, 209, 114, 220, 77,
		67, 64, 236, 17, 236, 17, 236, 17}
	want := []byte{196, 35, 39, 119, 235, 215, 231, 226, 93, 23}
	rs := NewRSEncoder(qrField, 10)
	check := make([]byte, rs.Len())
	rs.ECC(data, check)
	if !bytes.Equal(check, want) {
		t.Errorf("ECC = %v, want %v", check, want)
	}
}

func TestECCSyndromes(t *testing.T) {
	// A codeword is divisible by the generator, so it evaluates
	// to zero at every root α^i.
	data := []byte("The quick brown fox jumps over the lazy dog")
	const c = 22
	rs := NewRSEncoder(qrField, c)
	check := make([]byte, c)
	rs.ECC(data, check)
	msg := append(append([]byte{}, data...), check...)
	for i := 0; i < c; i++ {
		x := qrField.Exp(i)
		var s byte
		for _, v := range msg {
			s = qrField.Mul(s, x) ^ v
		}
		if s != 0 {
			t.Errorf("syndrome %d = %d, want 0", i, s)
		}
	}
}

func TestInvalidField(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewField(0x100, 2) did not panic")
		}
	}()
	NewField(0x100, 2)
}

func BenchmarkECC(b *testing.B) {
	data := make([]byte, 118)
	check := make([]byte, 30)
	rs := NewRSEncoder(qrField, 30)
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		rs.ECC(data, check)
	}
}
