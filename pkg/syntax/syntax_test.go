// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

import (
	"bytes"
	"testing"

	"github.com/tcgsed/go-swg-core/pkg/buffer"
)

func roundTripUint(t *testing.T, v uint64) {
	t.Helper()
	buf := buffer.New(make([]byte, 16))
	if err := EncodeUint(buf, v); err != nil {
		t.Fatalf("EncodeUint(%d): %v", v, err)
	}
	got, err := DecodeUint(buffer.NewView(buf.Bytes()))
	if err != nil {
		t.Fatalf("DecodeUint(%d): %v", v, err)
	}
	if got != v {
		t.Fatalf("round trip mismatch: encoded %d, decoded %d", v, got)
	}
}

func TestUintBoundaries(t *testing.T) {
	for _, v := range []uint64{0x00, 0x3f, 0x40, 0xff, 0xffff, 0xffffffff, ^uint64(0)} {
		roundTripUint(t, v)
	}
}

func TestUintTinyEncoding(t *testing.T) {
	buf := buffer.New(make([]byte, 4))
	if err := EncodeUint(buf, 0x3f); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0x3f}) {
		t.Fatalf("expected single tiny byte 0x3f, got %x", buf.Bytes())
	}
}

func TestUintNonTinyUsesShortAtom(t *testing.T) {
	buf := buffer.New(make([]byte, 4))
	if err := EncodeUint(buf, 0x40); err != nil {
		t.Fatal(err)
	}
	// 0x40 needs 1 data byte -> short atom header 0x80 | 1
	want := []byte{0x81, 0x40}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got %x, want %x", buf.Bytes(), want)
	}
}

func roundTripSint(t *testing.T, v int64) {
	t.Helper()
	buf := buffer.New(make([]byte, 16))
	if err := EncodeSint(buf, v); err != nil {
		t.Fatalf("EncodeSint(%d): %v", v, err)
	}
	got, err := DecodeSint(buffer.NewView(buf.Bytes()))
	if err != nil {
		t.Fatalf("DecodeSint(%d): %v", v, err)
	}
	if got != v {
		t.Fatalf("round trip mismatch: encoded %d, decoded %d", v, got)
	}
}

func TestSintBoundaries(t *testing.T) {
	for _, v := range []int64{0, 0x1f, -0x20, 0x20, -0x21, 0x7fff, -0x8000} {
		roundTripSint(t, v)
	}
}

func TestSintTinyEncoding(t *testing.T) {
	buf := buffer.New(make([]byte, 4))
	if err := EncodeSint(buf, -1); err != nil {
		t.Fatal(err)
	}
	if len(buf.Bytes()) != 1 {
		t.Fatalf("expected a single tiny byte, got %x", buf.Bytes())
	}
}

func roundTripBinary(t *testing.T, n int) {
	t.Helper()
	data := bytes.Repeat([]byte{0xAB}, n)
	buf := buffer.New(make([]byte, n+8))
	if err := EncodeBinary(buf, data); err != nil {
		t.Fatalf("EncodeBinary(len=%d): %v", n, err)
	}
	got, err := DecodeBinary(buffer.NewView(buf.Bytes()))
	if err != nil {
		t.Fatalf("DecodeBinary(len=%d): %v", n, err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch at len=%d", n)
	}
}

func TestBinaryBoundaries(t *testing.T) {
	for _, n := range []int{0, 15, 16, 2047, 2048} {
		roundTripBinary(t, n)
	}
}

func TestDecodeUIDRejectsWrongShape(t *testing.T) {
	buf := buffer.New(make([]byte, 16))
	// 8 bytes but byte 4 is non-zero: not the canonical high:low shape.
	if err := EncodeBinary(buf, []byte{0, 0, 0, 1, 1, 0, 0, 1}); err != nil {
		t.Fatal(err)
	}
	view := buffer.NewView(buf.Bytes())
	if _, err := DecodeUID(view); err != ErrBadDatatype {
		t.Fatalf("expected ErrBadDatatype, got %v", err)
	}
	if view.ParseIndex() != 0 {
		t.Fatalf("expected parse cursor restored to 0, got %d", view.ParseIndex())
	}
}

func TestDecodeUIDAcceptsCanonicalShape(t *testing.T) {
	buf := buffer.New(make([]byte, 16))
	if err := EncodeUID(buf, 0x0000000100000002); err != nil {
		t.Fatal(err)
	}
	got, err := DecodeUID(buffer.NewView(buf.Bytes()))
	if err != nil {
		t.Fatalf("DecodeUID: %v", err)
	}
	if got != 0x0000000100000002 {
		t.Fatalf("got %x", got)
	}
}

func TestExpectTokenMismatchDoesNotAdvance(t *testing.T) {
	buf := buffer.NewView([]byte{byte(StartList)})
	if err := ExpectToken(buf, EndList); err != ErrBadSyntax {
		t.Fatalf("expected ErrBadSyntax, got %v", err)
	}
	if buf.ParseIndex() != 0 {
		t.Fatalf("expected no advance on mismatch, got %d", buf.ParseIndex())
	}
}

func TestDecodeListPrintsCall(t *testing.T) {
	buf := buffer.New(make([]byte, 64))
	EncodeToken(buf, Call)
	EncodeUID(buf, 0x0000000000000001)
	EncodeUID(buf, 0x0000000600000001)
	EncodeToken(buf, StartList)
	EncodeToken(buf, EndList)

	l, err := DecodeList(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeList: %v", err)
	}
	out := Print(l)
	if out == "" {
		t.Fatalf("expected non-empty diagnostic output")
	}
}
