// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buffer

import (
	"bytes"
	"testing"
)

func TestAppendBounds(t *testing.T) {
	region := make([]byte, 1)
	b := New(region)

	if err := b.AppendByte('x'); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if err := b.AppendByte('y'); err != ErrNoSpace {
		t.Fatalf("expected ErrNoSpace, got %v", err)
	}
	if !bytes.Equal(b.Bytes(), []byte("x")) {
		t.Fatalf("buffer contents changed after failed append: %q", b.Bytes())
	}
}

func TestAppendNilSource(t *testing.T) {
	region := make([]byte, 4)
	b := New(region)

	if err := b.Append(nil); err != ErrNullPointer {
		t.Fatalf("expected ErrNullPointer, got %v", err)
	}
	if b.Len() != 0 {
		t.Fatalf("length should remain 0, got %d", b.Len())
	}
}

func TestTrimLeftThenTrimRight(t *testing.T) {
	region := []byte("0123456789")
	b := NewView(region)

	if err := b.TrimLeft(2); err != nil {
		t.Fatalf("TrimLeft: %v", err)
	}
	if err := b.TrimRight(3); err != nil {
		t.Fatalf("TrimRight: %v", err)
	}
	want := region[2 : len(region)-3]
	if !bytes.Equal(b.Bytes(), want) {
		t.Fatalf("got %q, want %q", b.Bytes(), want)
	}
}

func TestTrimFloorsCounters(t *testing.T) {
	region := []byte("ab")
	b := NewView(region)
	b.Advance(1) // parseIndex = 1

	if err := b.TrimLeft(2); err != nil {
		t.Fatalf("TrimLeft: %v", err)
	}
	if b.Len() != 0 || b.ParseIndex() != 0 {
		t.Fatalf("expected length and parse index floored to 0, got len=%d parse=%d", b.Len(), b.ParseIndex())
	}
}

func TestTrimLeftBeyondCapacity(t *testing.T) {
	b := NewView([]byte("ab"))
	if err := b.TrimLeft(3); err != ErrBufferEnd {
		t.Fatalf("expected ErrBufferEnd, got %v", err)
	}
}

func TestPeekDoesNotAdvance(t *testing.T) {
	b := NewView([]byte("ab"))
	v, err := b.Peek()
	if err != nil || v != 'a' {
		t.Fatalf("Peek() = %v, %v", v, err)
	}
	if b.ParseIndex() != 0 {
		t.Fatalf("Peek should not advance parse index, got %d", b.ParseIndex())
	}
}

func TestPeekAtEnd(t *testing.T) {
	b := NewView(nil)
	if _, err := b.Peek(); err != ErrBufferEnd {
		t.Fatalf("expected ErrBufferEnd on empty buffer, got %v", err)
	}
}

func TestCompareString(t *testing.T) {
	b := NewView([]byte("HostProperties"))
	if !b.CompareString("HostProperties") {
		t.Fatalf("expected exact match")
	}
	if b.CompareString("Other") {
		t.Fatalf("expected mismatch")
	}
}

func TestAppendBufferCopiesValidRegionOnly(t *testing.T) {
	src := NewView([]byte("hello"))
	src.SetLength(3) // only "hel" is valid

	dst := New(make([]byte, 10))
	if err := dst.AppendBuffer(src); err != nil {
		t.Fatalf("AppendBuffer: %v", err)
	}
	if !bytes.Equal(dst.Bytes(), []byte("hel")) {
		t.Fatalf("got %q", dst.Bytes())
	}
}
