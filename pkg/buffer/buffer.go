// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package buffer implements a bounded, cursor-addressed byte span used
// throughout the SWG communication stack to encode and decode binary
// syntax without per-call allocation.
package buffer

import (
	"bytes"
	"errors"
)

var (
	ErrNullPointer = errors.New("buffer: required pointer was nil")
	ErrNoSpace     = errors.New("buffer: not enough room for append")
	ErrBufferEnd   = errors.New("buffer: read past end of buffer")
)

// Buffer is a cursor into a caller-owned byte region.
//
// Invariant: ParseIndex <= Length <= Capacity at all times. Append-family
// operations only grow Length; parse-family operations only advance
// ParseIndex. Trim operations rebase the view itself.
type Buffer struct {
	base       []byte
	capacity   int
	length     int
	parseIndex int
}

// New wraps a pre-sized byte slice. The slice's own length is ignored;
// capacity is len(region), and the buffer starts empty unless NewView is
// used instead.
func New(region []byte) *Buffer {
	return &Buffer{base: region, capacity: len(region)}
}

// NewView wraps a byte slice that already holds valid data (e.g. a
// received payload), with Length == len(region) and ParseIndex == 0.
func NewView(region []byte) *Buffer {
	return &Buffer{base: region, capacity: len(region), length: len(region)}
}

// SetView re-points the buffer at region, treating all of it as valid
// data and resetting the parse cursor to zero. Used by the method
// invoker to hand a caller-owned Buffer a response view without an
// allocation.
func (b *Buffer) SetView(region []byte) {
	b.base = region
	b.capacity = len(region)
	b.length = len(region)
	b.parseIndex = 0
}

// Capacity returns the maximum writable length of the view.
func (b *Buffer) Capacity() int { return b.capacity }

// Len returns the number of bytes currently valid (written).
func (b *Buffer) Len() int { return b.length }

// ParseIndex returns the number of bytes consumed by decoding so far.
func (b *Buffer) ParseIndex() int { return b.parseIndex }

// Remaining returns the number of unparsed, valid bytes.
func (b *Buffer) Remaining() int { return b.length - b.parseIndex }

// Bytes returns the valid (written) portion of the view, [0, Length).
func (b *Buffer) Bytes() []byte {
	if b.base == nil {
		return nil
	}
	return b.base[:b.length]
}

// Unparsed returns the not-yet-decoded tail of the valid data,
// [ParseIndex, Length).
func (b *Buffer) Unparsed() []byte {
	if b.base == nil {
		return nil
	}
	return b.base[b.parseIndex:b.length]
}

// SeekParse resets the parse cursor to an absolute offset within the
// valid region. Used to rewind to a known point after a tentative decode
// fails (see syntax.DecodeUID).
func (b *Buffer) SeekParse(idx int) {
	if idx < 0 {
		idx = 0
	}
	if idx > b.length {
		idx = b.length
	}
	b.parseIndex = idx
}

// SetLength forcibly sets the valid length, used when wrapping a region
// that a lower layer has already validated (e.g. framer response views).
// n is clamped to [0, Capacity].
func (b *Buffer) SetLength(n int) {
	if n < 0 {
		n = 0
	}
	if n > b.capacity {
		n = b.capacity
	}
	b.length = n
}

// Append copies src into the buffer at offset Length.
func (b *Buffer) Append(src []byte) error {
	if b == nil || b.base == nil {
		return ErrNullPointer
	}
	if src == nil {
		return ErrNullPointer
	}
	if b.length+len(src) > b.capacity {
		return ErrNoSpace
	}
	copy(b.base[b.length:], src)
	b.length += len(src)
	return nil
}

// AppendByte appends a single byte.
func (b *Buffer) AppendByte(v byte) error {
	return b.Append([]byte{v})
}

// AppendString appends the bytes of s, excluding any terminator.
func (b *Buffer) AppendString(s string) error {
	return b.Append([]byte(s))
}

// AppendBuffer appends the valid portion of other ([0, other.Length)) to
// this buffer.
func (b *Buffer) AppendBuffer(other *Buffer) error {
	if other == nil {
		return ErrNullPointer
	}
	return b.Append(other.Bytes())
}

// TrimLeft advances the view past n leading bytes: base moves forward by
// n, and Capacity/Length/ParseIndex each shrink by n, floored at zero.
func (b *Buffer) TrimLeft(n int) error {
	if b == nil {
		return ErrNullPointer
	}
	if n > b.capacity {
		return ErrBufferEnd
	}
	b.base = b.base[n:]
	b.capacity -= n
	b.length = floorSub(b.length, n)
	b.parseIndex = floorSub(b.parseIndex, n)
	return nil
}

// TrimRight shrinks Capacity (and, if necessary, Length) by n.
func (b *Buffer) TrimRight(n int) error {
	if b == nil {
		return ErrNullPointer
	}
	if n > b.capacity {
		return ErrBufferEnd
	}
	b.capacity -= n
	if b.length > b.capacity {
		b.length = b.capacity
	}
	if b.parseIndex > b.length {
		b.parseIndex = b.length
	}
	return nil
}

// Peek reads the byte at ParseIndex without advancing the cursor.
func (b *Buffer) Peek() (byte, error) {
	if b.parseIndex >= b.length {
		return 0, ErrBufferEnd
	}
	return b.base[b.parseIndex], nil
}

// PeekAt reads the byte at ParseIndex+offset without advancing the
// cursor, used by the codec to inspect multi-byte atom headers before
// committing to a decode.
func (b *Buffer) PeekAt(offset int) (byte, error) {
	idx := b.parseIndex + offset
	if idx >= b.length {
		return 0, ErrBufferEnd
	}
	return b.base[idx], nil
}

// PeekN returns a read-only view of the next n unparsed bytes without
// advancing the cursor. Fails with ErrBufferEnd if fewer than n bytes
// remain.
func (b *Buffer) PeekN(n int) ([]byte, error) {
	if b.parseIndex+n > b.length {
		return nil, ErrBufferEnd
	}
	return b.base[b.parseIndex : b.parseIndex+n], nil
}

// Advance moves ParseIndex forward by n bytes. Fails with ErrBufferEnd if
// that would move past Length.
func (b *Buffer) Advance(n int) error {
	if b.parseIndex+n > b.length {
		return ErrBufferEnd
	}
	b.parseIndex += n
	return nil
}

// CompareString reports whether the unparsed region byte-for-byte equals
// ref (excluding any terminator). Pure predicate, no failure channel.
func (b *Buffer) CompareString(ref string) bool {
	return bytes.Equal(b.Unparsed(), []byte(ref))
}

func floorSub(a, n int) int {
	if a < n {
		return 0
	}
	return a - n
}
