// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

import (
	"encoding/binary"

	"github.com/tcgsed/go-swg-core/pkg/buffer"
)

// EncodeToken appends a single-byte control token.
func EncodeToken(buf *buffer.Buffer, tok TokenType) error {
	return buf.AppendByte(byte(tok))
}

// encodeTiny appends a 1-byte tiny atom: bit 6 carries the sign flag,
// bits 5-0 carry the low 6 bits of value.
func encodeTiny(buf *buffer.Buffer, signed bool, value uint64) error {
	atom := byte(value & 0x3F)
	if signed {
		atom |= 0x40
	}
	return buf.AppendByte(atom)
}

// EncodeAtom appends a binary or integer atom, choosing the smallest
// header form (short/medium/long) that fits len(data).
func EncodeAtom(buf *buffer.Buffer, binary_, signed bool, data []byte) error {
	n := len(data)
	var header []byte

	switch {
	case n < 16:
		h := byte(0x80)
		if binary_ {
			h |= 0x20
		}
		if signed {
			h |= 0x10
		}
		h |= byte(n) & 0x0F
		header = []byte{h}

	case n < 2048:
		h0 := byte(0xC0)
		if binary_ {
			h0 |= 0x10
		}
		if signed {
			h0 |= 0x08
		}
		h0 |= byte((n >> 8) & 0x07)
		header = []byte{h0, byte(n & 0xFF)}

	case n < 16777216:
		h0 := byte(0xE0)
		if binary_ {
			h0 |= 0x02
		}
		if signed {
			h0 |= 0x01
		}
		header = []byte{
			h0,
			byte((n >> 16) & 0xFF),
			byte((n >> 8) & 0xFF),
			byte(n & 0xFF),
		}

	default:
		return ErrCannotRepresent
	}

	if err := buf.Append(header); err != nil {
		return err
	}
	return buf.Append(data)
}

// EncodeUint appends v as the minimum-length unsigned integer atom: a
// tiny atom if v < 0x40, otherwise the smallest short/medium/long atom
// that holds its big-endian representation with leading zero bytes
// stripped.
func EncodeUint(buf *buffer.Buffer, v uint64) error {
	if v < 0x40 {
		return encodeTiny(buf, false, v)
	}
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], v)
	skip := 0
	for skip < 8 && raw[skip] == 0x00 {
		skip++
	}
	return EncodeAtom(buf, false, false, raw[skip:])
}

// EncodeSint appends v as the minimum-length signed (two's complement)
// integer atom: a tiny atom if -0x20 <= v < 0x20, otherwise the smallest
// atom that holds the big-endian representation with redundant sign-
// extension bytes stripped.
func EncodeSint(buf *buffer.Buffer, v int64) error {
	if v >= -0x20 && v < 0x20 {
		return encodeTiny(buf, true, uint64(v))
	}
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], uint64(v))

	skip := 0
	if v < 0 {
		// Drop leading 0xFF bytes only while the remaining value is
		// still negative (next byte's high bit set).
		for skip < 7 && raw[skip] == 0xFF && raw[skip+1]&0x80 != 0 {
			skip++
		}
	} else {
		// Drop leading 0x00 bytes only while the remaining value is
		// still non-negative (next byte's high bit clear).
		for skip < 7 && raw[skip] == 0x00 && raw[skip+1]&0x80 == 0 {
			skip++
		}
	}
	return EncodeAtom(buf, false, true, raw[skip:])
}

// EncodeBinary appends data as a binary-flagged atom, uncompressed.
func EncodeBinary(buf *buffer.Buffer, data []byte) error {
	return EncodeAtom(buf, true, false, data)
}

// EncodeString is an alias for EncodeBinary over s's bytes, excluding any
// terminator.
func EncodeString(buf *buffer.Buffer, s string) error {
	return EncodeBinary(buf, []byte(s))
}

// EncodeHalfUID appends a 4-byte big-endian binary atom.
func EncodeHalfUID(buf *buffer.Buffer, v uint32) error {
	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], v)
	return EncodeBinary(buf, raw[:])
}

// EncodeUID appends an 8-byte big-endian binary atom.
func EncodeUID(buf *buffer.Buffer, v uint64) error {
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], v)
	return EncodeBinary(buf, raw[:])
}

// EncodeUIDBytes appends an already-split 8-byte UID (as used by
// uid.UID's [8]byte representation) as a binary atom.
func EncodeUIDBytes(buf *buffer.Buffer, v [8]byte) error {
	return EncodeBinary(buf, v[:])
}
