// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

import (
	"github.com/tcgsed/go-swg-core/pkg/buffer"
)

// tinyValue extracts the 6 data bits from a tiny atom's single byte,
// applying sign extension if signed is set (bit 6 is the signed flag;
// the value's own sign is bit 5 of the data).
func tinyValue(info AtomInfo) uint64 {
	v := uint64(info.tinyByte & 0x3F)
	if info.IsSigned && info.tinyByte&0x20 != 0 {
		v |= ^uint64(0x3F)
	}
	return v
}

// DecodeUint decodes an unsigned integer atom and advances the parse
// cursor past it. Fails with ErrBadDatatype if the header is binary or
// signed, or if data_bytes is out of [1,8].
func DecodeUint(buf *buffer.Buffer) (uint64, error) {
	info, err := DecodeAtomHeader(buf)
	if err != nil {
		return 0, err
	}
	if info.HeaderBytes == 0 {
		if info.IsSigned {
			return 0, ErrBadDatatype
		}
		if err := buf.Advance(1); err != nil {
			return 0, err
		}
		return tinyValue(info), nil
	}
	if info.IsBinary || info.IsSigned || info.DataBytes < 1 || info.DataBytes > 8 {
		return 0, ErrBadDatatype
	}
	payload, err := buf.PeekN(info.HeaderBytes + info.DataBytes)
	if err != nil {
		return 0, err
	}
	data := payload[info.HeaderBytes:]
	var v uint64
	for _, b := range data {
		v = v<<8 | uint64(b)
	}
	if err := buf.Advance(info.HeaderBytes + info.DataBytes); err != nil {
		return 0, err
	}
	return v, nil
}

// DecodeSint decodes a signed integer atom and advances the parse cursor
// past it, sign-extending to int64.
func DecodeSint(buf *buffer.Buffer) (int64, error) {
	info, err := DecodeAtomHeader(buf)
	if err != nil {
		return 0, err
	}
	if info.HeaderBytes == 0 {
		if !info.IsSigned {
			return 0, ErrBadDatatype
		}
		if err := buf.Advance(1); err != nil {
			return 0, err
		}
		return int64(tinyValue(info)), nil
	}
	if info.IsBinary || !info.IsSigned || info.DataBytes < 1 || info.DataBytes > 8 {
		return 0, ErrBadDatatype
	}
	payload, err := buf.PeekN(info.HeaderBytes + info.DataBytes)
	if err != nil {
		return 0, err
	}
	data := payload[info.HeaderBytes:]
	var v uint64
	if data[0]&0x80 != 0 {
		v = ^uint64(0)
	}
	for _, b := range data {
		v = v<<8 | uint64(b)
	}
	if err := buf.Advance(info.HeaderBytes + info.DataBytes); err != nil {
		return 0, err
	}
	return int64(v), nil
}

// DecodeBinary decodes a binary atom into a zero-copy read-only view
// over its payload bytes and advances the source cursor past the whole
// atom.
func DecodeBinary(buf *buffer.Buffer) ([]byte, error) {
	info, err := DecodeAtomHeader(buf)
	if err != nil {
		return nil, err
	}
	if !info.IsBinary {
		return nil, ErrBadDatatype
	}
	if info.HeaderBytes == 0 {
		// Tiny atoms are never used for binary data in the wire
		// format, but decode defensively rather than panic.
		return nil, ErrBadDatatype
	}
	payload, err := buf.PeekN(info.HeaderBytes + info.DataBytes)
	if err != nil {
		return nil, err
	}
	view := payload[info.HeaderBytes:]
	if err := buf.Advance(info.HeaderBytes + info.DataBytes); err != nil {
		return nil, err
	}
	return view, nil
}

// DecodeUID decodes a canonical 8-byte UID: it attempts DecodeBinary,
// requires exactly 8 bytes with byte 0 and byte 4 both zero (the
// canonical high:low UID shape), and restores the parse cursor and fails
// with ErrBadDatatype on any mismatch. This recoverable failure lets a
// caller try the UID shape first and fall back to another decode of the
// same bytes.
func DecodeUID(buf *buffer.Buffer) (uint64, error) {
	mark := buf.ParseIndex()
	raw, err := DecodeBinary(buf)
	if err != nil {
		buf.SeekParse(mark)
		return 0, err
	}
	if len(raw) != 8 || raw[0] != 0x00 || raw[4] != 0x00 {
		buf.SeekParse(mark)
		return 0, ErrBadDatatype
	}
	var v uint64
	for _, b := range raw {
		v = v<<8 | uint64(b)
	}
	return v, nil
}
