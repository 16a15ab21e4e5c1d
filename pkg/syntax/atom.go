// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

import (
	"errors"

	"github.com/tcgsed/go-swg-core/pkg/buffer"
)

var (
	ErrBadDatatype     = errors.New("syntax: byte at parse index is not an atom header")
	ErrBadSyntax       = errors.New("syntax: expected token not found")
	ErrCannotRepresent = errors.New("syntax: value too large to represent (>= 2^24 bytes)")
)

// AtomInfo describes a decoded atom header without consuming it.
type AtomInfo struct {
	// HeaderBytes is the number of header bytes preceding the payload:
	// 0 for tiny atoms (the data is folded into the single byte), 1 for
	// short, 2 for medium, 4 for long.
	HeaderBytes int
	// DataBytes is the decoded payload length.
	DataBytes int
	// IsBinary indicates the payload is an opaque blob rather than an
	// integer.
	IsBinary bool
	// IsSigned indicates, for non-binary atoms, a two's-complement
	// signed integer rather than unsigned.
	IsSigned bool
	// tinyByte holds the single encoded byte for a tiny atom so decode
	// doesn't need to re-peek it.
	tinyByte byte
}

// DecodeAtomHeader inspects the byte at the buffer's parse index and
// classifies it as a tiny/short/medium/long atom, verifying that the full
// atom (header + payload) is present. It does not advance the parse
// cursor. Fails with ErrBufferEnd if bytes are missing, ErrBadDatatype if
// the byte is a control token rather than an atom prefix.
func DecodeAtomHeader(buf *buffer.Buffer) (AtomInfo, error) {
	b0, err := buf.Peek()
	if err != nil {
		return AtomInfo{}, err
	}

	switch {
	case b0&0x80 == 0:
		// Tiny atom: bit 7 clear, bit 6 sign, bits 5-0 data.
		return AtomInfo{
			HeaderBytes: 0,
			DataBytes:   1,
			IsBinary:    false,
			IsSigned:    b0&0x40 != 0,
			tinyByte:    b0,
		}, nil

	case b0&0xC0 == 0x80:
		// Short atom: 1 header byte, up to 15 bytes payload.
		n := int(b0 & 0x0F)
		if _, err := buf.PeekN(1 + n); err != nil {
			return AtomInfo{}, err
		}
		return AtomInfo{
			HeaderBytes: 1,
			DataBytes:   n,
			IsBinary:    b0&0x20 != 0,
			IsSigned:    b0&0x10 != 0,
		}, nil

	case b0&0xE0 == 0xC0:
		// Medium atom: 2 header bytes, up to 2047 bytes payload.
		b1, err := buf.PeekAt(1)
		if err != nil {
			return AtomInfo{}, err
		}
		n := int(b0&0x07)<<8 | int(b1)
		if _, err := buf.PeekN(2 + n); err != nil {
			return AtomInfo{}, err
		}
		return AtomInfo{
			HeaderBytes: 2,
			DataBytes:   n,
			IsBinary:    b0&0x10 != 0,
			IsSigned:    b0&0x08 != 0,
		}, nil

	case b0&0xF0 == 0xE0:
		// Long atom: 4 header bytes, up to 16777215 bytes payload.
		b1, err := buf.PeekAt(1)
		if err != nil {
			return AtomInfo{}, err
		}
		b2, err := buf.PeekAt(2)
		if err != nil {
			return AtomInfo{}, err
		}
		b3, err := buf.PeekAt(3)
		if err != nil {
			return AtomInfo{}, err
		}
		n := int(b1)<<16 | int(b2)<<8 | int(b3)
		if _, err := buf.PeekN(4 + n); err != nil {
			return AtomInfo{}, err
		}
		return AtomInfo{
			HeaderBytes: 4,
			DataBytes:   n,
			IsBinary:    b0&0x02 != 0,
			IsSigned:    b0&0x01 != 0,
		}, nil

	default:
		// 0xF_ range: a control token, not an atom.
		return AtomInfo{}, ErrBadDatatype
	}
}

// ExpectToken peeks the next byte and, if it matches tok, advances past
// it. Otherwise fails with ErrBadSyntax without advancing.
func ExpectToken(buf *buffer.Buffer, tok TokenType) error {
	b, err := buf.Peek()
	if err != nil {
		return err
	}
	if b != byte(tok) {
		return ErrBadSyntax
	}
	return buf.Advance(1)
}
