// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

import (
	"errors"

	"github.com/tcgsed/go-swg-core/pkg/buffer"
)

// List is a decoded token stream: each element is a TokenType, uint64,
// int64, []byte, or nested List.
type List []interface{}

var ErrUnbalancedList = errors.New("syntax: message contained unbalanced list structures")

// DecodeList walks an entire token stream (used by the pretty printer and
// by diagnostic tooling; the method invoker itself relies on the fixed-
// offset extraction described in pkg/invoker instead, since it only ever
// needs the status trailer and the response body, not a full tree).
func DecodeList(data []byte) (List, error) {
	buf := buffer.NewView(data)
	res, err := decodeListBody(buf, 0)
	if err != nil {
		return nil, err
	}
	if buf.Remaining() > 0 {
		return nil, ErrUnbalancedList
	}
	return res, nil
}

func decodeListBody(buf *buffer.Buffer, depth int) (List, error) {
	res := List{}
	for buf.Remaining() > 0 {
		b0, err := buf.Peek()
		if err != nil {
			return nil, err
		}

		switch {
		case b0 == byte(StartList):
			if err := buf.Advance(1); err != nil {
				return nil, err
			}
			nested, err := decodeListBody(buf, depth+1)
			if err != nil {
				return nil, err
			}
			res = append(res, nested)

		case b0 == byte(EndList):
			if depth == 0 {
				return nil, ErrUnbalancedList
			}
			if err := buf.Advance(1); err != nil {
				return nil, err
			}
			return res, nil

		case IsControlToken(b0):
			if err := buf.Advance(1); err != nil {
				return nil, err
			}
			res = append(res, TokenType(b0))

		default:
			info, err := DecodeAtomHeader(buf)
			if err != nil {
				return nil, err
			}
			if info.IsBinary {
				v, err := DecodeBinary(buf)
				if err != nil {
					return nil, err
				}
				cp := make([]byte, len(v))
				copy(cp, v)
				res = append(res, cp)
			} else if info.IsSigned {
				v, err := DecodeSint(buf)
				if err != nil {
					return nil, err
				}
				res = append(res, v)
			} else {
				v, err := DecodeUint(buf)
				if err != nil {
					return nil, err
				}
				res = append(res, v)
			}
		}
	}
	if depth != 0 {
		return nil, ErrUnbalancedList
	}
	return res, nil
}
