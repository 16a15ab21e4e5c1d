// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package method assembles a single SWG method invocation into its wire
// representation: the Call token, the two UID atoms that address the
// invoking object and method, the argument list, and the trailing
// reserved status triplet every call carries.
package method

import (
	"errors"

	"github.com/tcgsed/go-swg-core/pkg/buffer"
	"github.com/tcgsed/go-swg-core/pkg/syntax"
	"github.com/tcgsed/go-swg-core/pkg/uid"
)

var ErrUnbalancedList = errors.New("method: StartList/EndList calls are unbalanced")

var (
	ErrMethodTimeout    = errors.New("method: call timed out waiting for a response")
	ErrEmptyResponse    = errors.New("method: response was empty")
	ErrMalformedResponse = errors.New("method: response did not end in the expected status list")
)

// StatusSuccess is the status code every call returns on success.
const StatusSuccess uint = 0x00

// StatusCodeMap maps each documented SWG method status code to a
// distinct sentinel error. Status codes not present here are surfaced by
// the caller as a formatted "unknown status" error rather than silently
// mapped to Fail.
var StatusCodeMap = map[uint]error{
	0x00: errors.New("method: status SUCCESS"),
	0x01: errors.New("method: status NOT_AUTHORIZED"),
	0x02: errors.New("method: status OBSOLETE"),
	0x03: errors.New("method: status SP_BUSY"),
	0x04: errors.New("method: status SP_FAILED"),
	0x05: errors.New("method: status SP_DISABLED"),
	0x06: errors.New("method: status SP_FROZEN"),
	0x07: errors.New("method: status NO_SESSIONS_AVAILABLE"),
	0x08: errors.New("method: status UNIQUENESS_CONFLICT"),
	0x09: errors.New("method: status INSUFFICIENT_SPACE"),
	0x0A: errors.New("method: status INSUFFICIENT_ROWS"),
	0x0B: errors.New("method: status INVALID_COMMAND"),
	0x0C: errors.New("method: status INVALID_PARAMETER"),
	0x0D: errors.New("method: status INVALID_REFERENCE"),
	0x0E: errors.New("method: status INVALID_SECMSG_PROPERTIES"),
	0x0F: errors.New("method: status TPER_MALFUNCTION"),
	0x10: errors.New("method: status TRANSACTION_FAILURE"),
	0x11: errors.New("method: status RESPONSE_OVERFLOW"),
	0x12: errors.New("method: status AUTHORITY_LOCKED_OUT"),
	0x3F: errors.New("method: status FAIL"),
}

var (
	ErrNotAuthorized      = StatusCodeMap[0x01]
	ErrObsolete           = StatusCodeMap[0x02]
	ErrSPBusy             = StatusCodeMap[0x03]
	ErrNoSessionsAvailable = StatusCodeMap[0x07]
	ErrInvalidParameter   = StatusCodeMap[0x0C]
	ErrAuthorityLockedOut = StatusCodeMap[0x12]
	ErrFail               = StatusCodeMap[0x3F]
)

// Flag governs how optional/named parameters are keyed; Enterprise SSCs
// use string names, Opal-family SSCs use small uint names, per "3.2.1.2
// Method Signature Pseudo-code".
type Flag int

const (
	FlagOptionalAsName Flag = 1 << iota
)

// EncodeMethod appends a complete method invocation to target: Call
// token, obj UID atom, method UID atom, StartList, an optional raw copy
// of an already-encoded argument list, EndList, EndOfData, StartList,
// three zero uint atoms (the reserved status triplet), EndList. This is
// the primitive the method invoker uses directly; Call/Finish below is
// a convenience builder for assembling the argument list itself.
func EncodeMethod(target *buffer.Buffer, objUID uid.InvokingID, methodUID uid.MethodUID, args *buffer.Buffer) error {
	if err := syntax.EncodeToken(target, syntax.Call); err != nil {
		return err
	}
	if err := syntax.EncodeBinary(target, objUID[:]); err != nil {
		return err
	}
	if err := syntax.EncodeBinary(target, methodUID[:]); err != nil {
		return err
	}
	if err := syntax.EncodeToken(target, syntax.StartList); err != nil {
		return err
	}
	if args != nil {
		if err := target.AppendBuffer(args); err != nil {
			return err
		}
	}
	if err := syntax.EncodeToken(target, syntax.EndList); err != nil {
		return err
	}
	if err := syntax.EncodeToken(target, syntax.EndOfData); err != nil {
		return err
	}
	if err := syntax.EncodeToken(target, syntax.StartList); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		if err := syntax.EncodeUint(target, 0); err != nil {
			return err
		}
	}
	return syntax.EncodeToken(target, syntax.EndList)
}

// Call is a single method invocation under construction. It wraps a
// buffer.Buffer with bookkeeping to catch unbalanced list nesting before
// the caller ever sends the bytes to a drive.
type Call struct {
	buf   *buffer.Buffer
	depth int
	flags Flag
	err   error
}

// New starts a method call against iid.mid, backed by a scratch region
// the caller owns (sized generously; EncodeMethod above, which appends
// to a caller-supplied buffer, is the usual entry point).
func New(region []byte, iid uid.InvokingID, mid uid.MethodUID, flags Flag) *Call {
	c := &Call{buf: buffer.New(region), flags: flags}
	c.err = syntax.EncodeToken(c.buf, syntax.Call)
	c.uidAtom(iid[:])
	c.uidAtom(mid[:])
	c.StartList()
	return c
}

func (c *Call) uidAtom(v []byte) {
	if c.err != nil {
		return
	}
	c.err = syntax.EncodeBinary(c.buf, v)
}

func (c *Call) StartList() *Call {
	if c.err == nil {
		c.depth++
		c.err = syntax.EncodeToken(c.buf, syntax.StartList)
	}
	return c
}

func (c *Call) EndList() *Call {
	if c.err == nil {
		c.depth--
		c.err = syntax.EncodeToken(c.buf, syntax.EndList)
	}
	return c
}

// StartOptionalParameter opens a Named value pair group. id is used
// verbatim when flags lacks FlagOptionalAsName; name is used (as a
// string atom) when it is set.
func (c *Call) StartOptionalParameter(id uint64, name string) *Call {
	if c.err != nil {
		return c
	}
	c.depth++
	if c.err = syntax.EncodeToken(c.buf, syntax.StartName); c.err != nil {
		return c
	}
	if c.flags&FlagOptionalAsName != 0 {
		c.err = syntax.EncodeString(c.buf, name)
	} else {
		c.err = syntax.EncodeUint(c.buf, id)
	}
	return c
}

func (c *Call) EndOptionalParameter() *Call {
	if c.err == nil {
		c.depth--
		c.err = syntax.EncodeToken(c.buf, syntax.EndName)
	}
	return c
}

// NamedUInt appends a complete StartName, string_name, uint_value,
// EndName group.
func (c *Call) NamedUInt(name string, v uint64) *Call {
	if c.err != nil {
		return c
	}
	if c.err = syntax.EncodeToken(c.buf, syntax.StartName); c.err != nil {
		return c
	}
	if c.err = syntax.EncodeString(c.buf, name); c.err != nil {
		return c
	}
	if c.err = syntax.EncodeUint(c.buf, v); c.err != nil {
		return c
	}
	c.err = syntax.EncodeToken(c.buf, syntax.EndName)
	return c
}

func (c *Call) NamedBool(name string, v bool) *Call {
	if v {
		return c.NamedUInt(name, 1)
	}
	return c.NamedUInt(name, 0)
}

func (c *Call) UInt(v uint64) *Call {
	if c.err == nil {
		c.err = syntax.EncodeUint(c.buf, v)
	}
	return c
}

func (c *Call) SInt(v int64) *Call {
	if c.err == nil {
		c.err = syntax.EncodeSint(c.buf, v)
	}
	return c
}

func (c *Call) Bool(v bool) *Call {
	if v {
		return c.UInt(1)
	}
	return c.UInt(0)
}

func (c *Call) Bytes(v []byte) *Call {
	if c.err == nil {
		c.err = syntax.EncodeBinary(c.buf, v)
	}
	return c
}

func (c *Call) UID(v [8]byte) *Call {
	if c.err == nil {
		c.err = syntax.EncodeUIDBytes(c.buf, v)
	}
	return c
}

// Err returns the first error encountered while building the call, if
// any.
func (c *Call) Err() error { return c.err }

// Finish closes the argument list and appends the trailing EndOfData
// and reserved status triplet, returning the complete wire bytes.
func (c *Call) Finish() ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.EndList() // close argument list opened in New
	if c.err != nil {
		return nil, c.err
	}
	if c.err = syntax.EncodeToken(c.buf, syntax.EndOfData); c.err != nil {
		return nil, c.err
	}
	c.StartList()
	c.UInt(uint64(StatusSuccess))
	c.UInt(0)
	c.UInt(0)
	c.EndList()
	if c.err != nil {
		return nil, c.err
	}
	if c.depth != 0 {
		return nil, ErrUnbalancedList
	}
	return c.buf.Bytes(), nil
}
