// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package session implements the Session Manager: Properties negotiation,
// StartSession/EndSession against a Security Provider, and the session-id
// bookkeeping that every subsequent invoke depends on.
package session

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/tcgsed/go-swg-core/pkg/buffer"
	"github.com/tcgsed/go-swg-core/pkg/invoker"
	"github.com/tcgsed/go-swg-core/pkg/syntax"
	"github.com/tcgsed/go-swg-core/pkg/transceiver"
	"github.com/tcgsed/go-swg-core/pkg/uid"
)

var (
	ErrMalformed     = errors.New("session: response did not match the expected shape")
	ErrAlreadyOpen   = errors.New("session: a session is already open on this handle")
	ErrNotOpen       = errors.New("session: no session is open on this handle")
)

const (
	// HostMaxPacketSize is the host side of the Properties negotiation:
	// it can never exceed the handle's scratch I/O block.
	HostMaxPacketSize = transceiver.MaxIOBlock
	// HostMaxTokenSize leaves room for the ComPacket/Packet/SubPacket
	// headers (20+24+12=56 bytes) around the largest single token the
	// host is willing to send.
	HostMaxTokenSize = HostMaxPacketSize - 56

	// Table 168 "Communications Initial Assumptions" defaults, in effect
	// until a Properties response overrides them.
	DriveMaxPacketSizeDefault = 1024
	DriveMaxTokenSizeDefault  = 968
)

// Handle wraps a transceiver.Handle with the session-manager-level state:
// which SSC the TPer implements (governs the HostProperties argument
// name), the negotiated token size ceiling, and whether a session is
// currently open.
type Handle struct {
	*transceiver.Handle
	SSC          uid.SSC
	MaxTokenSize int
	SPUID        uid.SPID
	open         bool
}

// NewHandle wraps t for session-manager use against ssc. Properties has
// not yet been negotiated; MaxTokenSize starts at the drive's documented
// default.
func NewHandle(t *transceiver.Handle, ssc uid.SSC) *Handle {
	return &Handle{Handle: t, SSC: ssc, MaxTokenSize: DriveMaxTokenSizeDefault}
}

// DoProperties negotiates communication limits with the TPer. It always
// succeeds from the caller's perspective if the round trip itself
// succeeds; a TPer that declines to report its limits simply leaves the
// drive-side defaults in effect.
func DoProperties(h *Handle) error {
	args := buffer.New(make([]byte, 512))
	if err := encodeHostProperties(args, h.SSC); err != nil {
		return err
	}

	var resp buffer.Buffer
	if err := invoker.Invoke(h.Handle, &resp, uid.InvokeIDSMU, uid.MethodIDSMProperties, args); err != nil {
		return err
	}

	driveMaxComPacketSize := DriveMaxPacketSizeDefault
	driveMaxIndTokenSize := DriveMaxTokenSizeDefault
	for {
		tok, err := resp.Peek()
		if err != nil || tok != byte(syntax.StartName) {
			break
		}
		if err := resp.Advance(1); err != nil {
			break
		}
		key, err := syntax.DecodeBinary(&resp)
		if err != nil {
			break
		}
		val, err := syntax.DecodeUint(&resp)
		if err != nil {
			break
		}
		end, err := resp.Peek()
		if err != nil || end != byte(syntax.EndName) {
			break
		}
		if err := resp.Advance(1); err != nil {
			break
		}
		switch string(key) {
		case "MaxComPacketSize":
			driveMaxComPacketSize = int(val)
		case "MaxIndTokenSize":
			driveMaxIndTokenSize = int(val)
		}
	}

	h.MaxComPacketSize = min(HostMaxPacketSize, driveMaxComPacketSize)
	h.MaxTokenSize = min(HostMaxTokenSize, driveMaxIndTokenSize)
	return nil
}

// encodeHostProperties builds the single optional HostProperties
// parameter, named "HostProperties" for Enterprise SSCs or 0 for every
// Opal-family SSC.
func encodeHostProperties(args *buffer.Buffer, ssc uid.SSC) error {
	if err := syntax.EncodeToken(args, syntax.StartName); err != nil {
		return err
	}
	switch name := ssc.HostPropertiesName().(type) {
	case string:
		if err := syntax.EncodeString(args, name); err != nil {
			return err
		}
	case uint64:
		if err := syntax.EncodeUint(args, name); err != nil {
			return err
		}
	}
	if err := syntax.EncodeToken(args, syntax.StartList); err != nil {
		return err
	}
	fields := []struct {
		name string
		val  uint64
	}{
		{"MaxComPacketSize", uint64(HostMaxPacketSize)},
		{"MaxPacketSize", uint64(HostMaxPacketSize - 20)},
		{"MaxIndTokenSize", uint64(HostMaxTokenSize)},
		{"MaxAggTokenSize", uint64(HostMaxTokenSize)},
	}
	for _, f := range fields {
		if err := syntax.EncodeToken(args, syntax.StartName); err != nil {
			return err
		}
		if err := syntax.EncodeString(args, f.name); err != nil {
			return err
		}
		if err := syntax.EncodeUint(args, f.val); err != nil {
			return err
		}
		if err := syntax.EncodeToken(args, syntax.EndName); err != nil {
			return err
		}
	}
	if err := syntax.EncodeToken(args, syntax.EndList); err != nil {
		return err
	}
	return syntax.EncodeToken(args, syntax.EndName)
}

// StartSession opens an anonymous session against spUID. On success h's
// embedded transceiver.Handle carries the assigned TPerSessionID and
// HostSessionID, and subsequent Invoke calls against non-Session-Manager
// objects will include them.
func StartSession(h *Handle, spUID uid.SPID) error {
	if h.open {
		return ErrAlreadyOpen
	}
	hostID := uint32(rand.Int31())
	if hostID == 0 {
		hostID = 1
	}

	args := buffer.New(make([]byte, 64))
	if err := syntax.EncodeUint(args, uint64(hostID)); err != nil {
		return err
	}
	if err := syntax.EncodeUIDBytes(args, spUID); err != nil {
		return err
	}
	if err := syntax.EncodeUint(args, 1); err != nil {
		return err
	}

	var resp buffer.Buffer
	if err := invoker.Invoke(h.Handle, &resp, uid.InvokeIDSMU, uid.MethodIDSMStartSession, args); err != nil {
		return err
	}

	gotHostID, err := syntax.DecodeUint(&resp)
	if err != nil {
		return ErrMalformed
	}
	if gotHostID != uint64(hostID) {
		return fmt.Errorf("session: %w: host_id echoed back as %d, want %d", ErrMalformed, gotHostID, hostID)
	}
	tperID, err := syntax.DecodeUint(&resp)
	if err != nil {
		return ErrMalformed
	}

	h.HostSessionID = hostID
	h.TPerSessionID = uint32(tperID)
	h.SPUID = spUID
	h.open = true
	return nil
}

// EndSession closes an open session with a handshake, then forgets the
// session ids unconditionally. Calling EndSession when no session is
// open succeeds without any wire traffic.
func EndSession(h *Handle) error {
	if !h.open {
		return nil
	}
	payload := []byte{byte(syntax.EndOfSession)}
	if err := transceiver.Send(h.Handle, payload, true); err != nil {
		ForgetSession(h)
		return err
	}
	var raw []byte
	if err := transceiver.Recv(h.Handle, &raw); err != nil {
		ForgetSession(h)
		return err
	}
	if len(raw) != 1 || raw[0] != byte(syntax.EndOfSession) {
		ForgetSession(h)
		return ErrMalformed
	}
	ForgetSession(h)
	return nil
}

// ForgetSession zeroes the session ids without any wire traffic. Used by
// EndSession and by callers recovering from a transport error.
func ForgetSession(h *Handle) {
	h.TPerSessionID = 0
	h.HostSessionID = 0
	h.open = false
}

// Invoke performs a method call against obj_uid within h's currently
// open session, including session ids for every object except the
// Session Manager itself.
func Invoke(h *Handle, response *buffer.Buffer, objUID uid.InvokingID, methodUID uid.MethodUID, args *buffer.Buffer) error {
	if objUID != uid.InvokeIDSMU && !h.open {
		return ErrNotOpen
	}
	return invoker.Invoke(h.Handle, response, objUID, methodUID, args)
}
