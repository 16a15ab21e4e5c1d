// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package invoker

import (
	"testing"

	"github.com/tcgsed/go-swg-core/pkg/buffer"
	"github.com/tcgsed/go-swg-core/pkg/drive"
	"github.com/tcgsed/go-swg-core/pkg/framing"
	"github.com/tcgsed/go-swg-core/pkg/method"
	"github.com/tcgsed/go-swg-core/pkg/syntax"
	"github.com/tcgsed/go-swg-core/pkg/transceiver"
	"github.com/tcgsed/go-swg-core/pkg/uid"
)

type fakeTransport struct {
	lastSend []byte
	reply    []byte
}

func (f *fakeTransport) IFSend(proto drive.SecurityProtocol, comID uint16, data []byte) error {
	f.lastSend = append([]byte{}, data...)
	return nil
}

func (f *fakeTransport) IFRecv(proto drive.SecurityProtocol, comID uint16, data *[]byte) error {
	full := make([]byte, cap(*data))
	copy(full, f.reply)
	*data = full
	return nil
}

// buildResponse encodes a status-only response: the argument list body
// plus EndOfData and a 3-element status list, matching what a real TPer
// emits for a successful non-Session-Manager call.
func buildResponse(status uint64, body []byte) []byte {
	buf := buffer.New(make([]byte, 4096))
	syntax.EncodeToken(buf, syntax.StartList)
	if body != nil {
		buf.Append(body)
	}
	syntax.EncodeToken(buf, syntax.EndList)
	syntax.EncodeToken(buf, syntax.EndOfData)
	syntax.EncodeToken(buf, syntax.StartList)
	syntax.EncodeUint(buf, status)
	syntax.EncodeUint(buf, 0)
	syntax.EncodeUint(buf, 0)
	syntax.EncodeToken(buf, syntax.EndList)
	buf.Append([]byte{0}) // one byte of padding slack, per spec's trim accounting
	return buf.Bytes()
}

func TestInvokeSuccessPopulatesResponseView(t *testing.T) {
	args := buffer.New(make([]byte, 16))
	syntax.EncodeUint(args, 1)

	var argBody []byte
	{
		b := buffer.New(make([]byte, 32))
		syntax.EncodeUint(b, 42)
		argBody = b.Bytes()
	}
	respPayload := buildResponse(0, argBody)
	wire, err := framing.Wrap(1, 0, 0, 0, false, respPayload, 1024)
	if err != nil {
		t.Fatal(err)
	}

	ft := &fakeTransport{reply: wire}
	h := transceiver.NewHandle(ft, 1)
	h.MaxComPacketSize = 1024

	var resp buffer.Buffer
	if err := Invoke(h, &resp, uid.InvokeIDThisSP, uid.MethodIDSMProperties, args); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if resp.ParseIndex() != 0 {
		t.Fatalf("expected response parse cursor reset to 0, got %d", resp.ParseIndex())
	}
	got, err := syntax.DecodeUint(&resp)
	if err != nil {
		t.Fatalf("DecodeUint on response view: %v", err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestInvokeNonZeroStatusFails(t *testing.T) {
	respPayload := buildResponse(0x01, nil) // NOT_AUTHORIZED
	wire, err := framing.Wrap(1, 0, 0, 0, false, respPayload, 1024)
	if err != nil {
		t.Fatal(err)
	}

	ft := &fakeTransport{reply: wire}
	h := transceiver.NewHandle(ft, 1)
	h.MaxComPacketSize = 1024

	err = Invoke(h, nil, uid.InvokeIDThisSP, uid.MethodIDSMProperties, nil)
	if err != method.ErrNotAuthorized {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestInvokeUsesSessionIDsExceptForSessionManager(t *testing.T) {
	respPayload := buildResponse(0, nil)
	wire, err := framing.Wrap(1, 7, 9, 0, true, respPayload, 1024)
	if err != nil {
		t.Fatal(err)
	}
	ft := &fakeTransport{reply: wire}
	h := transceiver.NewHandle(ft, 1)
	h.MaxComPacketSize = 1024
	h.TPerSessionID = 7
	h.HostSessionID = 9

	// obj_uid != SessionManagerUID: session IDs should be sent.
	if err := Invoke(h, nil, uid.InvokeIDThisSP, uid.MethodIDSMProperties, nil); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	sentTSN := ft.lastSend[framing.ComPacketHeaderSize : framing.ComPacketHeaderSize+4]
	if sentTSN[3] != 7 {
		t.Fatalf("expected tper_session_id 7 to be sent, got %x", sentTSN)
	}

	// obj_uid == SessionManagerUID: session IDs should be zeroed.
	if err := Invoke(h, nil, uid.InvokeIDSMU, uid.MethodIDSMProperties, nil); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	sentTSN = ft.lastSend[framing.ComPacketHeaderSize : framing.ComPacketHeaderSize+4]
	if sentTSN[3] != 0 {
		t.Fatalf("expected zero tper_session_id for the Session Manager, got %x", sentTSN)
	}
}
