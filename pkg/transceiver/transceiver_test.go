// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transceiver

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/tcgsed/go-swg-core/pkg/drive"
	"github.com/tcgsed/go-swg-core/pkg/framing"
)

// notReadyBlock builds a ComPacket header with the given com_id and a
// zero Length field, as a TPer reports when it hasn't finished
// computing a response yet.
func notReadyBlock(comID uint16) []byte {
	b := make([]byte, framing.TransportBlockSize)
	binary.BigEndian.PutUint16(b[4:6], comID)
	return b
}

type fakeTransport struct {
	lastSend []byte
	recvs    [][]byte // each call to IFRecv pops the next queued block
}

func (f *fakeTransport) IFSend(proto drive.SecurityProtocol, comID uint16, data []byte) error {
	f.lastSend = append([]byte{}, data...)
	return nil
}

func (f *fakeTransport) IFRecv(proto drive.SecurityProtocol, comID uint16, data *[]byte) error {
	if len(f.recvs) == 0 {
		full := make([]byte, cap(*data))
		copy(full, notReadyBlock(comID))
		*data = full
		return nil
	}
	next := f.recvs[0]
	f.recvs = f.recvs[1:]
	full := make([]byte, cap(*data))
	copy(full, next)
	*data = full
	return nil
}

func TestSendThenRecv(t *testing.T) {
	ft := &fakeTransport{}
	h := NewHandle(ft, 1)
	h.MaxComPacketSize = 1024

	payload := []byte("StartSession response body")
	wire, err := framing.Wrap(1, 0, 0, 0, false, payload, 1024)
	if err != nil {
		t.Fatal(err)
	}
	ft.recvs = [][]byte{wire}

	if err := Send(h, []byte("StartSession request body"), false); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(ft.lastSend) == 0 {
		t.Fatalf("expected transport to receive a non-empty frame")
	}

	var view []byte
	if err := Recv(h, &view); err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if !bytes.Equal(view, payload) {
		t.Fatalf("got %q, want %q", view, payload)
	}
}

func TestRecvPollsUntilReady(t *testing.T) {
	ft := &fakeTransport{}
	h := NewHandle(ft, 1)
	h.MaxComPacketSize = 1024
	h.Options = Options{PollInterval: time.Millisecond, Timeout: time.Second}

	notReady := notReadyBlock(1) // ComPacket.Length stays 0
	ready, err := framing.Wrap(1, 0, 0, 0, false, []byte("ok"), 1024)
	if err != nil {
		t.Fatal(err)
	}
	ft.recvs = [][]byte{notReady, notReady, ready}

	var view []byte
	if err := Recv(h, &view); err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if string(view) != "ok" {
		t.Fatalf("got %q", view)
	}
}

func TestRecvTimesOut(t *testing.T) {
	ft := &fakeTransport{}
	h := NewHandle(ft, 1)
	h.MaxComPacketSize = 1024
	h.Options = Options{PollInterval: time.Millisecond, Timeout: 5 * time.Millisecond}
	// No queued recvs at all: IFRecv always returns a zeroed (not-ready) block.

	var view []byte
	if err := Recv(h, &view); err != ErrTimeout {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestSendTooLarge(t *testing.T) {
	ft := &fakeTransport{}
	h := NewHandle(ft, 1)
	h.MaxComPacketSize = 512

	if err := Send(h, make([]byte, 2048), false); err != ErrPacketTooLarge {
		t.Fatalf("expected ErrPacketTooLarge, got %v", err)
	}
}

func TestRecvBadComID(t *testing.T) {
	ft := &fakeTransport{}
	h := NewHandle(ft, 1)
	h.MaxComPacketSize = 1024
	wire, err := framing.Wrap(99, 0, 0, 0, false, []byte("x"), 1024)
	if err != nil {
		t.Fatal(err)
	}
	ft.recvs = [][]byte{wire}

	var view []byte
	if err := Recv(h, &view); err != ErrBadComID {
		t.Fatalf("expected ErrBadComID, got %v", err)
	}
}
