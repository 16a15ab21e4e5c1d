// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package framing implements the three nested frames of a single SWG
// transmission: ComPacket, Packet, and SubPacket. All header integers
// are big-endian on the wire; header length fields are exclusive, i.e.
// they count only the bytes that follow the header within that frame.
package framing

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	ComPacketHeaderSize = 20
	PacketHeaderSize    = 24
	SubPacketHeaderSize = 12

	// TransportBlockSize is the padding granularity of a full
	// transmission, matching the 512-byte ATA Trusted Send/Receive
	// block size.
	TransportBlockSize = 512
)

var (
	ErrTooLarge  = errors.New("framing: encoded transmission exceeds the caller's size limit")
	ErrBadComID  = errors.New("framing: ComPacket com_id does not match the expected com_id")
	ErrMalformed = errors.New("framing: response too short to contain a full set of headers")
	// ErrNotReady signals ComPacket.Length == 0: the TPer has not yet
	// finished computing a response. The caller should poll again.
	ErrNotReady = errors.New("framing: TPer response not yet available")
)

type comPacketHeader struct {
	_        uint32
	ComID    uint16
	ComIDExt uint16
	TPerLeft uint32
	MinXfer  uint32
	Length   uint32
}

type packetHeader struct {
	TPerSessionID uint32
	HostSessionID uint32
	Seq           uint32
	_             uint16
	AckType       uint16
	Ack           uint32
	Length        uint32
}

type subPacketHeader struct {
	_      [6]byte
	Kind   uint16
	Length uint32
}

func padTo(n, multiple int) int {
	if r := n % multiple; r != 0 {
		return n + (multiple - r)
	}
	return n
}

// Wrap assembles a complete ComPacket/Packet/SubPacket transmission
// around payload. Session IDs are written into the Packet header only
// when useSessionIDs is set; the Session Manager object always uses
// zero session IDs. maxSize bounds the padded output; Wrap fails with
// ErrTooLarge rather than silently truncating.
func Wrap(comID uint16, tperSessionID, hostSessionID, seq uint32, useSessionIDs bool, payload []byte, maxSize int) ([]byte, error) {
	subBody := make([]byte, SubPacketHeaderSize+len(payload))
	subHdr := subPacketHeader{Kind: 0, Length: uint32(len(payload))}
	subBuf := bytes.NewBuffer(subBody[:0])
	if err := binary.Write(subBuf, binary.BigEndian, &subHdr); err != nil {
		return nil, err
	}
	copy(subBody[SubPacketHeaderSize:], payload)

	packetBodyLen := padTo(len(subBody), 4)
	packetBody := make([]byte, packetBodyLen)
	copy(packetBody, subBody)

	var tsn, hsn uint32
	if useSessionIDs {
		tsn, hsn = tperSessionID, hostSessionID
	}
	packet := make([]byte, PacketHeaderSize+len(packetBody))
	pktHdr := packetHeader{
		TPerSessionID: tsn,
		HostSessionID: hsn,
		Seq:           seq,
		Length:        uint32(len(packetBody)),
	}
	pktBuf := bytes.NewBuffer(packet[:0])
	if err := binary.Write(pktBuf, binary.BigEndian, &pktHdr); err != nil {
		return nil, err
	}
	copy(packet[PacketHeaderSize:], packetBody)

	total := padTo(ComPacketHeaderSize+len(packet), TransportBlockSize)
	if total > maxSize {
		return nil, ErrTooLarge
	}
	out := make([]byte, total)
	comHdr := comPacketHeader{
		ComID:    comID,
		ComIDExt: 0,
		Length:   uint32(len(packet)),
	}
	comBuf := bytes.NewBuffer(out[:0])
	if err := binary.Write(comBuf, binary.BigEndian, &comHdr); err != nil {
		return nil, err
	}
	copy(out[ComPacketHeaderSize:], packet)
	return out, nil
}

// Unwrap parses a received transmission block, validates its com_id,
// and returns a zero-copy view of the SubPacket payload (aliasing raw).
// ErrNotReady is returned, not wrapped, when the TPer has not yet
// produced a response; the caller is expected to poll again.
func Unwrap(raw []byte, expectComID uint16) ([]byte, error) {
	if len(raw) < ComPacketHeaderSize+PacketHeaderSize+SubPacketHeaderSize {
		return nil, ErrMalformed
	}
	var comHdr comPacketHeader
	if err := binary.Read(bytes.NewReader(raw[:ComPacketHeaderSize]), binary.BigEndian, &comHdr); err != nil {
		return nil, err
	}
	if comHdr.ComID != expectComID {
		return nil, ErrBadComID
	}
	if comHdr.Length == 0 {
		return nil, ErrNotReady
	}

	pktStart := ComPacketHeaderSize
	var pktHdr packetHeader
	if err := binary.Read(bytes.NewReader(raw[pktStart:pktStart+PacketHeaderSize]), binary.BigEndian, &pktHdr); err != nil {
		return nil, err
	}

	subStart := pktStart + PacketHeaderSize
	if len(raw) < subStart+SubPacketHeaderSize {
		return nil, ErrMalformed
	}
	var subHdr subPacketHeader
	if err := binary.Read(bytes.NewReader(raw[subStart:subStart+SubPacketHeaderSize]), binary.BigEndian, &subHdr); err != nil {
		return nil, err
	}

	payloadStart := subStart + SubPacketHeaderSize
	payloadEnd := payloadStart + int(subHdr.Length)
	if payloadEnd > len(raw) {
		return nil, ErrMalformed
	}
	return raw[payloadStart:payloadEnd], nil
}
