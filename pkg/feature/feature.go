// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package feature decodes the Level-0 Discovery response: a TPer-major
// header followed by a sequence of variable-length feature descriptors,
// as laid out in the TCG Storage Architecture Core Specification.
package feature

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/tcgsed/go-swg-core/pkg/uid"
)

// Code identifies a single feature descriptor within a Level-0 Discovery
// response.
type Code uint16

const (
	CodeTPer                           Code = 0x0001
	CodeLocking                        Code = 0x0002
	CodeGeometry                       Code = 0x0003
	CodeSecureMsg                      Code = 0x0004
	CodeEnterprise                     Code = 0x0100
	CodeOpalV1                         Code = 0x0200
	CodeSingleUser                     Code = 0x0201
	CodeDataStore                      Code = 0x0202
	CodeOpalV2                         Code = 0x0203
	CodeOpalite                        Code = 0x0301
	CodePyriteV1                       Code = 0x0302
	CodePyriteV2                       Code = 0x0303
	CodeRubyV1                         Code = 0x0304
	CodeLockingLBA                     Code = 0x0401
	CodeBlockSID                       Code = 0x0402
	CodeNamespaceLocking               Code = 0x0403
	CodeDataRemoval                    Code = 0x0404
	CodeNamespaceGeometry              Code = 0x0405
	CodeShadowMBRForMultipleNamespaces Code = 0x0407
	CodeSeagatePorts                   Code = 0xC001
)

type TPer struct {
	SyncSupported       bool
	AsyncSupported      bool
	AckNakSupported     bool
	BufferMgmtSupported bool
	StreamingSupported  bool
	ComIDMgmtSupported  bool
}

type Locking struct {
	LockingSupported bool
	LockingEnabled   bool
	Locked           bool
	MediaEncryption  bool
	MBREnabled       bool
	MBRDone          bool
	MBRShadowing     bool
}

type CommonSSC struct {
	BaseComID uint16
	NumComID  uint16
}

type Geometry struct {
	Align                bool
	LogicalBlockSize     uint32
	AlignmentGranularity uint64
	LowestAlignedLBA     uint64
}

type SecureMsg struct{}

type Enterprise struct {
	CommonSSC
	RangeCrossingBehavior bool
}

type OpalV1 struct{}

type SingleUser struct {
	NumberLockingObjectsSupported uint32
	Policy                        bool
	Any                           bool
	All                           bool
}

type DataStore struct{}

type OpalV2 struct {
	CommonSSC
	RangeCrossingBehavior         bool
	NumLockingSPAdminSupported    uint16
	NumLockingSPUserSupported     uint16
	InitialCPINSIDIndicator       uint8
	BehaviorCPINSIDuponTPerRevert uint8
}

type Opalite struct{}

type PyriteV1 struct {
	CommonSSC
	_                             [4]byte
	InitialCPINSIDIndicator       uint8
	BehaviorCPINSIDuponTPerRevert uint8
}

type PyriteV2 struct {
	CommonSSC
	_                             [4]byte
	InitialCPINSIDIndicator       uint8
	BehaviorCPINSIDuponTPerRevert uint8
}

type RubyV1 struct {
	CommonSSC
	RangeCrossingBehavior         bool
	NumLockingSPAdminSupported    uint16
	NumLockingSPUserSupported     uint16
	InitialCPINSIDIndicator       uint8
	BehaviorCPINSIDuponTPerRevert uint8
}

type LockingLBA struct{}

type BlockSID struct {
	LockingSPFreezeLockState      bool
	LockingSPFreezeLockSupported  bool
	SIDAuthenticationBlockedState bool
	SIDValueState                 bool
	HardwareReset                 bool
}

type NamespaceLocking struct {
	RangeC                    bool
	RangeP                    bool
	SUMC                      bool
	MaximumKeyCount           uint32
	UnusedKeyCount            uint32
	MaximumRangesPerNamespace uint32
}

type DataRemoval struct{}

type NamespaceGeometry struct{}

type SeagatePort struct {
	PortIdentifier int32
	PortLocked     uint8
}

type ShadowMBRForMultipleNamespaces struct {
	ANSC bool
}

type SeagatePorts struct {
	Ports []SeagatePort
}

// Discovery is the fully parsed Level-0 Discovery response (the data
// length field itself is not kept; it's only needed while parsing).
type Discovery struct {
	MajorVersion                   int
	MinorVersion                   int
	Vendor                         [32]byte
	TPer                           *TPer
	Locking                        *Locking
	Geometry                       *Geometry
	SecureMsg                      *SecureMsg
	Enterprise                     *Enterprise
	OpalV1                         *OpalV1
	SingleUser                     *SingleUser
	DataStore                      *DataStore
	OpalV2                         *OpalV2
	Opalite                        *Opalite
	PyriteV1                       *PyriteV1
	PyriteV2                       *PyriteV2
	RubyV1                         *RubyV1
	LockingLBA                     *LockingLBA
	BlockSID                       *BlockSID
	NamespaceLocking                *NamespaceLocking
	DataRemoval                    *DataRemoval
	NamespaceGeometry              *NamespaceGeometry
	ShadowMBRForMultipleNamespaces *ShadowMBRForMultipleNamespaces
	SeagatePorts                   *SeagatePorts
	UnknownFeatures                []uint16
}

var ErrNotSupported = errors.New("feature: Level-0 Discovery not supported by this device")

// SSC reports which Security Subsystem Class d advertises and the base
// ComID the session layer should address it on. Enterprise is preferred
// over the Opal family when a TPer (unusually) advertises both; Opalite
// carries no ComID of its own in the feature descriptor and can't be
// selected from discovery alone.
func (d *Discovery) SSC() (ssc uid.SSC, baseComID uint16, ok bool) {
	switch {
	case d.Enterprise != nil:
		return uid.SSCEnterprise, d.Enterprise.BaseComID, true
	case d.OpalV2 != nil:
		return uid.SSCOpal, d.OpalV2.BaseComID, true
	case d.RubyV1 != nil:
		return uid.SSCRuby, d.RubyV1.BaseComID, true
	case d.PyriteV2 != nil:
		return uid.SSCPyrite, d.PyriteV2.BaseComID, true
	case d.PyriteV1 != nil:
		return uid.SSCPyrite, d.PyriteV1.BaseComID, true
	default:
		return uid.SSCUnknown, 0, false
	}
}

// Decode parses a raw Level-0 Discovery response buffer (as returned by
// an IF-RECV on security protocol 0x01, ComID 1) into a Discovery.
func Decode(raw []byte) (*Discovery, error) {
	buf := bytes.NewReader(raw)
	hdr := struct {
		Size   uint32
		Major  uint16
		Minor  uint16
		_      [8]byte
		Vendor [32]byte
	}{}
	if err := binary.Read(buf, binary.BigEndian, &hdr); err != nil {
		return nil, err
	}
	if hdr.Size == 0 {
		return nil, ErrNotSupported
	}

	d := &Discovery{
		MajorVersion: int(hdr.Major),
		MinorVersion: int(hdr.Minor),
		Vendor:       hdr.Vendor,
	}

	fsize := int(hdr.Size) - binary.Size(hdr) + 4
	for fsize > 0 {
		fhdr := struct {
			Code    Code
			Version uint8
			Size    uint8
		}{}
		if err := binary.Read(buf, binary.BigEndian, &fhdr); err != nil {
			return nil, err
		}
		frdr := io.LimitReader(buf, int64(fhdr.Size))
		var err error
		switch fhdr.Code {
		case CodeTPer:
			d.TPer, err = readTPer(frdr)
		case CodeLocking:
			d.Locking, err = readLocking(frdr)
		case CodeGeometry:
			d.Geometry, err = readGeometry(frdr)
		case CodeSecureMsg:
			d.SecureMsg = &SecureMsg{}
		case CodeEnterprise:
			d.Enterprise, err = readEnterprise(frdr)
		case CodeOpalV1:
			d.OpalV1 = &OpalV1{}
		case CodeSingleUser:
			d.SingleUser, err = readSingleUser(frdr)
		case CodeDataStore:
			d.DataStore = &DataStore{}
		case CodeOpalV2:
			d.OpalV2, err = readOpalV2(frdr)
		case CodeOpalite:
			d.Opalite = &Opalite{}
		case CodePyriteV1:
			d.PyriteV1, err = readPyriteV1(frdr)
		case CodePyriteV2:
			d.PyriteV2, err = readPyriteV2(frdr)
		case CodeRubyV1:
			d.RubyV1, err = readRubyV1(frdr)
		case CodeLockingLBA:
			d.LockingLBA = &LockingLBA{}
		case CodeBlockSID:
			d.BlockSID, err = readBlockSID(frdr)
		case CodeNamespaceLocking:
			d.NamespaceLocking, err = readNamespaceLocking(frdr)
		case CodeDataRemoval:
			d.DataRemoval = &DataRemoval{}
		case CodeNamespaceGeometry:
			d.NamespaceGeometry = &NamespaceGeometry{}
		case CodeShadowMBRForMultipleNamespaces:
			d.ShadowMBRForMultipleNamespaces, err = readShadowMBR(frdr)
		case CodeSeagatePorts:
			d.SeagatePorts, err = readSeagatePorts(frdr)
		default:
			d.UnknownFeatures = append(d.UnknownFeatures, uint16(fhdr.Code))
		}
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(io.Discard, frdr); err != nil {
			return nil, err
		}
		fsize -= binary.Size(fhdr) + int(fhdr.Size)
	}
	return d, nil
}

func readTPer(r io.Reader) (*TPer, error) {
	var raw uint8
	if err := binary.Read(r, binary.BigEndian, &raw); err != nil {
		return nil, err
	}
	return &TPer{
		SyncSupported:       raw&0x1 > 0,
		AsyncSupported:      raw&0x2 > 0,
		AckNakSupported:     raw&0x4 > 0,
		BufferMgmtSupported: raw&0x8 > 0,
		StreamingSupported:  raw&0x10 > 0,
		ComIDMgmtSupported:  raw&0x40 > 0,
	}, nil
}

func readLocking(r io.Reader) (*Locking, error) {
	var raw uint8
	if err := binary.Read(r, binary.BigEndian, &raw); err != nil {
		return nil, err
	}
	return &Locking{
		LockingSupported: raw&0x1 > 0,
		LockingEnabled:   raw&0x2 > 0,
		Locked:           raw&0x4 > 0,
		MediaEncryption:  raw&0x8 > 0,
		MBREnabled:       raw&0x10 > 0,
		MBRDone:          raw&0x20 > 0,
		// Absence of the MBR Shadowing feature is signaled by this bit
		// being set.
		MBRShadowing: raw&0x40 < 1,
	}, nil
}

func readGeometry(r io.Reader) (*Geometry, error) {
	d := struct {
		Align                uint8
		_                    [7]byte
		LogicalBlockSize     uint32
		AlignmentGranularity uint64
		LowestAlignedLBA     uint64
	}{}
	if err := binary.Read(r, binary.BigEndian, &d); err != nil {
		return nil, err
	}
	return &Geometry{
		Align:                d.Align&0x1 > 0,
		LogicalBlockSize:     d.LogicalBlockSize,
		AlignmentGranularity: d.AlignmentGranularity,
		LowestAlignedLBA:     d.LowestAlignedLBA,
	}, nil
}

func readEnterprise(r io.Reader) (*Enterprise, error) {
	f := &Enterprise{}
	if err := binary.Read(r, binary.BigEndian, f); err != nil {
		return nil, err
	}
	return f, nil
}

func readSingleUser(r io.Reader) (*SingleUser, error) {
	d := struct {
		NumberOfLockingObjectsSupported uint32
		Policy                          uint8
		_                               [7]byte
	}{}
	if err := binary.Read(r, binary.BigEndian, &d); err != nil {
		return nil, err
	}
	return &SingleUser{
		NumberLockingObjectsSupported: d.NumberOfLockingObjectsSupported,
		Policy:                        d.Policy&0x4 > 0,
		All:                           d.Policy&0x2 > 0,
		Any:                           d.Policy&0x1 > 0,
	}, nil
}

func readOpalV2(r io.Reader) (*OpalV2, error) {
	f := &OpalV2{}
	if err := binary.Read(r, binary.BigEndian, f); err != nil {
		return nil, err
	}
	return f, nil
}

func readPyriteV1(r io.Reader) (*PyriteV1, error) {
	f := &PyriteV1{}
	if err := binary.Read(r, binary.BigEndian, f); err != nil {
		return nil, err
	}
	return f, nil
}

func readPyriteV2(r io.Reader) (*PyriteV2, error) {
	f := &PyriteV2{}
	if err := binary.Read(r, binary.BigEndian, f); err != nil {
		return nil, err
	}
	return f, nil
}

func readRubyV1(r io.Reader) (*RubyV1, error) {
	f := &RubyV1{}
	if err := binary.Read(r, binary.BigEndian, f); err != nil {
		return nil, err
	}
	return f, nil
}

func readBlockSID(r io.Reader) (*BlockSID, error) {
	var raw [2]uint8
	if err := binary.Read(r, binary.BigEndian, &raw); err != nil {
		return nil, err
	}
	return &BlockSID{
		SIDValueState:                 raw[0]&0x1 > 0,
		SIDAuthenticationBlockedState: raw[0]&0x2 > 0,
		LockingSPFreezeLockSupported:  raw[0]&0x4 > 0,
		LockingSPFreezeLockState:      raw[0]&0x8 > 0,
		HardwareReset:                 raw[1]&0x1 > 0,
	}, nil
}

func readNamespaceLocking(r io.Reader) (*NamespaceLocking, error) {
	d := struct {
		Range                     uint8
		_                         [3]byte
		MaximumKeyCount           uint32
		UnusedKeyCount            uint32
		MaximumRangesPerNamespace uint32
	}{}
	if err := binary.Read(r, binary.BigEndian, &d); err != nil {
		return nil, err
	}
	return &NamespaceLocking{
		RangeC:                    d.Range&0x80 > 0,
		RangeP:                    d.Range&0x40 > 0,
		SUMC:                      d.Range&0x20 > 0,
		MaximumKeyCount:           d.MaximumKeyCount,
		UnusedKeyCount:            d.UnusedKeyCount,
		MaximumRangesPerNamespace: d.MaximumRangesPerNamespace,
	}, nil
}

func readShadowMBR(r io.Reader) (*ShadowMBRForMultipleNamespaces, error) {
	var raw uint8
	if err := binary.Read(r, binary.BigEndian, &raw); err != nil {
		return nil, err
	}
	return &ShadowMBRForMultipleNamespaces{ANSC: raw&0x1 > 0}, nil
}

func readSeagatePorts(r io.Reader) (*SeagatePorts, error) {
	f := &SeagatePorts{}
	for {
		d := struct {
			Ident int32
			State uint8
			_     [3]byte
		}{}
		if err := binary.Read(r, binary.BigEndian, &d); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		f.Ports = append(f.Ports, SeagatePort{PortIdentifier: d.Ident, PortLocked: d.State})
	}
	return f, nil
}
