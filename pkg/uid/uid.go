// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package uid holds the well-known 8-byte object and method identifiers
// defined by the TCG Storage Architecture Core Specification, along with
// the small amount of SSC-variant bookkeeping the session layer needs to
// pick the right Properties argument shape.
package uid

// UID is the general 8-byte identifier type every object and invoking ID
// is built from.
type UID [8]byte

type RowUID UID

// InvokingID addresses the object a method call is sent to.
type InvokingID UID

type SPID UID

type AuthorityObjectUID UID

// MethodUID addresses the method being called on an InvokingID.
type MethodUID UID

var (
	InvokeIDNull   = InvokingID{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	InvokeIDThisSP = InvokingID{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01}
	// InvokeIDSMU is the Session Manager object, target UID 0:0xff.
	InvokeIDSMU = InvokingID{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xFF}
)

// Session Manager methods, invoked against InvokeIDSMU. Offsets per the
// TCG Storage Architecture Core Specification 3.2.7.
var (
	MethodIDSMProperties          MethodUID = [8]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xFF, 0x01}
	MethodIDSMStartSession        MethodUID = [8]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xFF, 0x02}
	MethodIDSMSyncSession         MethodUID = [8]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xFF, 0x03}
	MethodIDSMStartTrustedSession MethodUID = [8]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xFF, 0x04}
	MethodIDSMSyncTrustedSession  MethodUID = [8]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xFF, 0x05}
	MethodIDSMCloseSession        MethodUID = [8]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xFF, 0x06}
)

var (
	LockingAuthorityBandMaster0 = AuthorityObjectUID{0x00, 0x00, 0x00, 0x09, 0x00, 0x00, 0x80, 0x01}
	LockingAuthorityAdmin1      = AuthorityObjectUID{0x00, 0x00, 0x00, 0x09, 0x00, 0x01, 0x00, 0x01}
	AuthorityAnybody            = AuthorityObjectUID{0x00, 0x00, 0x00, 0x09, 0x00, 0x00, 0x00, 0x01}
	AuthoritySID                = AuthorityObjectUID{0x00, 0x00, 0x00, 0x09, 0x00, 0x00, 0x00, 0x06}
	AuthorityPSID               = AuthorityObjectUID{0x00, 0x00, 0x00, 0x09, 0x00, 0x01, 0xFF, 0x01} // Opal Feature Set: PSID
)

var (
	GlobalRangeRowUID RowUID = [8]byte{0x00, 0x00, 0x08, 0x02, 0x00, 0x00, 0x00, 0x01}
)

var (
	AdminSP             = SPID{0x00, 0x00, 0x02, 0x05, 0x00, 0x00, 0x00, 0x01}
	LockingSP           = SPID{0x00, 0x00, 0x02, 0x05, 0x00, 0x00, 0x00, 0x02}
	EnterpriseLockingSP = SPID{0x00, 0x00, 0x02, 0x05, 0x00, 0x01, 0x00, 0x01} // Enterprise SSC
)

// SSC identifies which Security Subsystem Class a TPer implements. This
// governs, among other things, the name used for the HostProperties
// argument in a Properties call.
type SSC int

const (
	SSCUnknown SSC = iota
	SSCEnterprise
	SSCOpal
	SSCOpalite
	SSCPyrite
	SSCRuby
)

func (s SSC) String() string {
	switch s {
	case SSCEnterprise:
		return "Enterprise"
	case SSCOpal:
		return "Opal"
	case SSCOpalite:
		return "Opalite"
	case SSCPyrite:
		return "Pyrite"
	case SSCRuby:
		return "Ruby"
	default:
		return "Unknown"
	}
}

// HostPropertiesName is the argument name Properties expects for the
// HostProperties parameter: a literal string for Enterprise, an unsigned
// integer name (always 0) for every Opal-family SSC.
func (s SSC) HostPropertiesName() interface{} {
	if s == SSCEnterprise {
		return "HostProperties"
	}
	return uint64(0)
}
