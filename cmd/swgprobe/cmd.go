// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log"

	"github.com/davecgh/go-spew/spew"

	"github.com/tcgsed/go-swg-core/pkg/auth"
	"github.com/tcgsed/go-swg-core/pkg/drive"
	"github.com/tcgsed/go-swg-core/pkg/feature"
	"github.com/tcgsed/go-swg-core/pkg/session"
	"github.com/tcgsed/go-swg-core/pkg/transceiver"
	"github.com/tcgsed/go-swg-core/pkg/uid"
)

// context is the context struct required by the kong command line parser.
type context struct{}

type probeCmd struct {
	Device    string `flag:"" required:"" type:"accessiblefile" short:"d" help:"Path to SED device (e.g. /dev/nvme0)"`
	SP        string `flag:"" default:"admin" short:"s" help:"Security Provider to open a session against: admin or locking"`
	Authority string `flag:"" optional:"" short:"a" help:"Authority to authenticate as: sid, psid, bandmaster0, admin1; leave unset to skip authentication"`
	Password  string `flag:"" required:"" type:"password" short:"p" help:"Password hashed with the sedutil PBKDF2-SHA1 scheme before use"`
}

var cli struct {
	Probe probeCmd `cmd:"" default:"1" help:"Open a device, run discovery, and negotiate a session"`
}

func (p *probeCmd) Run(ctx *context) error {
	spew.Config.Indent = "  "

	fmt.Printf("===> OPEN\n")
	d, err := drive.Open(p.Device)
	if err != nil {
		return fmt.Errorf("drive.Open: %w", err)
	}
	defer d.Close()

	id, err := d.Identify()
	if err != nil {
		return fmt.Errorf("drive.Identify: %w", err)
	}
	log.Printf("drive identity: %s", id)

	serial, err := d.SerialNumber()
	if err != nil {
		return fmt.Errorf("drive.SerialNumber: %w", err)
	}

	fmt.Printf("\n===> LEVEL-0 DISCOVERY\n")
	raw := make([]byte, 2048)
	if err := d.IFRecv(drive.SecurityProtocolTCGManagement, 1, &raw); err != nil {
		return fmt.Errorf("Level-0 Discovery IFRecv: %w", err)
	}
	disc, err := feature.Decode(raw)
	if err != nil {
		return fmt.Errorf("feature.Decode: %w", err)
	}
	spew.Dump(disc)

	ssc, comID, ok := disc.SSC()
	if !ok {
		return fmt.Errorf("no supported SSC feature in Level-0 Discovery")
	}
	log.Printf("selected SSC %s, base ComID 0x%04x", ssc, comID)

	fmt.Printf("\n===> PROPERTIES\n")
	th := transceiver.NewHandle(d, comID)
	h := session.NewHandle(th, ssc)
	if err := session.DoProperties(h); err != nil {
		return fmt.Errorf("session.DoProperties: %w", err)
	}
	log.Printf("negotiated MaxComPacketSize=%d MaxTokenSize=%d", h.MaxComPacketSize, h.MaxTokenSize)

	fmt.Printf("\n===> SESSION\n")
	spUID, err := resolveSP(p.SP)
	if err != nil {
		return err
	}
	if err := session.StartSession(h, spUID); err != nil {
		return fmt.Errorf("session.StartSession: %w", err)
	}
	defer func() {
		if err := session.EndSession(h); err != nil {
			log.Printf("session.EndSession: %v", err)
		}
	}()
	log.Printf("session open: HostSessionID=0x%x TPerSessionID=0x%x", h.HostSessionID, h.TPerSessionID)

	if p.Authority == "" {
		return nil
	}

	fmt.Printf("\n===> AUTHENTICATE\n")
	authority, err := resolveAuthority(p.Authority)
	if err != nil {
		return err
	}
	pin := auth.HashSedutilDTA(p.Password, string(serial))
	if err := auth.Authenticate(h, authority, pin); err != nil {
		return fmt.Errorf("auth.Authenticate: %w", err)
	}
	log.Printf("authenticated as %s", p.Authority)
	return nil
}

func resolveSP(name string) (uid.SPID, error) {
	switch name {
	case "admin":
		return uid.AdminSP, nil
	case "locking":
		return uid.LockingSP, nil
	default:
		return uid.SPID{}, fmt.Errorf("unknown SP %q, want admin or locking", name)
	}
}

func resolveAuthority(name string) (uid.AuthorityObjectUID, error) {
	switch name {
	case "sid":
		return uid.AuthoritySID, nil
	case "psid":
		return uid.AuthorityPSID, nil
	case "bandmaster0":
		return uid.LockingAuthorityBandMaster0, nil
	case "admin1":
		return uid.LockingAuthorityAdmin1, nil
	default:
		return uid.AuthorityObjectUID{}, fmt.Errorf("unknown authority %q", name)
	}
}
