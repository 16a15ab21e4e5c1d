// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package auth derives PIN bytes compatible with the sedutil credential
// schemes and authenticates an authority on an already-open session.
package auth

import (
	"crypto/sha1"
	"crypto/sha512"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/tcgsed/go-swg-core/pkg/buffer"
	"github.com/tcgsed/go-swg-core/pkg/session"
	"github.com/tcgsed/go-swg-core/pkg/syntax"
	"github.com/tcgsed/go-swg-core/pkg/uid"
)

// MethodIDAuthenticate is the Authenticate method UID, invoked against
// the authority object being authenticated as, per "5.3.3.1 Authenticate
// Method".
var MethodIDAuthenticate = uid.MethodUID{0x00, 0x00, 0x00, 0x06, 0x00, 0x00, 0x00, 0x0C}

var ErrAuthenticationFailed = errors.New("auth: authority rejected the PIN")

// HashSedutilDTA derives the PIN bytes the Drive-Trust-Alliance sedutil
// lineage uses: PBKDF2-HMAC-SHA1, 75000 rounds, 32-byte output, salted
// with the drive serial padded/truncated to 20 bytes.
func HashSedutilDTA(password, serial string) []byte {
	salt := fmt.Sprintf("%-20s", serial)
	return pbkdf2.Key([]byte(password), []byte(salt[:20]), 75000, 32, sha1.New)
}

// HashSedutil512 derives the PIN bytes the ChubbyAnt sedutil fork uses:
// PBKDF2-HMAC-SHA512, 500000 rounds, same salting convention.
func HashSedutil512(password, serial string) []byte {
	salt := fmt.Sprintf("%-20s", serial)
	return pbkdf2.Key([]byte(password), []byte(salt[:20]), 500000, 32, sha512.New)
}

// Authenticate invokes Authenticate(pin) against authority on h's
// currently open session. The method's single boolean response is
// required to be true; anything else is reported as
// ErrAuthenticationFailed.
func Authenticate(h *session.Handle, authority uid.AuthorityObjectUID, pin []byte) error {
	args := buffer.New(make([]byte, len(pin)+16))
	if err := syntax.EncodeBinary(args, pin); err != nil {
		return err
	}

	var resp buffer.Buffer
	if err := session.Invoke(h, &resp, uid.InvokingID(authority), MethodIDAuthenticate, args); err != nil {
		return err
	}

	ok, err := syntax.DecodeUint(&resp)
	if err != nil || ok == 0 {
		return ErrAuthenticationFailed
	}
	return nil
}
