// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package invoker ties the method builder and transceiver together into
// a single blocking call/response round trip, and extracts the SWG
// method status from the reply.
package invoker

import (
	"errors"
	"fmt"

	"github.com/tcgsed/go-swg-core/pkg/buffer"
	"github.com/tcgsed/go-swg-core/pkg/method"
	"github.com/tcgsed/go-swg-core/pkg/syntax"
	"github.com/tcgsed/go-swg-core/pkg/transceiver"
	"github.com/tcgsed/go-swg-core/pkg/uid"
)

// workingRegion is the size of the scratch buffer Invoke encodes a
// request into. It is allocated fresh per call so the outbound view
// never aliases the handle's I/O block before Send copies it there.
const workingRegion = 64 * 1024

var (
	// callPrefixLen is the Call token plus two 8-byte UID atoms (each
	// encoded as a 1-header-byte + 8-byte-payload short atom), i.e.
	// 1 + 9 + 9, present at the front of every Session-Manager response.
	callPrefixLen = 19
	// responseListOpenLen is the single leading '[' (StartList) byte of
	// the response argument list a caller's response view has stripped.
	responseListOpenLen = 1
	// responseListCloseLen is EndOfData plus the trailing 3-element
	// status list (StartList, 3 tiny uint atoms, EndList) plus one byte
	// of padding slack, trimmed from the back of a response view.
	responseListCloseLen = 7
)

var (
	ErrMalformed = errors.New("invoker: response too short to contain a status trailer")
)

// Invoke performs one method call: build, send, receive, and extract
// status. If response is non-nil, it is re-pointed (via SetView) at the
// remaining response bytes on success, with the opening '[' of the
// response list and the last responseListCloseLen bytes stripped and its
// parse cursor reset to zero; the response list's closing ']' is left as
// the view's final byte. The
// view aliases h.IOBlock and is only valid until the next Send/Recv on
// h.
func Invoke(h *transceiver.Handle, response *buffer.Buffer, objUID uid.InvokingID, methodUID uid.MethodUID, args *buffer.Buffer) error {
	work := buffer.New(make([]byte, workingRegion))
	if err := method.EncodeMethod(work, objUID, methodUID, args); err != nil {
		return err
	}

	useSessionIDs := objUID != uid.InvokeIDSMU

	if err := transceiver.Send(h, work.Bytes(), useSessionIDs); err != nil {
		return err
	}
	var raw []byte
	if err := transceiver.Recv(h, &raw); err != nil {
		return err
	}

	body := raw
	if len(body) > 0 && body[0] == byte(syntax.Call) {
		if len(body) < callPrefixLen {
			return ErrMalformed
		}
		body = body[callPrefixLen:]
	}

	if len(body) < 5 {
		return ErrMalformed
	}
	status := uint(body[len(body)-5])
	if status != method.StatusSuccess {
		if err, ok := method.StatusCodeMap[status]; ok {
			return err
		}
		return fmt.Errorf("invoker: method returned unknown status code 0x%02x", status)
	}

	if response != nil {
		if len(body) < responseListOpenLen+responseListCloseLen {
			return ErrMalformed
		}
		view := body[responseListOpenLen : len(body)-responseListCloseLen]
		response.SetView(view)
	}
	return nil
}
