// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package method

import (
	"testing"

	"github.com/tcgsed/go-swg-core/pkg/buffer"
	"github.com/tcgsed/go-swg-core/pkg/syntax"
	"github.com/tcgsed/go-swg-core/pkg/uid"
)

func TestEncodeMethodNoArgsShape(t *testing.T) {
	buf := buffer.New(make([]byte, 64))
	if err := EncodeMethod(buf, uid.InvokeIDSMU, uid.MethodIDSMStartSession, nil); err != nil {
		t.Fatalf("EncodeMethod: %v", err)
	}

	l, err := syntax.DecodeList(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeList: %v", err)
	}
	if len(l) < 6 {
		t.Fatalf("expected at least 6 top-level elements, got %d: %v", len(l), l)
	}
	if l[0] != syntax.Call {
		t.Fatalf("expected Call token first, got %v", l[0])
	}
	last, ok := l[len(l)-1].(syntax.List)
	if !ok || len(last) != 3 {
		t.Fatalf("expected trailing 3-element status list, got %v", l[len(l)-1])
	}
	for _, v := range last {
		if v.(uint64) != 0 {
			t.Fatalf("expected reserved status triplet of zeros, got %v", last)
		}
	}
}

func TestEncodeMethodWithArgs(t *testing.T) {
	args := buffer.New(make([]byte, 32))
	if err := syntax.EncodeUint(args, 1); err != nil {
		t.Fatal(err)
	}
	if err := syntax.EncodeUID(args, 0x0000020500000002); err != nil {
		t.Fatal(err)
	}

	target := buffer.New(make([]byte, 64))
	if err := EncodeMethod(target, uid.InvokeIDSMU, uid.MethodIDSMStartSession, args); err != nil {
		t.Fatalf("EncodeMethod: %v", err)
	}

	l, err := syntax.DecodeList(target.Bytes())
	if err != nil {
		t.Fatalf("DecodeList: %v", err)
	}
	// Call, iid, mid, StartList(of args), args..., EndList, EndOfData, StartList, [3], EndList
	argList, ok := l[3].(syntax.List)
	if !ok {
		t.Fatalf("expected element 3 to be the argument list, got %T", l[3])
	}
	if len(argList) != 2 {
		t.Fatalf("expected 2 decoded args, got %d: %v", len(argList), argList)
	}
	if argList[0].(uint64) != 1 {
		t.Fatalf("expected first arg to be 1, got %v", argList[0])
	}
}

func TestCallBuilderUnbalancedListFails(t *testing.T) {
	c := New(make([]byte, 64), uid.InvokeIDSMU, uid.MethodIDSMProperties, 0)
	c.StartList() // opens a nested list never closed
	if _, err := c.Finish(); err != ErrUnbalancedList {
		t.Fatalf("expected ErrUnbalancedList, got %v", err)
	}
}

func TestCallBuilderNamedUInt(t *testing.T) {
	c := New(make([]byte, 128), uid.InvokeIDSMU, uid.MethodIDSMProperties, FlagOptionalAsName)
	c.StartOptionalParameter(0, "HostProperties")
	c.NamedUInt("MaxComPacketSize", 2048)
	c.EndOptionalParameter()
	out, err := c.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected non-empty output")
	}
}
