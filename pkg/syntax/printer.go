// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

import (
	"fmt"
	"strings"
)

// Print renders a decoded token stream as a human-readable diagnostic
// string: lists as "[ x, y, z ]", named pairs as "name = value", calls as
// "obj.method args", strings when every byte is printable, UIDs as
// "high:low" when the binary is an 8-byte canonical shape, and any other
// binary as "{hex..}". Used only for diagnostics; never for wire
// round-tripping.
func Print(l List) string {
	var sb strings.Builder
	printList(&sb, l)
	return sb.String()
}

func printList(sb *strings.Builder, l List) {
	sb.WriteString("[ ")
	for i := 0; i < len(l); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		switch v := l[i].(type) {
		case TokenType:
			if v == StartName && i+2 < len(l) {
				sb.WriteString(printValue(l[i+1]))
				sb.WriteString(" = ")
				sb.WriteString(printValue(l[i+2]))
				i += 3 // skip name, value, EndName
				continue
			}
			if v == Call && i+3 < len(l) {
				sb.WriteString(printValue(l[i+1]))
				sb.WriteString(".")
				sb.WriteString(printValue(l[i+2]))
				sb.WriteString(" ")
				sb.WriteString(printValue(l[i+3]))
				i += 3
				continue
			}
			sb.WriteString(v.String())
		default:
			sb.WriteString(printValue(v))
		}
	}
	sb.WriteString(" ]")
}

func printValue(v interface{}) string {
	switch x := v.(type) {
	case List:
		var sb strings.Builder
		printList(&sb, x)
		return sb.String()
	case TokenType:
		return x.String()
	case uint64:
		return fmt.Sprintf("%d", x)
	case int64:
		return fmt.Sprintf("%d", x)
	case []byte:
		return printBytes(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func printBytes(b []byte) string {
	if len(b) == 8 && b[0] == 0x00 && b[4] == 0x00 {
		hi := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
		lo := uint32(b[4])<<24 | uint32(b[5])<<16 | uint32(b[6])<<8 | uint32(b[7])
		return fmt.Sprintf("%x:%x", hi, lo)
	}
	if isPrintable(b) {
		return fmt.Sprintf("%q", string(b))
	}
	var sb strings.Builder
	sb.WriteString("{")
	for _, c := range b {
		fmt.Fprintf(&sb, "%02x", c)
	}
	sb.WriteString("}")
	return sb.String()
}

func isPrintable(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}
