// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdutil

import (
	"fmt"
	"os"
	"reflect"

	"github.com/alecthomas/kong"
)

// AccessibleFileMapper is a restrictive version of kong's existing-file
// mapper that reports permission errors instead of silently passing
// through an empty string, so a device path the process can't stat
// fails at flag-parsing time. A path that can be stat'ed but not opened
// is accepted here.
func AccessibleFileMapper() kong.MapperFunc {
	return func(ctx *kong.DecodeContext, target reflect.Value) error {
		if target.Kind() != reflect.String {
			return fmt.Errorf(`"accessiblefile" type must be applied to a string, not %s`, target.Type())
		}
		var path string
		if err := ctx.Scan.PopValueInto("file", &path); err != nil {
			return err
		}
		if path != "-" {
			path = kong.ExpandPath(path)
			stat, err := os.Stat(path)
			if err != nil {
				if os.IsPermission(err) {
					return fmt.Errorf("permission denied for file %q", path)
				}
				return err
			}
			if stat.IsDir() {
				return fmt.Errorf("%q exists but is a directory", path)
			}
		}
		target.SetString(path)
		return nil
	}
}
