// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cmdutil holds small kong helpers shared by the project's
// command-line tools: a resolver that prompts for a password flag left
// unset on the command line, and a mapper that rejects device paths the
// process can't stat (or that name a directory).
package cmdutil

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/alecthomas/kong"
	"golang.org/x/term"
)

// ResolvePassword returns a kong.Resolver that prompts for a "password"
// typed flag left unset on the command line, reading from the terminal
// with echo disabled. If confirm is true the user is prompted twice and
// the values must match.
func ResolvePassword(confirm bool) kong.Resolver {
	return kong.ResolverFunc(func(ctx *kong.Context, parent *kong.Path, flag *kong.Flag) (interface{}, error) {
		if flag.Tag.Type != "password" || !flag.Required || flag.Value.Set && !flag.Value.Target.IsZero() {
			return nil, nil
		}
		if flag.Target.Kind() != reflect.String {
			return nil, fmt.Errorf("'password' type must be applied to a string, not %s", flag.Target.Type())
		}

		fmt.Printf("No value has been provided for flag `%s`.\n", flag.ShortSummary())
		if flag.Help != "" {
			fmt.Println("Description: " + flag.Help)
		}

		for {
			fmt.Printf("Enter %s: ", strings.ToTitle(flag.Name))
			bytePassword, err := term.ReadPassword(0)
			fmt.Print("\n")
			if err != nil {
				return "", fmt.Errorf("password could not be read: %v", err)
			}
			pwd := strings.TrimSpace(string(bytePassword))
			if pwd == "" {
				return nil, nil
			}
			if !confirm {
				return pwd, nil
			}

			fmt.Printf("Re-enter %s: ", strings.ToTitle(flag.Name))
			bytePassword2, err := term.ReadPassword(0)
			fmt.Print("\n\n")
			if err != nil {
				return "", fmt.Errorf("password could not be read: %v", err)
			}
			if strings.TrimSpace(string(bytePassword2)) != pwd {
				fmt.Println("Passwords do not match, try again.")
				continue
			}
			return pwd, nil
		}
	})
}
