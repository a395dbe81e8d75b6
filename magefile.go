// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build mage
// +build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified.
var Default = Build

var cmds = []string{
	"tsemu",
	"tsemu-tdaq",
	"ts-dump",
	"ts-shell",
	"ts-sql",
	"ts-srv",
	"wf-dump",
}

// Build compiles all the commands into ./bin.
func Build() error {
	for _, name := range cmds {
		mg.Deps(mg.F(buildCmd, name))
	}
	fmt.Println("Compilation finished")
	return nil
}

func buildCmd(name string) error {
	fmt.Printf("Building %s executable...\n", name)
	return sh.RunV("go", "build", "-o", filepath.Join("bin", name), "./cmd/"+name)
}

// Test runs the tests of all packages.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet on all packages.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check vets and tests all packages.
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Clean removes the compiled commands.
func Clean() error {
	return sh.Rm("bin")
}
