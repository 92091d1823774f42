// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for satchel using Mage.
//
// Usage:
//
//	mage build          Compile the satchel binary to bin/ (flag: --version)
//	mage install        Install satchel to GOPATH/bin
//	mage clean          Remove build artifacts
//	mage test:all       Run every test (flags: --run, --race, --pkg)
//	mage test:unit      Run tests in short mode
//	mage test:cover     Write a coverage profile to bin/
//	mage lint           Run go vet and golangci-lint
//	mage stats          Print Go LOC and documentation word counts
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "satchel"
	binaryDir  = "bin"
	cmdDir     = "./cmd/satchel"
	versionVar = "github.com/mesh-intelligence/satchel/internal/cli.Version"
)

// version returns $VERSION, or the nearest git tag without its leading v.
// Empty means the version compiled into the package is kept.
func version() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(out, "v")
}

// Build compiles the satchel binary to bin/. --version overrides the
// version stamped into the binary.
func Build() error {
	fs := newTargetFlags("build")
	override := fs.String("version", "", "version to stamp into the binary")
	if err := parseTargetFlags(fs); err != nil {
		return err
	}
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	v := *override
	if v == "" {
		v = version()
	}
	if v != "" {
		args = append(args, "-ldflags", "-X "+versionVar+"="+v)
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
