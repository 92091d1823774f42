// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets (all, unit, cover).
type Test mg.Namespace

// testConfig holds options parsed from the arguments after the target.
type testConfig struct {
	run  string
	race bool
	pkgs string
}

func parseTestFlags(name string) (testConfig, error) {
	var cfg testConfig
	fs := newTargetFlags("test:" + name)
	fs.StringVar(&cfg.run, "run", "", "run only tests matching the pattern")
	fs.BoolVar(&cfg.race, "race", false, "enable the race detector")
	fs.StringVar(&cfg.pkgs, "pkg", "./...", "packages to test")
	return cfg, parseTargetFlags(fs)
}

func runTests(name string, extra ...string) error {
	cfg, err := parseTestFlags(name)
	if err != nil {
		return err
	}
	return sh.RunV(binGo, cfg.args(extra...)...)
}

func (c testConfig) args(extra ...string) []string {
	args := []string{"test"}
	if c.run != "" {
		args = append(args, "-run", c.run)
	}
	if c.race {
		args = append(args, "-race")
	}
	args = append(args, extra...)
	return append(args, c.pkgs)
}

// All runs every test.
func (Test) All() error {
	return runTests("all", "-v")
}

// Unit runs tests in short mode.
func (Test) Unit() error {
	return runTests("unit", "-short")
}

// Cover runs every test and writes bin/coverage.out.
func (Test) Cover() error {
	mg.Deps(mkBinDir)
	profile := filepath.Join(binaryDir, "coverage.out")
	if err := runTests("cover", "-coverprofile", profile); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func", profile)
}

func mkBinDir() error {
	return os.MkdirAll(binaryDir, 0o755)
}
