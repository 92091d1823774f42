// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os/exec"

	"github.com/magefile/mage/sh"
)

const binLint = "golangci-lint"

// Lint runs go vet, then golangci-lint when it is installed.
func Lint() error {
	if err := sh.RunV(binGo, "vet", "./..."); err != nil {
		return err
	}
	if _, err := exec.LookPath(binLint); err != nil {
		fmt.Printf("%s not found on PATH; skipped.\n", binLint)
		return nil
	}
	return sh.RunV(binLint, "run", "./...")
}
