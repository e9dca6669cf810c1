// Copyright 2025 The Padron Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/camdev/padron/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
