// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package version resolves the fleetctl version string. It must not import
// other fleetctl packages.
package version

import "runtime/debug"

// release is stamped by release builds with
// -ldflags "-X github.com/fleetctl/fleetctl/internal/version.release=v1.2.3".
var release string

// String returns the stamped release when present, then the module version
// of a go install build, and "dev" otherwise.
func String() string {
	if release != "" {
		return release
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}
