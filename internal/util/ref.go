// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"os"
	"path/filepath"
	"strings"
)

// ParseRef parses a schedule document reference and returns the resolved
// location and any optional region override. References take the form
// <location>[::region], where location is either an s3://bucket/key URL or
// a filesystem path. Local paths resolve to absolute form and must name an
// existing regular file; S3 locations pass through untouched.
func ParseRef(ref string) (string, string, error) {

	if ref == "" {
		return "", "", os.ErrInvalid
	}

	var location, region string

	// First, split the ref to see if there is a ::region override.
	parts := strings.Split(ref, "::")
	if len(parts) > 1 {
		region = parts[1]
	}
	location = parts[0]

	// S3 locations are validated when fetched; no local checks apply.
	if strings.HasPrefix(location, "s3://") {
		return location, region, nil
	}

	// Now determine if the path is absolute or relative. If it is
	// relative, make it absolute.
	if !filepath.IsAbs(location) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", "", err
		}
		location = filepath.Join(cwd, location)
	}

	// A local ref must be a regular file, not a directory.
	if r, err := os.Stat(location); err != nil {
		return "", "", err
	} else if r.IsDir() {
		return "", "", os.ErrInvalid
	}

	return location, region, nil
}

// IsS3 reports whether a parsed location addresses an S3 object.
func IsS3(location string) bool {
	return strings.HasPrefix(location, "s3://")
}
