// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package aws builds SDK v2 clients for the EC2, RDS, and S3 calls the
// commands make, layering profile and region options over the default
// credential chain and folding SDK failures into contextual errors.
package aws
