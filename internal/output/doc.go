// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package output renders query result sets. It flattens raw describe
// documents, applies sort and filter specs, and emits text tables, JSON,
// YAML, or the raw document.
package output
