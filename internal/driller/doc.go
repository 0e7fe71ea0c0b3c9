// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package driller navigates the JSON documents flowing through the query
// pipeline, resolving dotted paths with optional array indexes against
// instance and snapshot records.
package driller
