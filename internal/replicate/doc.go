// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package replicate copies DB snapshots across regions and lists them. A
// copy targets the destination region's client, names the copy after the
// source snapshot, and tags it with the region it came from. The client is
// injected behind a narrow interface so tests run against a fake.
package replicate
