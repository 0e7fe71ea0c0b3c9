// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package source fetches schedule documents from local files or S3 objects.
//
// S3 bodies are cached on disk keyed by the object ETag, so an unchanged
// document costs one HeadObject instead of a full GetObject on repeat runs.
package source
