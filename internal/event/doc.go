// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package event parses the JSON trigger documents an external scheduler
// hands to run and snapcopy: a bare {"Action": ...} document or an
// EventBridge envelope with resources and detail metadata. Field lookup is
// exact; nothing is defaulted or case-folded here.
package event
