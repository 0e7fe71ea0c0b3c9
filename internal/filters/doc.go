// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package filters provides client-side filtering for query results.
//
// The package parses filter expressions to select subsets of rows based on
// attribute values. Filters are specified as key-operator-target expressions
// and can be combined using a configurable delimiter (default: comma,
// FLEETCTL_FILTER_DELIM overrides).
//
// Operators include:
//
//   - = : exact match (supports negation with !=)
//   - ^ : prefix match (supports negation with !^)
//   - ~ : case-insensitive match (supports negation with !~)
//   - < : less than (numeric comparison)
//   - > : greater than (numeric comparison)
//   - @ : contains (substring, slice member, or map key; supports negation)
//   - / : regex match (supports negation with !/)
//
// Examples:
//
//   - "state=running" : rows whose state equals "running"
//   - "az^us-east" : rows whose availability zone starts with "us-east"
//   - "uptime>5" : rows where uptime is greater than 5
//   - "tags@Scheduled" : rows whose tag map carries a Scheduled key
//   - "id!@test" : rows whose id does not contain "test"
//
// Filter Keys and Attributes:
//
// Filter keys are matched against the OutputKey of attributes (see attrs
// package). Keys prefixed with underscore (_) are server-side tag filters:
// they are folded into the provider describe call (ServerSideTags) and
// silently skipped here.
//
// The reserved key "tagged" is a derived check against the whole tag map:
// "tagged" keeps rows with at least one tag, "tagged=false" keeps the
// untagged ones.
//
// Filter Parsing:
//
// The BuildFilters function parses a comma-delimited (or custom-delimited)
// filter specification string. Invalid specifications (unsupported operands
// or malformed expressions) are logged and skipped, allowing partial filter
// sets to be processed.
package filters
