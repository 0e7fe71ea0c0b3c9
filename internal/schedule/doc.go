// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package schedule parses HCL schedule documents: named fleets defined by
// tag predicates, with advisory cron windows describing when the external
// scheduler triggers actions and wait bounds for convergence polling.
// fleetctl never schedules anything itself; windows exist so sq can report
// what the external trigger is expected to do and when.
package schedule
