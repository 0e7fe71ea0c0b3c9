// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package fleet implements the batch instance action executor: locating
// instances by tag predicates, dispatching a single batch Start/Stop call,
// and polling until every instance in the batch reaches the action's
// terminal lifecycle state.
//
// The three pieces compose in dependency order:
//
//   - Locator resolves tag predicates to instance handles (all pages).
//   - Dispatcher issues exactly one state-changing batch call and returns a
//     receipt correlating the batch to the addressed instances.
//   - Waiter polls the receipt's instances until all converge, the maximum
//     wait elapses, or the provider fails.
//
// Nothing here persists between invocations. Each run builds its handles
// fresh, acts, waits, and exits; periodic execution belongs to an external
// scheduler. All provider access goes through the Provider interface so the
// executor can be driven against a fake in tests.
package fleet
