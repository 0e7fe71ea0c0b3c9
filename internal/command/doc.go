// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package command assembles the fleetctl CLI: the run, query and watch
// subcommands, their flags and validators, flag defaults drawn from config,
// and shell completion.
package command
