// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fleetctl/fleetctl/internal/cacheutil"
	"github.com/fleetctl/fleetctl/internal/command"
	"github.com/fleetctl/fleetctl/internal/config"
	"github.com/fleetctl/fleetctl/internal/log"
	"github.com/fleetctl/fleetctl/internal/version"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

// handleVersion checks for --version/-v and returns whether it was handled.
func handleVersion(args []string) bool {
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.String())
			return true
		}
	}
	return false
}

// handleNakedCommand appends --help if no command is provided.
func handleNakedCommand(args []string) []string {
	if len(args) <= 1 {
		return append(args, "--help")
	}
	return args
}

// processCommandArgs handles command-specific argument processing.
func processCommandArgs(args []string) []string {
	switch {
	case len(args) > 1 && args[1] == "completion":
		// Short-circuit completion: pass args directly.
		return args
	default:
		args = processSetOnly(args)
		log.Debugf("args after set processing: args=%v", args)

		args = deduplicateFlags(args)
		log.Debugf("args after dedup: args=%v", args)

		return args
	}
}

// repeatableFlags are flags where repetition is meaningful, so duplicates
// must survive deduplication.
var repeatableFlags = map[string]bool{
	"--tag": true,
	"--arn": true,
}

// deduplicateFlags keeps only the last occurrence of a flag that appears
// more than once. Config set expansion can inject a flag the operator also
// typed, and the later occurrence should win. A token following a flag that
// does not itself look like a flag is treated as that flag's value and
// travels with it. Positional arguments stay where they are.
func deduplicateFlags(args []string) []string {
	if len(args) == 0 {
		return args
	}

	last := map[string]int{}
	for i, a := range args {
		name, ok := flagName(a)
		if !ok || repeatableFlags[name] {
			continue
		}
		last[name] = i
	}

	result := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]

		name, ok := flagName(a)
		if !ok {
			result = append(result, a)
			continue
		}

		valueAttached := strings.Contains(a, "=")
		valueFollows := !valueAttached && i+1 < len(args) && !isFlagLike(args[i+1])

		if repeatableFlags[name] || last[name] == i {
			result = append(result, a)
			if valueFollows {
				result = append(result, args[i+1])
			}
		}
		if valueFollows {
			i++
		}
	}

	return result
}

// flagName extracts the name part of a flag token, stripping any =value.
// The second return is false for non-flag tokens, including bare "-".
func flagName(a string) (string, bool) {
	if !isFlagLike(a) {
		return "", false
	}
	if eq := strings.Index(a, "="); eq != -1 {
		return a[:eq], true
	}
	return a, true
}

func isFlagLike(a string) bool {
	return strings.HasPrefix(a, "-") && a != "-"
}

// initAndRunApp initializes the app and runs it, returning the exit code.
func initAndRunApp(args []string) int {
	// Pre-create cache directory when caching is enabled.
	if _, ok, err := cacheutil.EnsureBaseDir(); err != nil && ok {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("cache ensure err: err=%v", err)
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("app init err: err=%v", err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("app run err: err=%v", err)
		return 2
	}

	return 0
}

func realMain() int {
	log.InitLogger()

	args := os.Args
	log.Debugf("args captured: args=%v", args)

	if handleVersion(args) {
		return 0
	}

	args = handleNakedCommand(args)

	// If --help appears anywhere, skip command processing and let the CLI handle it.
	helpFound := false
	for _, a := range args {
		if a == "--help" || a == "-h" {
			helpFound = true
			break
		}
	}

	if !helpFound {
		args = processCommandArgs(args)
	}

	return initAndRunApp(args)
}

// processSetOnly handles the @set logic for all commands, expanding set arguments at the @set position.
func processSetOnly(args []string) []string {
	// Look for an explicit @set argument starting from index 2.
	idx := 2
	set := "defaults"
	removeIdx := -1
	for i, a := range args[idx:] {
		if strings.HasPrefix(a, "@") {
			set = a[1:]
			removeIdx = idx + i
			break
		}
	}
	if removeIdx != -1 {
		// Remove the @set argument.
		args = append(args[:removeIdx], args[removeIdx+1:]...)
		// Expand the set arguments at the removeIdx position.
		setArgs, _ := config.GetStringSlice(args[1] + "." + set)
		for _, arg := range setArgs {
			parts := strings.Fields(arg)
			args = append(args[:removeIdx], append(parts, args[removeIdx:]...)...)
			removeIdx += len(parts)
		}
	}
	return args
}
