// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/fleetctl/fleetctl/internal/meta"
)

// Diff renders the change between two fleet state documents, before on the
// left. Identical documents say so rather than printing nothing.
func Diff(ctx context.Context, cmd *cli.Command, states [][]byte) error {
	before, after := states[0], states[1]
	if len(before) == 0 || len(after) == 0 {
		log.Debugf("missing state side: before=%d, after=%d", len(before), len(after))
		return nil
	}

	delta, err := gojsondiff.New().Compare(before, after)
	if err != nil {
		return fmt.Errorf("failed to compare states: %w", err)
	}

	if !delta.Modified() {
		fmt.Fprintln(os.Stdout, "The states are identical.")
		return nil
	}

	var left map[string]interface{}
	if err := json.Unmarshal(before, &left); err != nil {
		return fmt.Errorf("failed to unmarshal state: %w", err)
	}

	// diff_filter drops noisy top-level keys from the rendering.
	for key := range strings.SplitSeq(cmd.String("diff_filter"), ",") {
		if key != "" {
			delete(left, key)
		}
	}

	ascii := formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
		ShowArrayIndex: false,
		Coloring:       true,
	})
	rendered, err := ascii.Format(delta)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, rendered)
	return nil
}

// ParseDiffArgs collects up to two document references trailing the --diff
// flag. A reference is either a file path or "+", which stands for the live
// fleet. Collection stops at the first flag-looking argument.
func ParseDiffArgs(ctx context.Context, cmd *cli.Command) []string {
	m := cmd.Metadata["meta"].(meta.Meta)

	args := make([]string, 0, 2) //nolint:mnd
	collecting := false
	for _, a := range m.Args {
		switch {
		case a == "--diff":
			collecting = true
		case !collecting:
		case len(args) == 2: //nolint:mnd
			return args
		case a == "+" || !strings.HasPrefix(a, "-"):
			args = append(args, a)
		default:
			return args
		}
	}

	return args
}
