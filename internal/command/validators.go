// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/fleetctl/fleetctl/internal/fleet"
)

// FlagValidatorType is a single-value check chained by FlagValidators.
type FlagValidatorType func(any) error

// FlagValidators runs each validator in order and stops at the first
// violation.
func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// GlobalFlagsValidator is the Before hook shared by the query commands.
// Cross-flag rules would live here; the per-flag validators cover everything
// so far.
func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	return nil
}

// OutputValidator restricts --output to the formats the writers support.
func OutputValidator(value any) error {
	formats := []string{"text", "json", "raw", "yaml"}
	s, _ := value.(string)
	if !slices.Contains(formats, s) {
		return fmt.Errorf("must be one of %v", formats)
	}
	return nil
}

// ActionValidator rejects --action values outside the closed action set.
// An empty value passes so the event document can name the action instead.
func ActionValidator(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	_, err := fleet.ParseAction(raw)
	return err
}
