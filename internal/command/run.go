// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/fleetctl/fleetctl/internal/config"
	"github.com/fleetctl/fleetctl/internal/differ"
	"github.com/fleetctl/fleetctl/internal/event"
	"github.com/fleetctl/fleetctl/internal/fleet"
	ec2x "github.com/fleetctl/fleetctl/internal/fleet/ec2"
	"github.com/fleetctl/fleetctl/internal/meta"
)

// runCommandAction is the action handler for the "run" subcommand. It takes
// an action from a trigger document or the --action flag, locates the tagged
// fleet, dispatches one batch call, and waits for every instance to converge.
func runCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	// Bail out early if we're just dumping tldr.
	if ShortCircuitTLDR(ctx, cmd, "run") {
		return nil
	}

	config.Config.Namespace = "run"

	ev, err := LoadEvent(cmd, m)
	if err != nil {
		return err
	}

	action, err := fleet.ParseAction(ev.Action)
	if err != nil {
		return err
	}

	filter, waitSpec, region, err := resolveFleet(ctx, cmd, ev)
	if err != nil {
		return err
	}

	client, region, err := NewEC2Client(ctx, cmd, region)
	if err != nil {
		return err
	}
	provider := ec2x.New(client, region)

	locator := fleet.Locator{Provider: provider}
	handles, err := locator.Locate(ctx, filter)
	if err != nil {
		return err
	}
	if len(handles) == 0 {
		fmt.Fprintf(os.Stdout, "no instances matched %s in %s\n", filter, region)
		return nil
	}

	var before []byte
	if cmd.Bool("diff") {
		before = stateDoc(handles)
	}

	dispatcher := fleet.Dispatcher{Provider: provider}
	receipt, err := dispatcher.Dispatch(ctx, action, handles)
	if err != nil {
		return err
	}

	if cmd.Bool("no-wait") {
		log.Infof("not waiting on batch %s", receipt.BatchID)
		return nil
	}

	if v := cmd.Duration("poll-interval"); v > 0 {
		waitSpec.PollInterval = v
	}
	if v := cmd.Duration("max-wait"); v > 0 {
		waitSpec.MaxWait = v
	}

	// The waiter logs its own outcome. Render the diff off the last observed
	// states even on timeout, so the operator sees what did move.
	waiter := fleet.Waiter{Provider: provider}
	result, err := waiter.Wait(ctx, receipt, waitSpec)

	if cmd.Bool("diff") && result.Polls > 0 {
		after := stateDoc(append(result.Converged, result.Stragglers...))
		if diffErr := differ.Diff(ctx, cmd, [][]byte{before, after}); diffErr != nil && err == nil {
			err = diffErr
		}
	}

	return err
}

// resolveFleet determines which instances a command addresses. A named
// schedule contributes its tags, region and wait bounds; otherwise the --tag
// predicates stand alone and the region comes from the event or the flag
// chain.
func resolveFleet(ctx context.Context, cmd *cli.Command, ev event.Event) (fleet.Filter, fleet.WaitSpec, string, error) {
	region := ev.Region

	if name := cmd.String("schedule"); name != "" {
		doc, docRegion, err := LoadScheduleDocument(ctx, cmd)
		if err != nil {
			return nil, fleet.WaitSpec{}, "", err
		}

		s, err := doc.Lookup(name)
		if err != nil {
			return nil, fleet.WaitSpec{}, "", err
		}

		spec, err := s.WaitSpec()
		if err != nil {
			return nil, fleet.WaitSpec{}, "", err
		}

		// A ::region override on the document reference is the operator
		// speaking, so it outranks the schedule's own region.
		if s.Region != "" {
			region = s.Region
		}
		if docRegion != "" {
			region = docRegion
		}

		return s.Filter(), spec, region, nil
	}

	filter, err := fleet.ParseFilter(cmd.StringSlice("tag"))
	if err != nil {
		return nil, fleet.WaitSpec{}, "", err
	}
	if len(filter) == 0 {
		return nil, fleet.WaitSpec{}, "", errors.New("no instances addressed: give --tag predicates or a --schedule name")
	}

	return filter, fleet.WaitSpec{}, region, nil
}

// stateDoc renders handles as a fleet state document, a map of instance id
// to lifecycle state. The keyed form keeps diffs stable across ordering.
func stateDoc(handles []fleet.Handle) []byte {
	states := make(map[string]string, len(handles))
	for _, h := range handles {
		states[h.ID] = string(h.State)
	}

	doc, _ := json.Marshal(states)
	return doc
}

// runCommandBuilder constructs the cli.Command for "run", wiring metadata,
// flags, and action/validator handlers.
func runCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run a fleet action",
		UsageText: "fleetctl run [event-file|-] [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "action",
				Usage: "action to run when no event document names one",
				Validator: func(value string) error {
					return FlagValidators(value, ActionValidator)
				},
			},
			&cli.BoolFlag{
				Name:  "diff",
				Usage: "show state changes once the batch settles",
				Value: false,
			},
			&cli.StringFlag{
				Name:   "diff_filter",
				Hidden: true,
			},
			&cli.DurationFlag{
				Name:  "max-wait",
				Usage: "longest time to wait for convergence",
			},
			&cli.BoolFlag{
				Name:  "no-wait",
				Usage: "dispatch and exit without waiting for convergence",
				Value: false,
			},
			&cli.DurationFlag{
				Name:  "poll-interval",
				Usage: "time between convergence polls",
			},
			&cli.StringSliceFlag{
				Name:  "tag",
				Usage: "Key=Value tag predicate; repeat to narrow (all must match)",
			},
			NewProfileFlag("run", meta.Config.Source),
			NewRegionFlag("run", meta.Config.Source),
			NewSchedulesFlag("run", meta.Config.Source),
			scheduleFlag,
			tldrFlag,
		},
		Action: runCommandAction,
	}
}
