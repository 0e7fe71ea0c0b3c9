// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/fleetctl/fleetctl/internal/config"
	"github.com/fleetctl/fleetctl/internal/meta"
	"github.com/fleetctl/fleetctl/internal/schedule"
)

// ScheduleRow is the flattened row shape schedule queries render. Next fire
// times are computed against a reference time at fetch.
type ScheduleRow struct {
	Name         string            `jsonapi:"primary,schedules"`
	Region       string            `jsonapi:"attr,region"`
	Tags         map[string]string `jsonapi:"attr,tags"`
	StartWindow  string            `jsonapi:"attr,start-window"`
	StopWindow   string            `jsonapi:"attr,stop-window"`
	NextStart    time.Time         `jsonapi:"attr,next-start,iso8601"`
	NextStop     time.Time         `jsonapi:"attr,next-stop,iso8601"`
	PollInterval string            `jsonapi:"attr,poll-interval"`
	MaxWait      string            `jsonapi:"attr,max-wait"`
}

var sqDefaultAttrs = []string{".id", "region", "start-window", "stop-window", "next-start", "next-stop"}

// sqCommandAction is the action handler for the "sq" subcommand. It fetches
// the schedule document and renders each schedule with its computed next
// fire times.
func sqCommandAction(ctx context.Context, cmd *cli.Command) error {
	config.Config.Namespace = "sq"

	fetch := func(ctx context.Context, cmd *cli.Command) ([]*ScheduleRow, error) {
		doc, _, err := LoadScheduleDocument(ctx, cmd)
		if err != nil {
			return nil, err
		}
		return scheduleRows(doc, time.Now())
	}

	return NewQueryActionRunner(
		"sq",
		reflect.TypeOf(ScheduleRow{}),
		sqDefaultAttrs,
		fetch,
	).Run(ctx, cmd)
}

// scheduleRows flattens a parsed document, computing each schedule's next
// fire times from the given reference time.
func scheduleRows(doc *schedule.Document, now time.Time) ([]*ScheduleRow, error) {
	rows := make([]*ScheduleRow, 0, len(doc.Schedules))
	for _, s := range doc.Schedules {
		row := &ScheduleRow{
			Name:   s.Name,
			Region: s.Region,
			Tags:   s.Tags,
		}

		if s.Window != nil {
			row.StartWindow = s.Window.Start
			row.StopWindow = s.Window.Stop

			var err error
			if row.NextStart, err = s.NextStart(now); err != nil {
				return nil, err
			}
			if row.NextStop, err = s.NextStop(now); err != nil {
				return nil, err
			}
		}

		if s.Wait != nil {
			row.PollInterval = s.Wait.PollInterval
			row.MaxWait = s.Wait.MaxWait
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// sqCommandBuilder constructs the cli.Command for "sq", wiring metadata,
// flags, and action/validator handlers. A positional argument overrides the
// --schedules flag so `fleetctl sq prod.hcl` works without ceremony.
func sqCommandBuilder(meta meta.Meta) *cli.Command {
	qcb := QueryCommandBuilder{
		Name:      "sq",
		Usage:     "schedule query",
		UsageText: "fleetctl sq [schedule-doc] [options]",
		Flags: []cli.Flag{
			NewProfileFlag("sq", meta.Config.Source),
			NewRegionFlag("sq", meta.Config.Source),
			NewSchedulesFlag("sq", meta.Config.Source),
		},
		Action: sqCommandAction,
		Meta:   meta,
	}

	cmd := qcb.Build()

	before := cmd.Before
	cmd.Before = func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if len(meta.Args) > 2 && !strings.HasPrefix(meta.Args[2], "-") {
			if err := cmd.Set("schedules", meta.Args[2]); err != nil {
				return ctx, err
			}
		}
		return before(ctx, cmd)
	}

	return cmd
}
