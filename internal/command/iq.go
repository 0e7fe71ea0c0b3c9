// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"reflect"

	"github.com/apex/log"
	ec2v2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/fleetctl/fleetctl/internal/config"
	"github.com/fleetctl/fleetctl/internal/differ"
	"github.com/fleetctl/fleetctl/internal/filters"
	"github.com/fleetctl/fleetctl/internal/fleet"
	ec2x "github.com/fleetctl/fleetctl/internal/fleet/ec2"
	"github.com/fleetctl/fleetctl/internal/meta"
	"github.com/fleetctl/fleetctl/internal/output"
)

var iqDefaultAttrs = []string{".id", "state", "type", "az"}

// iqCommandAction is the action handler for the "iq" subcommand. It queries
// the live fleet, or renders a saved describe document with --from, or
// compares two fleet states with --diff.
func iqCommandAction(ctx context.Context, cmd *cli.Command) error {
	config.Config.Namespace = "iq"

	// Saved-document modes short-circuit before any client is built.
	if cmd.Bool("diff") {
		if ShortCircuitTLDR(ctx, cmd, "iq") {
			return nil
		}
		return iqDiff(ctx, cmd)
	}
	if from := cmd.String("from"); from != "" {
		if ShortCircuitTLDR(ctx, cmd, "iq") {
			return nil
		}
		return iqFromFile(cmd, from)
	}

	client, region, err := NewEC2Client(ctx, cmd, "")
	if err != nil {
		return err
	}

	return NewQueryActionRunner(
		"iq",
		reflect.TypeOf(ec2x.Instance{}),
		iqDefaultAttrs,
		iqFetcher(client, region, iqServerSideFilterAugmenter),
	).Run(ctx, cmd)
}

// iqFetcher builds the fetch function for live instance queries. The
// augmenter mutates the describe input from command flags before the call.
func iqFetcher(
	client ec2v2.DescribeInstancesAPIClient,
	region string,
	augmenter Augmenter[ec2v2.DescribeInstancesInput],
) func(context.Context, *cli.Command) ([]*ec2x.Instance, error) {
	return func(ctx context.Context, cmd *cli.Command) ([]*ec2x.Instance, error) {
		input := &ec2v2.DescribeInstancesInput{}
		if augmenter != nil {
			if err := augmenter(ctx, cmd, input); err != nil {
				return nil, err
			}
		}
		return ec2x.Query(ctx, client, region, input)
	}
}

// iqServerSideFilterAugmenter folds the --tag predicates and the server-side
// entries of --filter into describe tag filters, so the narrowing happens
// before any row crosses the wire.
func iqServerSideFilterAugmenter(_ context.Context, cmd *cli.Command, input *ec2v2.DescribeInstancesInput) error {
	specs := cmd.StringSlice("tag")
	specs = append(specs, filters.ServerSideTags(filters.BuildFilters(cmd.String("filter")))...)

	filter, err := fleet.ParseFilter(specs)
	if err != nil {
		return err
	}
	input.Filters = ec2x.TagFilters(filter)

	log.Debugf("input after augmentation: %+v", input)
	return nil
}

// iqFromFile renders a saved describe document ("-" for stdin) through the
// standard output pipeline instead of calling the API.
func iqFromFile(cmd *cli.Command, from string) error {
	data, err := readDocument(from)
	if err != nil {
		return err
	}

	attrs := BuildAttrs(cmd, iqDefaultAttrs...)
	log.Debugf("attrs: %v", attrs)

	var raw bytes.Buffer
	raw.Write(data)

	output.SliceDiceSpit(raw, attrs, cmd, "", os.Stdout, nil)
	return nil
}

// iqDiff compares two fleet state documents. Each reference is a saved
// describe document, or "+" for the live fleet.
func iqDiff(ctx context.Context, cmd *cli.Command) error {
	refs := differ.ParseDiffArgs(ctx, cmd)
	if len(refs) != 2 {
		return fmt.Errorf("--diff wants two documents (file or +), got %d", len(refs))
	}

	states := make([][]byte, len(refs))
	for i, ref := range refs {
		doc, err := fleetStateDoc(ctx, cmd, ref)
		if err != nil {
			return err
		}
		states[i] = doc
	}

	return differ.Diff(ctx, cmd, states)
}

// fleetStateDoc reduces one diff reference to an id -> state map. The live
// fleet is observed through the provider; a saved document is reduced as is.
func fleetStateDoc(ctx context.Context, cmd *cli.Command, ref string) ([]byte, error) {
	if ref != "+" {
		data, err := readDocument(ref)
		if err != nil {
			return nil, err
		}
		return describeStateDoc(data), nil
	}

	client, region, err := NewEC2Client(ctx, cmd, "")
	if err != nil {
		return nil, err
	}

	filter, err := fleet.ParseFilter(cmd.StringSlice("tag"))
	if err != nil {
		return nil, err
	}

	handles, err := ec2x.New(client, region).LocateInstances(ctx, filter)
	if err != nil {
		return nil, err
	}

	return stateDoc(handles), nil
}

// describeStateDoc reduces a saved describe document to the id -> state map
// the differ compares.
func describeStateDoc(data []byte) []byte {
	states := map[string]string{}
	for _, reservation := range gjson.ParseBytes(data).Get("Reservations").Array() {
		for _, instance := range reservation.Get("Instances").Array() {
			states[instance.Get("InstanceId").String()] = instance.Get("State.Name").String()
		}
	}

	doc, _ := json.Marshal(states)
	return doc
}

// iqCommandBuilder constructs the cli.Command for "iq", wiring metadata,
// flags, and action/validator handlers.
func iqCommandBuilder(meta meta.Meta) *cli.Command {
	qcb := QueryCommandBuilder{
		Name:      "iq",
		Usage:     "instance query",
		UsageText: "fleetctl iq [options]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "diff",
				Usage: "find difference between two fleet states",
				Value: false,
			},
			&cli.StringFlag{
				Name:   "diff_filter",
				Hidden: true,
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "render a saved describe document instead of querying",
			},
			&cli.StringSliceFlag{
				Name:  "tag",
				Usage: "Key=Value tag predicate; repeat to narrow (all must match)",
			},
			NewProfileFlag("iq", meta.Config.Source),
			NewRegionFlag("iq", meta.Config.Source),
		},
		Action: iqCommandAction,
		Meta:   meta,
	}

	return qcb.Build()
}
