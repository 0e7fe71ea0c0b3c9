// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"reflect"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/jsonapi"
	"github.com/urfave/cli/v3"

	"github.com/fleetctl/fleetctl/internal/config"
	"github.com/fleetctl/fleetctl/internal/meta"
	"github.com/fleetctl/fleetctl/internal/output"
	"github.com/fleetctl/fleetctl/internal/replicate"
)

var snapqDefaultAttrs = []string{".id", "instance", "type", "status", "storage-gb", "created"}

// snapqCommandAction is the action handler for the "snapq" subcommand. It
// lists database snapshots in a region and emits results per common flags.
func snapqCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	// Bail out early if we're just dumping tldr.
	if ShortCircuitTLDR(ctx, cmd, "snapq") {
		return nil
	}
	if DumpSchemaIfRequested(cmd, reflect.TypeOf(replicate.Snapshot{})) {
		return nil
	}

	config.Config.Namespace = "snapq"

	client, region, err := NewRDSClient(ctx, cmd, "")
	if err != nil {
		return err
	}

	snaps, err := replicate.List(ctx, client, region, cmd.String("instance"), cmd.String("type"))
	if err != nil {
		return err
	}

	attrs := BuildAttrs(cmd, snapqDefaultAttrs...)
	log.Debugf("attrs: %v", attrs)

	var raw bytes.Buffer
	if err := jsonapi.MarshalPayload(&raw, snaps); err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	postProcess := func(dataset []map[string]interface{}) error {
		if cmd.Bool("human") {
			humanizeStorage(dataset)
		}

		return nil
	}

	output.SliceDiceSpit(raw, attrs, cmd, "data", os.Stdout, postProcess)

	return nil
}

// humanizeStorage rewrites the storage-gb column in place as a humanized
// byte size. Numbers arrive as float64 from the JSON round trip.
func humanizeStorage(dataset []map[string]interface{}) {
	for _, row := range dataset {
		if gb, ok := row["storage-gb"].(float64); ok {
			row["storage-gb"] = humanize.IBytes(uint64(gb) * humanize.GiByte)
		}
	}
}

// snapqCommandBuilder constructs the cli.Command for "snapq", wiring
// metadata, flags, and action/validator handlers.
func snapqCommandBuilder(meta meta.Meta) *cli.Command {
	qcb := QueryCommandBuilder{
		Name:      "snapq",
		Usage:     "snapshot query",
		UsageText: "fleetctl snapq [options]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "human",
				Usage: "show storage as humanized sizes",
				Value: false,
			},
			&cli.StringFlag{
				Name:    "instance",
				Aliases: []string{"i"},
				Usage:   "only snapshots of this database instance",
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "snapshot type: automated, manual, shared, public or awsbackup",
			},
			NewProfileFlag("snapq", meta.Config.Source),
			NewRegionFlag("snapq", meta.Config.Source),
		},
		Action: snapqCommandAction,
		Meta:   meta,
	}

	return qcb.Build()
}
