// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"os"
	"reflect"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/fleetctl/fleetctl/internal/config"
	"github.com/fleetctl/fleetctl/internal/differ"
	"github.com/fleetctl/fleetctl/internal/meta"
	"github.com/fleetctl/fleetctl/internal/replicate"
)

var snapcopyDefaultAttrs = []string{".id", "target", "status"}

// snapcopyCommandAction is the action handler for the "snapcopy" subcommand.
// It copies database snapshots across regions. Source ARNs come from a
// trigger document, repeated --arn flags, or an interactive pick.
func snapcopyCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	// Bail out early if we're just dumping tldr.
	if ShortCircuitTLDR(ctx, cmd, "snapcopy") {
		return nil
	}
	if DumpSchemaIfRequested(cmd, reflect.TypeOf(replicate.Copy{})) {
		return nil
	}

	config.Config.Namespace = "snapcopy"

	sourceRegion := cmd.String("source-region")
	destRegion := cmd.String("destination-region")
	if sourceRegion == "" || destRegion == "" {
		return errors.New("snapshot copies need --source-region and --destination-region")
	}

	arns, err := resolveARNs(ctx, cmd, m, sourceRegion)
	if err != nil {
		return err
	}

	// The copy client talks to the destination; the source region rides on
	// each request for presigning.
	client, _, err := NewRDSClient(ctx, cmd, destRegion)
	if err != nil {
		return err
	}

	copies, err := replicate.New(client, sourceRegion, destRegion, cmd.String("kms-key")).
		Replicate(ctx, arns)

	if len(copies) > 0 {
		attrs := BuildAttrs(cmd, snapcopyDefaultAttrs...)
		if emitErr := EmitJSONAPISlice(copies, attrs, cmd); emitErr != nil && err == nil {
			err = emitErr
		}
	}

	return err
}

// resolveARNs gathers the snapshot ARNs to copy: the trigger document's
// resources, the repeated --arn flags, or an interactive pick over the source
// region's snapshots when neither is given and a terminal is attached.
func resolveARNs(ctx context.Context, cmd *cli.Command, m meta.Meta, sourceRegion string) ([]string, error) {
	ev, err := LoadEvent(cmd, m)
	if err != nil {
		return nil, err
	}

	arns := append(ev.Resources, cmd.StringSlice("arn")...)
	if len(arns) > 0 {
		return arns, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("no snapshot ARNs: give a trigger document or --arn")
	}

	client, _, err := NewRDSClient(ctx, cmd, sourceRegion)
	if err != nil {
		return nil, err
	}

	snaps, err := replicate.List(ctx, client, sourceRegion, cmd.String("instance"), cmd.String("type"))
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, errors.New("no snapshots to pick from in " + sourceRegion)
	}

	for _, snap := range differ.SelectSnapshots(snaps) {
		arns = append(arns, snap.ARN)
	}
	if len(arns) == 0 {
		return nil, errors.New("no snapshots selected")
	}

	return arns, nil
}

// snapcopyCommandBuilder constructs the cli.Command for "snapcopy", wiring
// metadata, flags, and action/validator handlers.
func snapcopyCommandBuilder(meta meta.Meta) *cli.Command {
	destinationFlag := &cli.StringFlag{
		Name:    "destination-region",
		Aliases: []string{"d"},
		Usage:   "region the copies land in",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("FLEETCTL_DESTINATION_REGION"),
			cli.EnvVar("DESTINATION_REGION"),
		),
	}
	sourceFlag := &cli.StringFlag{
		Name:  "source-region",
		Usage: "region the snapshots live in",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("FLEETCTL_SOURCE_REGION"),
			cli.EnvVar("SOURCE_REGION"),
		),
	}
	kmsFlag := &cli.StringFlag{
		Name:  "kms-key",
		Usage: "KMS key for the copies; source key when empty",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("FLEETCTL_KMS_KEY"),
			cli.EnvVar("KMS_KEY_ID"),
		),
	}

	qcb := QueryCommandBuilder{
		Name:      "snapcopy",
		Usage:     "copy snapshots across regions",
		UsageText: "fleetctl snapcopy [event-file|-] [options]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "arn",
				Usage: "snapshot ARN to copy; repeatable",
			},
			&cli.StringFlag{
				Name:    "instance",
				Aliases: []string{"i"},
				Usage:   "narrow the interactive pick to this database instance",
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "narrow the interactive pick to this snapshot type",
			},
			NameSpacedValueChainFlagFromConfigFile("snapcopy", meta.Config.Source, destinationFlag),
			NameSpacedValueChainFlagFromConfigFile("snapcopy", meta.Config.Source, sourceFlag),
			NameSpacedValueChainFlagFromConfigFile("snapcopy", meta.Config.Source, kmsFlag),
			NewProfileFlag("snapcopy", meta.Config.Source),
		},
		Action: snapcopyCommandAction,
		Meta:   meta,
	}

	return qcb.Build()
}
