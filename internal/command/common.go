// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"reflect"
	"strings"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	ec2v2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	rdsv2 "github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/hashicorp/jsonapi"
	"github.com/urfave/cli/v3"

	"github.com/fleetctl/fleetctl/internal/attrs"
	awsx "github.com/fleetctl/fleetctl/internal/aws"
	"github.com/fleetctl/fleetctl/internal/event"
	"github.com/fleetctl/fleetctl/internal/meta"
	"github.com/fleetctl/fleetctl/internal/output"
	"github.com/fleetctl/fleetctl/internal/schedule"
	"github.com/fleetctl/fleetctl/internal/schedule/source"
	"github.com/fleetctl/fleetctl/internal/util"
)

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs, then applies the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (al attrs.AttrList) {
	//nolint:errcheck
	{
		for _, d := range defaults {
			al.Set(d)
		}
		if extras := cmd.String("attrs"); extras != "" {
			al.Set(extras)
		}
		al.SetGlobalTransformSpec()
	}
	return
}

// DumpSchemaIfRequested writes the JSON schema for the provided type to stdout
// when --schema is set, and returns true if it handled the request.
func DumpSchemaIfRequested(cmd *cli.Command, t reflect.Type) bool {
	if cmd.Bool("schema") {
		output.DumpSchema("", t, nil)
		return true
	}
	return false
}

// EmitJSONAPISlice marshals a slice as JSONAPI and passes it to the common
// output routine.
func EmitJSONAPISlice(results any, al attrs.AttrList, cmd *cli.Command) error {
	var raw bytes.Buffer
	if err := jsonapi.MarshalPayload(&raw, results); err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	output.SliceDiceSpit(raw, al, cmd, "data", os.Stdout, nil)
	return nil
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// NewEC2Client loads AWS config honoring the --profile and --region flags and
// returns a region-scoped EC2 client plus the region it resolved. A non-empty
// region argument wins over the flag chain.
func NewEC2Client(ctx context.Context, cmd *cli.Command, region string) (*ec2v2.Client, string, error) {
	cfg, resolved, err := loadClientConfig(ctx, cmd, region)
	if err != nil {
		return nil, "", err
	}
	return awsx.NewEC2(cfg), resolved, nil
}

// NewRDSClient is NewEC2Client for the RDS surface.
func NewRDSClient(ctx context.Context, cmd *cli.Command, region string) (*rdsv2.Client, string, error) {
	cfg, resolved, err := loadClientConfig(ctx, cmd, region)
	if err != nil {
		return nil, "", err
	}
	return awsx.NewRDS(cfg), resolved, nil
}

func loadClientConfig(ctx context.Context, cmd *cli.Command, region string) (awsv2.Config, string, error) {
	if region == "" {
		region = cmd.String("region")
	}

	var opts []awsx.Option
	if profile := cmd.String("profile"); profile != "" {
		opts = append(opts, awsx.WithProfile(profile))
	}
	if region != "" {
		opts = append(opts, awsx.WithRegion(region))
	}

	cfg, err := awsx.LoadAWSConfig(ctx, opts...)
	if err != nil {
		return cfg, "", fmt.Errorf("failed to load AWS config: %w", err)
	}
	if region == "" {
		region = cfg.Region
	}

	return cfg, region, nil
}

// LoadEvent resolves the trigger document for a command. The document is the
// positional argument right after the command name, with "-" meaning stdin.
// With no document, the --action flag stands in as a synthetic event. When
// both name an action they must agree.
func LoadEvent(cmd *cli.Command, m meta.Meta) (event.Event, error) {
	flagAction := cmd.String("action")

	path := eventPath(m)
	if path == "" {
		return event.Synthetic(flagAction), nil
	}

	ev, err := event.Read(path)
	if err != nil {
		return event.Event{}, err
	}

	if flagAction != "" && ev.Action != "" && flagAction != ev.Action {
		return event.Event{}, fmt.Errorf("--action %q disagrees with the event action %q", flagAction, ev.Action)
	}
	if ev.Action == "" {
		ev.Action = flagAction
	}

	return ev, nil
}

// eventPath finds the positional event document, if any. Only the argument
// immediately after the command name is considered, so flag values are never
// mistaken for documents.
func eventPath(m meta.Meta) string {
	if len(m.Args) > 2 {
		if a := m.Args[2]; a == "-" || !strings.HasPrefix(a, "-") {
			return a
		}
	}
	return ""
}

// LoadScheduleDocument fetches and parses the document named by --schedules.
// The returned region is the ::region override when the reference carried one.
func LoadScheduleDocument(ctx context.Context, cmd *cli.Command) (*schedule.Document, string, error) {
	ref := cmd.String("schedules")
	if ref == "" {
		return nil, "", fmt.Errorf("no schedule document: set --schedules or the schedules config key")
	}

	location, region, err := util.ParseRef(ref)
	if err != nil {
		return nil, "", fmt.Errorf("bad schedule document reference %q: %w", ref, err)
	}

	src, err := source.New(ctx, location, region)
	if err != nil {
		return nil, "", err
	}

	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, "", err
	}

	doc, err := schedule.Parse(src.Describe(), data)
	if err != nil {
		return nil, "", err
	}

	return doc, region, nil
}

// readDocument slurps a document from the given path, or from stdin when the
// path is "-".
func readDocument(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr fleetctl <subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "fleetctl", subcmd)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}
