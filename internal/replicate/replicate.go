// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package replicate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	rdsv2 "github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/hashicorp/go-multierror"

	awsx "github.com/fleetctl/fleetctl/internal/aws"
	"github.com/fleetctl/fleetctl/internal/log"
)

// API is the slice of the RDS client the replicator uses. *rdsv2.Client
// satisfies it; tests substitute a fake.
type API interface {
	rdsv2.DescribeDBSnapshotsAPIClient
	CopyDBSnapshot(ctx context.Context, params *rdsv2.CopyDBSnapshotInput, optFns ...func(*rdsv2.Options)) (*rdsv2.CopyDBSnapshotOutput, error)
}

// Replicator copies DB snapshots into the region its client targets. The
// source region feeds the cross-region presign and the source_region tag on
// every copy.
type Replicator struct {
	client       API
	sourceRegion string
	destRegion   string
	kmsKeyID     string
}

// New returns a Replicator bound to a client already scoped to the
// destination region. kmsKeyID may be empty when the destination does not
// encrypt with a customer key.
func New(client API, sourceRegion, destRegion, kmsKeyID string) *Replicator {
	return &Replicator{
		client:       client,
		sourceRegion: sourceRegion,
		destRegion:   destRegion,
		kmsKeyID:     kmsKeyID,
	}
}

// Copy records one snapshot copy request as accepted by the API.
type Copy struct {
	SourceARN string `jsonapi:"primary,snapshot-copies"`
	Target    string `jsonapi:"attr,target"`
	Status    string `jsonapi:"attr,status"`
}

// Replicate issues one CopyDBSnapshot per source ARN, sequentially. A failed
// copy does not stop the rest; every failure is reported per ARN and the
// aggregate error is returned alongside the copies that were accepted.
func (r *Replicator) Replicate(ctx context.Context, arns []string) ([]*Copy, error) {
	if len(arns) == 0 {
		return nil, errors.New("no snapshot ARNs to copy")
	}

	var copies []*Copy
	var merr *multierror.Error

	for _, arn := range arns {
		name := SnapshotName(arn)
		if name == "" {
			merr = multierror.Append(merr, fmt.Errorf("malformed snapshot ARN %q", arn))
			continue
		}

		target := "copy-" + name
		input := &rdsv2.CopyDBSnapshotInput{
			SourceDBSnapshotIdentifier: awsv2.String(arn),
			TargetDBSnapshotIdentifier: awsv2.String(target),
			SourceRegion:               awsv2.String(r.sourceRegion),
			Tags: []types.Tag{{
				Key:   awsv2.String("source_region"),
				Value: awsv2.String(r.sourceRegion),
			}},
		}
		if r.kmsKeyID != "" {
			input.KmsKeyId = awsv2.String(r.kmsKeyID)
		}

		out, err := r.client.CopyDBSnapshot(ctx, input)
		if err != nil {
			merr = multierror.Append(merr,
				awsx.FriendlyAWS(fmt.Errorf("failed to copy %s: %w", arn, err), r.errorContext(arn)))
			continue
		}

		cp := &Copy{SourceARN: arn, Target: target}
		if out.DBSnapshot != nil {
			cp.Status = awsv2.ToString(out.DBSnapshot.Status)
		}
		copies = append(copies, cp)
		log.Infof("copying %s to %s as %s", name, r.destRegion, target)
	}

	return copies, merr.ErrorOrNil()
}

func (r *Replicator) errorContext(arn string) awsx.ErrorContext {
	return awsx.ErrorContext{
		Service:   "rds",
		Region:    r.destRegion,
		Operation: "copy snapshot",
		Resource:  arn,
	}
}

// SnapshotName derives the snapshot identifier from its ARN: the final
// colon-separated segment. A string without colons is already a name and
// passes through whole.
func SnapshotName(arn string) string {
	return arn[strings.LastIndex(arn, ":")+1:]
}

// Snapshot is one DB snapshot as surfaced by queries.
type Snapshot struct {
	ID        string    `jsonapi:"primary,snapshots"`
	ARN       string    `jsonapi:"attr,arn"`
	Instance  string    `jsonapi:"attr,instance"`
	Engine    string    `jsonapi:"attr,engine"`
	Type      string    `jsonapi:"attr,type"`
	Status    string    `jsonapi:"attr,status"`
	StorageGB int       `jsonapi:"attr,storage-gb"`
	Encrypted bool      `jsonapi:"attr,encrypted"`
	Progress  int       `jsonapi:"attr,progress"`
	Created   time.Time `jsonapi:"attr,created,iso8601"`
}

// List drains the DescribeDBSnapshots pages. instance and snapType narrow
// the listing when non-empty; snapType takes the API values (automated,
// manual, shared, public, awsbackup).
func List(ctx context.Context, client API, region, instance, snapType string) ([]*Snapshot, error) {
	input := &rdsv2.DescribeDBSnapshotsInput{}
	if instance != "" {
		input.DBInstanceIdentifier = awsv2.String(instance)
	}
	if snapType != "" {
		input.SnapshotType = awsv2.String(snapType)
	}

	var snapshots []*Snapshot
	paginator := rdsv2.NewDescribeDBSnapshotsPaginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awsx.FriendlyAWS(err, awsx.ErrorContext{
				Service:   "rds",
				Region:    region,
				Operation: "describe snapshots",
			})
		}
		for _, s := range page.DBSnapshots {
			snapshots = append(snapshots, &Snapshot{
				ID:        awsv2.ToString(s.DBSnapshotIdentifier),
				ARN:       awsv2.ToString(s.DBSnapshotArn),
				Instance:  awsv2.ToString(s.DBInstanceIdentifier),
				Engine:    awsv2.ToString(s.Engine),
				Type:      awsv2.ToString(s.SnapshotType),
				Status:    awsv2.ToString(s.Status),
				StorageGB: int(awsv2.ToInt32(s.AllocatedStorage)),
				Encrypted: awsv2.ToBool(s.Encrypted),
				Progress:  int(awsv2.ToInt32(s.PercentProgress)),
				Created:   awsv2.ToTime(s.SnapshotCreateTime),
			})
		}
		log.Tracef("describe snapshots: page drained, %d snapshot(s) so far", len(snapshots))
	}

	return snapshots, nil
}
