// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package replicate

import (
	"context"
	"errors"
	"testing"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	rdsv2 "github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI satisfies API in-memory. CopyDBSnapshot records its inputs and
// fails for ARNs listed in failARNs; DescribeDBSnapshots replays pages in
// call order.
type fakeAPI struct {
	copyInputs []*rdsv2.CopyDBSnapshotInput
	failARNs   map[string]error

	pages          []*rdsv2.DescribeDBSnapshotsOutput
	describeInputs []*rdsv2.DescribeDBSnapshotsInput
	describeErr    error
}

func (f *fakeAPI) CopyDBSnapshot(_ context.Context, params *rdsv2.CopyDBSnapshotInput, _ ...func(*rdsv2.Options)) (*rdsv2.CopyDBSnapshotOutput, error) {
	f.copyInputs = append(f.copyInputs, params)
	if err, ok := f.failARNs[awsv2.ToString(params.SourceDBSnapshotIdentifier)]; ok {
		return nil, err
	}
	return &rdsv2.CopyDBSnapshotOutput{
		DBSnapshot: &types.DBSnapshot{
			DBSnapshotIdentifier: params.TargetDBSnapshotIdentifier,
			Status:               awsv2.String("creating"),
		},
	}, nil
}

func (f *fakeAPI) DescribeDBSnapshots(_ context.Context, params *rdsv2.DescribeDBSnapshotsInput, _ ...func(*rdsv2.Options)) (*rdsv2.DescribeDBSnapshotsOutput, error) {
	f.describeInputs = append(f.describeInputs, params)
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	i := len(f.describeInputs) - 1
	if i >= len(f.pages) {
		return &rdsv2.DescribeDBSnapshotsOutput{}, nil
	}
	return f.pages[i], nil
}

// TestSnapshotName verifies that the name is the final colon-separated ARN
// segment.
func TestSnapshotName(t *testing.T) {
	tests := []struct {
		name string
		arn  string
		want string
	}{
		{
			name: "full ARN",
			arn:  "arn:aws:rds:us-east-1:123456789012:snapshot:nightly-2026-08-24",
			want: "nightly-2026-08-24",
		},
		{
			name: "bare name passes through",
			arn:  "nightly-2026-08-24",
			want: "nightly-2026-08-24",
		},
		{
			name: "trailing colon",
			arn:  "arn:aws:rds:us-east-1:123456789012:snapshot:",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SnapshotName(tt.arn))
		})
	}
}

// TestReplicate verifies one copy call per ARN with the target name, the
// source_region tag, and the presign region derived from the source.
func TestReplicate(t *testing.T) {
	api := &fakeAPI{}
	r := New(api, "us-east-1", "us-west-2", "arn:aws:kms:us-west-2:123456789012:key/abc")

	arns := []string{
		"arn:aws:rds:us-east-1:123456789012:snapshot:nightly-a",
		"arn:aws:rds:us-east-1:123456789012:snapshot:nightly-b",
	}

	copies, err := r.Replicate(context.Background(), arns)
	require.NoError(t, err)
	require.Len(t, copies, 2)
	require.Len(t, api.copyInputs, 2)

	first := api.copyInputs[0]
	assert.Equal(t, arns[0], awsv2.ToString(first.SourceDBSnapshotIdentifier))
	assert.Equal(t, "copy-nightly-a", awsv2.ToString(first.TargetDBSnapshotIdentifier))
	assert.Equal(t, "us-east-1", awsv2.ToString(first.SourceRegion))
	assert.Equal(t, "arn:aws:kms:us-west-2:123456789012:key/abc", awsv2.ToString(first.KmsKeyId))
	require.Len(t, first.Tags, 1)
	assert.Equal(t, "source_region", awsv2.ToString(first.Tags[0].Key))
	assert.Equal(t, "us-east-1", awsv2.ToString(first.Tags[0].Value))

	assert.Equal(t, "copy-nightly-b", copies[1].Target)
	assert.Equal(t, "creating", copies[1].Status)
}

// TestReplicateWithoutKMSKey verifies that an empty key ID leaves KmsKeyId
// unset instead of sending an empty string.
func TestReplicateWithoutKMSKey(t *testing.T) {
	api := &fakeAPI{}
	r := New(api, "us-east-1", "us-west-2", "")

	_, err := r.Replicate(context.Background(), []string{
		"arn:aws:rds:us-east-1:123456789012:snapshot:nightly-a",
	})
	require.NoError(t, err)
	require.Len(t, api.copyInputs, 1)
	assert.Nil(t, api.copyInputs[0].KmsKeyId)
}

// TestReplicateAggregatesFailures verifies that one bad copy does not stop
// the rest and that every failure lands in the returned error.
func TestReplicateAggregatesFailures(t *testing.T) {
	badARN := "arn:aws:rds:us-east-1:123456789012:snapshot:corrupt"
	api := &fakeAPI{
		failARNs: map[string]error{badARN: errors.New("snapshot busy")},
	}
	r := New(api, "us-east-1", "us-west-2", "")

	copies, err := r.Replicate(context.Background(), []string{
		badARN,
		"arn:aws:rds:us-east-1:123456789012:snapshot:nightly-a",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), badARN)
	require.Len(t, copies, 1)
	assert.Equal(t, "copy-nightly-a", copies[0].Target)
	assert.Len(t, api.copyInputs, 2)
}

// TestReplicateMalformedARN verifies that an ARN with no name never reaches
// the API.
func TestReplicateMalformedARN(t *testing.T) {
	api := &fakeAPI{}
	r := New(api, "us-east-1", "us-west-2", "")

	_, err := r.Replicate(context.Background(), []string{
		"arn:aws:rds:us-east-1:123456789012:snapshot:",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "malformed snapshot ARN")
	assert.Empty(t, api.copyInputs)
}

// TestReplicateNoARNs verifies the empty input refusal.
func TestReplicateNoARNs(t *testing.T) {
	r := New(&fakeAPI{}, "us-east-1", "us-west-2", "")
	_, err := r.Replicate(context.Background(), nil)
	assert.Error(t, err)
}

func snapshot(id, instance string, created time.Time) types.DBSnapshot {
	return types.DBSnapshot{
		DBSnapshotIdentifier: awsv2.String(id),
		DBSnapshotArn:        awsv2.String("arn:aws:rds:us-east-1:123456789012:snapshot:" + id),
		DBInstanceIdentifier: awsv2.String(instance),
		Engine:               awsv2.String("postgres"),
		SnapshotType:         awsv2.String("manual"),
		Status:               awsv2.String("available"),
		AllocatedStorage:     awsv2.Int32(100),
		Encrypted:            awsv2.Bool(true),
		PercentProgress:      awsv2.Int32(100),
		SnapshotCreateTime:   awsv2.Time(created),
	}
}

// TestListDrainsPages verifies that every describe page is consumed and the
// narrowing parameters pass through.
func TestListDrainsPages(t *testing.T) {
	created := time.Date(2026, 8, 24, 3, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		pages: []*rdsv2.DescribeDBSnapshotsOutput{
			{
				DBSnapshots: []types.DBSnapshot{
					snapshot("nightly-a", "orders-db", created),
				},
				Marker: awsv2.String("page-2"),
			},
			{
				DBSnapshots: []types.DBSnapshot{
					snapshot("nightly-b", "orders-db", created.Add(24*time.Hour)),
				},
			},
		},
	}

	snaps, err := List(context.Background(), api, "us-east-1", "orders-db", "manual")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	require.Len(t, api.describeInputs, 2)

	assert.Equal(t, "orders-db", awsv2.ToString(api.describeInputs[0].DBInstanceIdentifier))
	assert.Equal(t, "manual", awsv2.ToString(api.describeInputs[0].SnapshotType))

	assert.Equal(t, "nightly-a", snaps[0].ID)
	assert.Equal(t, "arn:aws:rds:us-east-1:123456789012:snapshot:nightly-a", snaps[0].ARN)
	assert.Equal(t, "orders-db", snaps[0].Instance)
	assert.Equal(t, "postgres", snaps[0].Engine)
	assert.Equal(t, 100, snaps[0].StorageGB)
	assert.True(t, snaps[0].Encrypted)
	assert.True(t, created.Equal(snaps[0].Created))
}

// TestListUnfiltered verifies that empty narrowing values stay off the
// request.
func TestListUnfiltered(t *testing.T) {
	api := &fakeAPI{}
	_, err := List(context.Background(), api, "us-east-1", "", "")
	require.NoError(t, err)
	require.Len(t, api.describeInputs, 1)
	assert.Nil(t, api.describeInputs[0].DBInstanceIdentifier)
	assert.Nil(t, api.describeInputs[0].SnapshotType)
}

// TestListFailure verifies that a describe failure surfaces with region
// context.
func TestListFailure(t *testing.T) {
	api := &fakeAPI{describeErr: errors.New("throttled")}
	_, err := List(context.Background(), api, "us-east-1", "", "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}
