// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 implements API with a mutable object body and ETag so tests can
// simulate the document changing between fetches.
type fakeS3 struct {
	mu     sync.Mutex
	etag   string
	noETag bool
	body   []byte

	headErr error
	getErr  error

	headCalls  int
	getCalls   int
	lastBucket string
	lastKey    string
}

func (f *fakeS3) HeadObject(_ context.Context, params *s3v2.HeadObjectInput, _ ...func(*s3v2.Options)) (*s3v2.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.headCalls++
	f.lastBucket = awsv2.ToString(params.Bucket)
	f.lastKey = awsv2.ToString(params.Key)

	if f.headErr != nil {
		return nil, f.headErr
	}

	out := &s3v2.HeadObjectOutput{}
	if !f.noETag {
		out.ETag = awsv2.String(`"` + f.etag + `"`)
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, params *s3v2.GetObjectInput, _ ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getCalls++
	f.lastBucket = awsv2.ToString(params.Bucket)
	f.lastKey = awsv2.ToString(params.Key)

	if f.getErr != nil {
		return nil, f.getErr
	}

	return &s3v2.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(f.body)),
	}, nil
}

// TestSplitURL verifies that s3:// locations break into bucket and key and
// that malformed locations are rejected.
func TestSplitURL(t *testing.T) {
	tests := []struct {
		name       string
		location   string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{
			name:       "bucket and key",
			location:   "s3://fleet-docs/schedules.hcl",
			wantBucket: "fleet-docs",
			wantKey:    "schedules.hcl",
		},
		{
			name:       "nested key",
			location:   "s3://fleet-docs/teams/platform/schedules.hcl",
			wantBucket: "fleet-docs",
			wantKey:    "teams/platform/schedules.hcl",
		},
		{
			name:     "missing key",
			location: "s3://fleet-docs",
			wantErr:  true,
		},
		{
			name:     "trailing slash only",
			location: "s3://fleet-docs/",
			wantErr:  true,
		},
		{
			name:     "missing bucket",
			location: "s3:///schedules.hcl",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, err := SplitURL(tt.location)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

// TestLocalFetch verifies that a Local source returns file contents unchanged
// and surfaces read failures.
func TestLocalFetch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedules.hcl")
	want := []byte("schedule \"office-hours\" {}\n")
	require.NoError(t, os.WriteFile(path, want, 0o600))

	src := &Local{Path: path}
	got, err := src.Fetch(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, path, src.Describe())

	missing := &Local{Path: filepath.Join(dir, "nope.hcl")}
	_, err = missing.Fetch(context.Background())
	assert.Error(t, err)
}

// TestS3FetchCachesByETag verifies that a repeat fetch with an unchanged ETag
// is served from the cache and a changed ETag forces a fresh GetObject.
func TestS3FetchCachesByETag(t *testing.T) {
	t.Setenv("FLEETCTL_CACHE_DIR", t.TempDir())

	fake := &fakeS3{etag: "etag-1", body: []byte("rev-1")}
	src := &S3{Client: fake, Bucket: "fleet-docs", Key: "schedules.hcl"}

	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("rev-1"), got)
	assert.Equal(t, 1, fake.headCalls)
	assert.Equal(t, 1, fake.getCalls)
	assert.Equal(t, "fleet-docs", fake.lastBucket)
	assert.Equal(t, "schedules.hcl", fake.lastKey)

	// Same ETag: served from cache, no second GetObject.
	got, err = src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("rev-1"), got)
	assert.Equal(t, 2, fake.headCalls)
	assert.Equal(t, 1, fake.getCalls)

	// Object changed: new ETag misses the cache.
	fake.mu.Lock()
	fake.etag = "etag-2"
	fake.body = []byte("rev-2")
	fake.mu.Unlock()

	got, err = src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("rev-2"), got)
	assert.Equal(t, 2, fake.getCalls)
}

// TestS3FetchNoETag verifies that objects without an ETag bypass the cache on
// every fetch.
func TestS3FetchNoETag(t *testing.T) {
	t.Setenv("FLEETCTL_CACHE_DIR", t.TempDir())

	fake := &fakeS3{noETag: true, body: []byte("uncacheable")}
	src := &S3{Client: fake, Bucket: "fleet-docs", Key: "schedules.hcl"}

	for i := 1; i <= 2; i++ {
		got, err := src.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []byte("uncacheable"), got)
		assert.Equal(t, i, fake.getCalls)
	}
}

// TestS3FetchHeadFailure verifies that a HeadObject failure surfaces without
// attempting a GetObject.
func TestS3FetchHeadFailure(t *testing.T) {
	t.Setenv("FLEETCTL_CACHE_DIR", t.TempDir())

	fake := &fakeS3{headErr: errors.New("access denied")}
	src := &S3{Client: fake, Bucket: "fleet-docs", Key: "schedules.hcl"}

	_, err := src.Fetch(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to head S3 object")
	assert.Equal(t, 0, fake.getCalls)
}

// TestS3FetchGetFailure verifies that a GetObject failure surfaces to the
// caller.
func TestS3FetchGetFailure(t *testing.T) {
	t.Setenv("FLEETCTL_CACHE_DIR", t.TempDir())

	fake := &fakeS3{etag: "etag-1", getErr: errors.New("no such key")}
	src := &S3{Client: fake, Bucket: "fleet-docs", Key: "schedules.hcl"}

	_, err := src.Fetch(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get S3 object")
}

// TestNew verifies source resolution for local paths and malformed S3
// locations.
func TestNew(t *testing.T) {
	src, err := New(context.Background(), "/tmp/schedules.hcl", "")
	assert.NoError(t, err)
	local, ok := src.(*Local)
	assert.True(t, ok)
	assert.Equal(t, "/tmp/schedules.hcl", local.Path)

	_, err = New(context.Background(), "s3://bucket-only", "")
	assert.Error(t, err)
}
