// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"

	awsx "github.com/fleetctl/fleetctl/internal/aws"
	"github.com/fleetctl/fleetctl/internal/cacheutil"
	"github.com/fleetctl/fleetctl/internal/config"
	"github.com/fleetctl/fleetctl/internal/util"
)

// Source yields the raw bytes of a schedule document.
type Source interface {
	// Fetch returns the document body.
	Fetch(ctx context.Context) ([]byte, error)
	// Describe returns the location in a form suitable for logs and errors.
	Describe() string
}

// New resolves a parsed location into a Source. S3 locations build a client
// from the ambient AWS config; region, when set, overrides the config region,
// and the schedules_endpoint config key redirects requests to an
// S3-compatible store.
func New(ctx context.Context, location, region string) (Source, error) {
	if !util.IsS3(location) {
		return &Local{Path: location}, nil
	}

	bucket, key, err := SplitURL(location)
	if err != nil {
		return nil, err
	}

	var cfgOpts []awsx.Option
	if region != "" {
		cfgOpts = append(cfgOpts, awsx.WithRegion(region))
	}
	cfg, err := awsx.LoadAWSConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*s3v2.Options)
	endpoint, _ := config.GetString("schedules_endpoint")
	if endpoint != "" {
		resolve, err := awsx.StaticS3Endpoint(endpoint)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, resolve)
	}

	return &S3{Client: awsx.NewS3(cfg, clientOpts...), Bucket: bucket, Key: key}, nil
}

// SplitURL breaks an s3://bucket/key URL into its bucket and key parts.
func SplitURL(location string) (string, string, error) {
	rest := strings.TrimPrefix(location, "s3://")
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed S3 location %q: want s3://bucket/key", location)
	}
	return bucket, key, nil
}

// Local reads a schedule document from the filesystem.
type Local struct {
	Path string
}

func (l *Local) Fetch(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule document: %w", err)
	}
	return data, nil
}

func (l *Local) Describe() string {
	return l.Path
}

// API is the subset of the Amazon S3 surface needed to fetch documents.
type API interface {
	HeadObject(ctx context.Context, params *s3v2.HeadObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3v2.GetObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error)
}

// S3 reads a schedule document from an S3 object.
type S3 struct {
	Client API
	Bucket string
	Key    string
}

// Fetch heads the object first and serves the body from the cache when the
// ETag still matches a cached entry. Objects without an ETag are fetched
// every time.
func (s *S3) Fetch(ctx context.Context) ([]byte, error) {
	if err := PurgeCache(); err != nil {
		log.WithError(err).Warn("failed to purge cache")
	}

	head, err := s.Client.HeadObject(ctx, &s3v2.HeadObjectInput{
		Bucket: awsv2.String(s.Bucket),
		Key:    awsv2.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to head S3 object: %w", err)
	}

	var etag string
	if head.ETag != nil {
		// The API quotes ETags; strip them so cache keys stay stable.
		etag = strings.Trim(*head.ETag, `"`)
	}

	if etag != "" {
		if entry, ok := s.cacheReader(etag); ok {
			return entry.Data, nil
		}
	}

	obj, err := s.Client.GetObject(ctx, &s3v2.GetObjectInput{
		Bucket: awsv2.String(s.Bucket),
		Key:    awsv2.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get S3 object: %w", err)
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object body: %w", err)
	}

	if etag != "" {
		if err := s.cacheWriter(etag, data); err != nil {
			log.WithError(err).Error("error writing to cache")
		}
	}

	return data, nil
}

func (s *S3) Describe() string {
	return fmt.Sprintf("s3://%s/%s", s.Bucket, s.Key)
}

// cacheReader reads the cached body for the given ETag, if it exists. If the
// cache is disabled, or the entry does not exist, the second return value
// will be false.
func (s *S3) cacheReader(etag string) (*cacheutil.Entry, bool) {
	return cacheutil.Read([]string{"schedule", s.Bucket}, s.cacheKey(etag))
}

func (s *S3) cacheWriter(etag string, data []byte) error {
	return cacheutil.Write([]string{"schedule", s.Bucket}, s.cacheKey(etag), data)
}

func (s *S3) cacheKey(etag string) string {
	return s.Describe() + "@" + etag
}

// PurgeCache removes cache entries older than the configured "cache.clean"
// hours. A missing or zero setting disables cleaning.
func PurgeCache() error {
	cleanHours, _ := config.GetInt("cache.clean")
	return cacheutil.Purge(cleanHours)
}
