// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"context"
	"fmt"
	"net/url"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	ec2v2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	rdsv2 "github.com/aws/aws-sdk-go-v2/service/rds"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	smithyendpoints "github.com/aws/smithy-go/endpoints"

	"github.com/fleetctl/fleetctl/internal/log"
)

// options carries the overrides layered onto config loading.
type options struct {
	profile string
	region  string
	retryer func() awsv2.Retryer
}

// Option customizes config loading. With no options the SDK inherits the
// shell's setup: AWS_PROFILE, shared config and credentials files, env,
// IMDS.
type Option func(*options)

// WithProfile selects a shared config profile.
func WithProfile(profile string) Option {
	return func(o *options) { o.profile = profile }
}

// WithRegion overrides the region the default chain would pick.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithRetryer injects a retryer in place of the SDK default.
func WithRetryer(newRetryer func() awsv2.Retryer) Option {
	return func(o *options) { o.retryer = newRetryer }
}

// LoadAWSConfig loads SDK v2 config with any overrides applied. Credential
// resolution always stays with the SDK chain.
func LoadAWSConfig(ctx context.Context, opts ...Option) (awsv2.Config, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	log.Debugf("opts applied: profile=%s, region=%s", o.profile, o.region)

	var loadOpts []func(*config.LoadOptions) error
	if o.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.profile))
	}
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	if o.retryer != nil {
		loadOpts = append(loadOpts, config.WithRetryer(o.retryer))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.Debugf("config load err: err=%v", err)
		return awsv2.Config{}, err
	}

	log.Debugf("config loaded: region=%s", cfg.Region)
	return cfg, nil
}

// NewEC2 constructs the EC2 client the locate and dispatch paths run on.
func NewEC2(cfg awsv2.Config, optFns ...func(*ec2v2.Options)) *ec2v2.Client {
	log.Debugf("ec2 client created")
	return ec2v2.NewFromConfig(cfg, optFns...)
}

// NewRDS constructs the RDS client behind snapshot queries and copies.
func NewRDS(cfg awsv2.Config, optFns ...func(*rdsv2.Options)) *rdsv2.Client {
	log.Debugf("rds client created")
	return rdsv2.NewFromConfig(cfg, optFns...)
}

// NewS3 constructs the S3 client used to fetch remote schedule documents.
func NewS3(cfg awsv2.Config, optFns ...func(*s3v2.Options)) *s3v2.Client {
	log.Debugf("s3 client created")
	return s3v2.NewFromConfig(cfg, optFns...)
}

// WithS3EndpointResolver sets the S3 EndpointResolverV2 when constructing
// the client. Endpoint resolution is service-specific in SDK v2, so this
// rides on NewS3 rather than LoadAWSConfig.
func WithS3EndpointResolver(r s3v2.EndpointResolverV2) func(*s3v2.Options) {
	return func(o *s3v2.Options) {
		o.EndpointResolverV2 = r
	}
}

// StaticS3Endpoint returns a client option that pins every S3 request to the
// given base URL, bucket appended path-style. An S3-compatible store such as
// MinIO can then serve schedule documents.
func StaticS3Endpoint(raw string) (func(*s3v2.Options), error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid S3 endpoint %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid S3 endpoint %q: want scheme://host[:port]", raw)
	}
	return WithS3EndpointResolver(staticS3Resolver{base: *u}), nil
}

type staticS3Resolver struct {
	base url.URL
}

func (r staticS3Resolver) ResolveEndpoint(_ context.Context, params s3v2.EndpointParameters) (smithyendpoints.Endpoint, error) {
	u := r.base
	if params.Bucket != nil {
		u = *u.JoinPath(*params.Bucket)
	}
	return smithyendpoints.Endpoint{URI: u}, nil
}
