// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package aws

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	ec2v2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	rdsv2 "github.com/aws/aws-sdk-go-v2/service/rds"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateSharedConfig points the SDK at a throwaway shared config file so
// tests never see the developer's ~/.aws setup. The file holds only region
// settings, never credentials.
func isolateSharedConfig(t *testing.T, body string) {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o600))

	t.Setenv("AWS_CONFIG_FILE", cfgPath)
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
	t.Setenv("AWS_PROFILE", "")
}

// TestWithProfile verifies that WithProfile lands in the options struct and
// touches nothing else.
func TestWithProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile string
	}{
		{
			name:    "unset",
			profile: "",
		},
		{
			name:    "shared default",
			profile: "default",
		},
		{
			name:    "named",
			profile: "fleet-ops",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o options
			WithProfile(tt.profile)(&o)
			assert.Equal(t, tt.profile, o.profile)
			assert.Empty(t, o.region)
			assert.Nil(t, o.retryer)
		})
	}
}

// TestWithRegion verifies that WithRegion lands in the options struct.
func TestWithRegion(t *testing.T) {
	tests := []struct {
		name   string
		region string
	}{
		{
			name:   "unset",
			region: "",
		},
		{
			name:   "us-east-1",
			region: "us-east-1",
		},
		{
			name:   "eu-west-1",
			region: "eu-west-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o options
			WithRegion(tt.region)(&o)
			assert.Equal(t, tt.region, o.region)
			assert.Empty(t, o.profile)
		})
	}
}

// TestWithRetryer verifies that WithRetryer stores a constructor that yields
// a usable retryer.
func TestWithRetryer(t *testing.T) {
	var o options
	WithRetryer(func() awsv2.Retryer { return retry.NewStandard() })(&o)

	require.NotNil(t, o.retryer)
	assert.NotNil(t, o.retryer())
}

// TestOptionsCompose verifies that options stack and that a later option
// overrides an earlier one for the same field.
func TestOptionsCompose(t *testing.T) {
	var o options
	for _, opt := range []Option{
		WithProfile("fleet-ops"),
		WithRegion("us-east-1"),
		WithRegion("eu-west-1"),
		WithRetryer(func() awsv2.Retryer { return retry.NewStandard() }),
	} {
		opt(&o)
	}

	assert.Equal(t, "fleet-ops", o.profile)
	assert.Equal(t, "eu-west-1", o.region)
	assert.NotNil(t, o.retryer)
}

// TestLoadAWSConfigRegionFromEnv verifies that with no explicit override the
// region falls through to the environment.
func TestLoadAWSConfigRegionFromEnv(t *testing.T) {
	isolateSharedConfig(t, "")
	t.Setenv("AWS_REGION", "us-west-2")

	cfg, err := LoadAWSConfig(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "us-west-2", cfg.Region)
}

// TestLoadAWSConfigExplicitRegion verifies that WithRegion outranks the
// environment.
func TestLoadAWSConfigExplicitRegion(t *testing.T) {
	isolateSharedConfig(t, "")
	t.Setenv("AWS_REGION", "us-east-1")

	cfg, err := LoadAWSConfig(context.Background(), WithRegion("eu-west-1"))

	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)
}

// TestLoadAWSConfigProfileRegion verifies that a profile's region flows
// through when the profile is selected, and that asking for a profile the
// shared config does not define is an error.
func TestLoadAWSConfigProfileRegion(t *testing.T) {
	isolateSharedConfig(t, "[profile fleet-ops]\nregion = eu-central-1\n")

	cfg, err := LoadAWSConfig(context.Background(), WithProfile("fleet-ops"))
	require.NoError(t, err)
	assert.Equal(t, "eu-central-1", cfg.Region)

	_, err = LoadAWSConfig(context.Background(), WithProfile("no-such-profile"))
	assert.Error(t, err)
}

// TestLoadAWSConfigDefaults verifies that loading with no options succeeds
// even when the environment supplies nothing at all. Credentials resolve
// lazily at call time, so their absence is not a load failure.
func TestLoadAWSConfigDefaults(t *testing.T) {
	isolateSharedConfig(t, "")

	cfg, err := LoadAWSConfig(context.Background())

	require.NoError(t, err)
	assert.Empty(t, cfg.Region)
}

// TestClientConstructors verifies that one loaded config can mint all three
// service clients.
func TestClientConstructors(t *testing.T) {
	isolateSharedConfig(t, "")

	cfg, err := LoadAWSConfig(context.Background(), WithRegion("us-east-1"))
	require.NoError(t, err)

	assert.IsType(t, &ec2v2.Client{}, NewEC2(cfg))
	assert.IsType(t, &rdsv2.Client{}, NewRDS(cfg))
	assert.IsType(t, &s3v2.Client{}, NewS3(cfg))
}

// TestWithS3EndpointResolver verifies that the resolver reaches the client
// options.
func TestWithS3EndpointResolver(t *testing.T) {
	var o s3v2.Options
	WithS3EndpointResolver(staticS3Resolver{})(&o)
	assert.NotNil(t, o.EndpointResolverV2)
}

// TestStaticS3Endpoint verifies endpoint parsing and that the resolver pins
// requests to the base URL with the bucket appended path-style.
func TestStaticS3Endpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		bucket   string
		want     string
		wantErr  bool
	}{
		{
			name:     "local minio",
			endpoint: "http://localhost:9000",
			bucket:   "fleet-schedules",
			want:     "http://localhost:9000/fleet-schedules",
		},
		{
			name:     "base path preserved",
			endpoint: "https://storage.example.com/s3",
			bucket:   "fleet-schedules",
			want:     "https://storage.example.com/s3/fleet-schedules",
		},
		{
			name:     "missing scheme",
			endpoint: "localhost:9000",
			wantErr:  true,
		},
		{
			name:     "empty",
			endpoint: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolve, err := StaticS3Endpoint(tt.endpoint)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			var o s3v2.Options
			resolve(&o)
			require.NotNil(t, o.EndpointResolverV2)

			ep, err := o.EndpointResolverV2.ResolveEndpoint(context.Background(), s3v2.EndpointParameters{
				Bucket: awsv2.String(tt.bucket),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ep.URI.String())
		})
	}
}
