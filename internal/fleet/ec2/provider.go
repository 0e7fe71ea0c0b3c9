// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package ec2

import (
	"context"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	ec2v2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	awsx "github.com/fleetctl/fleetctl/internal/aws"
	"github.com/fleetctl/fleetctl/internal/fleet"
	"github.com/fleetctl/fleetctl/internal/log"
)

// statusChunkSize caps the identifiers per describe call when polling
// states, so very large fleets split across parallel calls instead of one
// oversized request.
const statusChunkSize = 100

// API is the slice of the EC2 client the provider uses. *ec2v2.Client
// satisfies it; tests substitute a fake.
type API interface {
	ec2v2.DescribeInstancesAPIClient
	StartInstances(ctx context.Context, params *ec2v2.StartInstancesInput, optFns ...func(*ec2v2.Options)) (*ec2v2.StartInstancesOutput, error)
	StopInstances(ctx context.Context, params *ec2v2.StopInstancesInput, optFns ...func(*ec2v2.Options)) (*ec2v2.StopInstancesOutput, error)
}

// Provider implements fleet.Provider against EC2.
type Provider struct {
	client API
	region string
}

// New returns a Provider bound to the given client. The region is carried
// for error context only; the client itself is already region-scoped.
func New(client API, region string) *Provider {
	return &Provider{client: client, region: region}
}

// LocateInstances returns a handle for every instance matching all tag
// predicates, draining every describe page before returning.
func (p *Provider) LocateInstances(ctx context.Context, filter fleet.Filter) ([]fleet.Handle, error) {
	input := &ec2v2.DescribeInstancesInput{
		Filters: TagFilters(filter),
	}
	return p.describe(ctx, input, "describe instances")
}

// StartInstances issues one batch start covering every identifier.
func (p *Provider) StartInstances(ctx context.Context, ids []string) error {
	out, err := p.client.StartInstances(ctx, &ec2v2.StartInstancesInput{
		InstanceIds: ids,
	})
	if err != nil {
		return awsx.FriendlyAWS(err, p.errorContext("start instances"))
	}
	logStateChanges("start", out.StartingInstances)
	return nil
}

// StopInstances issues one batch stop covering every identifier.
func (p *Provider) StopInstances(ctx context.Context, ids []string) error {
	out, err := p.client.StopInstances(ctx, &ec2v2.StopInstancesInput{
		InstanceIds: ids,
	})
	if err != nil {
		return awsx.FriendlyAWS(err, p.errorContext("stop instances"))
	}
	logStateChanges("stop", out.StoppingInstances)
	return nil
}

// InstanceStates returns the current lifecycle state per identifier. Large
// identifier sets split into chunks described in parallel; every chunk is
// attempted even when one fails, and the failures are aggregated so a poll
// cycle reports everything that went wrong at once.
func (p *Provider) InstanceStates(ctx context.Context, ids []string) (map[string]fleet.InstanceState, error) {
	chunks := chunk(ids, statusChunkSize)

	results := make([][]fleet.Handle, len(chunks))
	failures := make([]error, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i := range chunks {
		g.Go(func() error {
			input := &ec2v2.DescribeInstancesInput{
				InstanceIds: chunks[i],
			}
			results[i], failures[i] = p.describe(gctx, input, "describe instance states")
			return nil
		})
	}
	_ = g.Wait()

	var merr *multierror.Error
	for _, err := range failures {
		merr = multierror.Append(merr, err)
	}
	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}

	states := make(map[string]fleet.InstanceState, len(ids))
	for _, handles := range results {
		for _, h := range handles {
			states[h.ID] = h.State
		}
	}
	return states, nil
}

// describe drains every page of one DescribeInstances call and flattens the
// reservation nesting into handles.
func (p *Provider) describe(ctx context.Context, input *ec2v2.DescribeInstancesInput, op string) ([]fleet.Handle, error) {
	var handles []fleet.Handle

	paginator := ec2v2.NewDescribeInstancesPaginator(p.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awsx.FriendlyAWS(err, p.errorContext(op))
		}
		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				handles = append(handles, fleet.Handle{
					ID:    awsv2.ToString(instance.InstanceId),
					State: instanceState(instance),
				})
			}
		}
		log.Tracef("%s: page drained, %d handle(s) so far", op, len(handles))
	}

	return handles, nil
}

func (p *Provider) errorContext(op string) awsx.ErrorContext {
	return awsx.ErrorContext{
		Service:   "ec2",
		Region:    p.region,
		Operation: op,
	}
}

// TagFilters maps tag predicates onto the describe filter form, one
// tag:<Key> filter per predicate so the API applies the same AND semantics
// the filter promises.
func TagFilters(filter fleet.Filter) []types.Filter {
	fs := make([]types.Filter, 0, len(filter))
	for _, p := range filter {
		fs = append(fs, types.Filter{
			Name:   awsv2.String("tag:" + p.Key),
			Values: []string{p.Value},
		})
	}
	return fs
}

// instanceState normalizes the raw API state name. A missing state block or
// a name outside the tracked set (terminated, shutting-down) reads as
// unknown rather than an error.
func instanceState(instance types.Instance) fleet.InstanceState {
	if instance.State == nil {
		return fleet.StateUnknown
	}
	return fleet.NormalizeState(string(instance.State.Name))
}

func logStateChanges(op string, changes []types.InstanceStateChange) {
	for _, change := range changes {
		log.Debugf("%s %s: %s -> %s", op,
			awsv2.ToString(change.InstanceId),
			stateChangeName(change.PreviousState),
			stateChangeName(change.CurrentState))
	}
}

func stateChangeName(state *types.InstanceState) string {
	if state == nil {
		return "?"
	}
	return string(state.Name)
}

// chunk splits ids into runs of at most size, preserving order.
func chunk(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	var chunks [][]string
	for size < len(ids) {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	return append(chunks, ids)
}
