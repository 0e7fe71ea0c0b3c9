// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package ec2

import (
	"context"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	ec2v2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	awsx "github.com/fleetctl/fleetctl/internal/aws"
	"github.com/fleetctl/fleetctl/internal/log"
)

// Instance is the row shape instance queries render. It carries more than
// the lean handle the executor works with: placement, addresses, launch
// time and the full tag map.
type Instance struct {
	ID        string            `jsonapi:"primary,instances"`
	State     string            `jsonapi:"attr,state"`
	Type      string            `jsonapi:"attr,type"`
	AZ        string            `jsonapi:"attr,az"`
	Launched  time.Time         `jsonapi:"attr,launched,iso8601"`
	PrivateIP string            `jsonapi:"attr,private-ip"`
	PublicIP  string            `jsonapi:"attr,public-ip"`
	Owner     string            `jsonapi:"attr,owner"`
	Tags      map[string]string `jsonapi:"attr,tags"`
}

// Query drains every describe page for the given input and maps each
// instance to a full row.
func Query(ctx context.Context, client ec2v2.DescribeInstancesAPIClient, region string, input *ec2v2.DescribeInstancesInput) ([]*Instance, error) {
	var rows []*Instance

	paginator := ec2v2.NewDescribeInstancesPaginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awsx.FriendlyAWS(err, awsx.ErrorContext{
				Service:   "ec2",
				Region:    region,
				Operation: "describe instances",
			})
		}
		for _, reservation := range page.Reservations {
			owner := awsv2.ToString(reservation.OwnerId)
			for _, instance := range reservation.Instances {
				rows = append(rows, instanceRow(instance, owner))
			}
		}
		log.Tracef("query: page drained, %d row(s) so far", len(rows))
	}

	return rows, nil
}

func instanceRow(instance types.Instance, owner string) *Instance {
	row := &Instance{
		ID:        awsv2.ToString(instance.InstanceId),
		State:     string(instanceState(instance)),
		Type:      string(instance.InstanceType),
		Launched:  awsv2.ToTime(instance.LaunchTime),
		PrivateIP: awsv2.ToString(instance.PrivateIpAddress),
		PublicIP:  awsv2.ToString(instance.PublicIpAddress),
		Owner:     owner,
		Tags:      TagMap(instance.Tags),
	}
	if instance.Placement != nil {
		row.AZ = awsv2.ToString(instance.Placement.AvailabilityZone)
	}
	return row
}

// TagMap folds the API tag list into a plain map.
func TagMap(tags []types.Tag) map[string]string {
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		m[awsv2.ToString(t.Key)] = awsv2.ToString(t.Value)
	}
	return m
}
