// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fleet

import "context"

// Provider abstracts the cloud API surface the executor needs. The concrete
// EC2 implementation lives in the ec2 subpackage; tests use a fake. A
// Provider is constructed per invocation and handed in explicitly; there is
// no package-level client.
type Provider interface {
	// LocateInstances returns a handle for every instance matching all tag
	// predicates, draining every result page. No match is an empty slice,
	// not an error.
	LocateInstances(ctx context.Context, filter Filter) ([]Handle, error)

	// StartInstances issues one batch start for the given identifiers.
	StartInstances(ctx context.Context, ids []string) error

	// StopInstances issues one batch stop for the given identifiers.
	StopInstances(ctx context.Context, ids []string) error

	// InstanceStates returns the current lifecycle state per identifier.
	// Identifiers absent from the result are treated as StateUnknown by the
	// caller.
	InstanceStates(ctx context.Context, ids []string) (map[string]InstanceState, error)
}
