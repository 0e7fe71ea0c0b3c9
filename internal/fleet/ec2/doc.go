// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package ec2 implements the fleet.Provider interface against the EC2 API:
// tag-filtered paginated describes, batch start/stop, and chunked state
// polls. The client is injected behind a narrow interface so tests run
// against a fake.
package ec2
