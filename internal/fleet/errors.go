// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"fmt"
	"strings"
	"time"
)

// ProviderError wraps a failed or malformed provider interaction. It is
// surfaced to the caller as-is; nothing in this package retries.
type ProviderError struct {
	// Op names the interaction that failed: "locate", "dispatch", "status".
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// UnsupportedActionError reports an action symbol outside the closed set.
// It is fatal for the invocation and never defaulted away.
type UnsupportedActionError struct {
	Value string
}

func (e *UnsupportedActionError) Error() string {
	if e.Value == "" {
		return "no action provided: want Start or Stop"
	}
	return fmt.Sprintf("unsupported action %q: want Start or Stop", e.Value)
}

// TimeoutError reports that convergence was not reached within the maximum
// wait. Stragglers carries the instances that did not converge; the state
// change may still complete on the provider side after this is returned.
type TimeoutError struct {
	Target     InstanceState
	After      time.Duration
	Stragglers []Handle
}

func (e *TimeoutError) Error() string {
	ids := make([]string, 0, len(e.Stragglers))
	for _, h := range e.Stragglers {
		ids = append(ids, h.ID)
	}
	return fmt.Sprintf("%d instance(s) not %s after %s: %s",
		len(e.Stragglers), e.Target, e.After, strings.Join(ids, ","))
}
