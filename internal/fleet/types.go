// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// InstanceState is the normalized lifecycle state of an instance. Provider
// state names outside the four tracked states (including anything malformed
// or missing) normalize to StateUnknown.
type InstanceState string

const (
	StatePending  InstanceState = "pending"
	StateRunning  InstanceState = "running"
	StateStopping InstanceState = "stopping"
	StateStopped  InstanceState = "stopped"
	StateUnknown  InstanceState = "unknown"
)

// NormalizeState maps a raw provider state name onto the tracked lifecycle
// states. The comparison is exact; an empty or unrecognized name is
// StateUnknown, never an error, so that a malformed describe result degrades
// to an observable state rather than a parse failure.
func NormalizeState(raw string) InstanceState {
	switch InstanceState(raw) {
	case StatePending, StateRunning, StateStopping, StateStopped:
		return InstanceState(raw)
	default:
		return StateUnknown
	}
}

// Known reports whether the state is one of the four tracked lifecycle
// states. StateUnknown is never a valid convergence target.
func (s InstanceState) Known() bool {
	return s != StateUnknown && s != ""
}

// Action is the symbolic batch operation. The set is closed; parsing is
// case-sensitive and has no default.
type Action string

const (
	ActionStart Action = "Start"
	ActionStop  Action = "Stop"
)

// ParseAction maps a raw action symbol to an Action. Anything outside the
// closed set, including the empty string and case variants, fails with
// UnsupportedActionError so that a bad trigger can never silently no-op.
func ParseAction(raw string) (Action, error) {
	switch Action(raw) {
	case ActionStart, ActionStop:
		return Action(raw), nil
	default:
		return "", &UnsupportedActionError{Value: raw}
	}
}

// TargetState returns the terminal state the action drives toward.
func (a Action) TargetState() InstanceState {
	if a == ActionStart {
		return StateRunning
	}
	return StateStopped
}

// TagPredicate is a single tag equality condition. All predicates of a
// Filter must match (logical AND) for an instance to be selected.
type TagPredicate struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Filter is an ordered set of tag predicates.
type Filter []TagPredicate

// ParseFilter builds a Filter from Key=Value specs. The key must be
// non-empty; the value may be empty (matches an empty tag value). Order is
// preserved.
func ParseFilter(specs []string) (Filter, error) {
	var f Filter
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		key, value, found := strings.Cut(spec, "=")
		if !found || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid tag predicate %q: want Key=Value", spec)
		}
		f = append(f, TagPredicate{Key: strings.TrimSpace(key), Value: value})
	}
	return f, nil
}

// String renders the filter in Key=Value,Key=Value form for log lines.
func (f Filter) String() string {
	parts := make([]string, 0, len(f))
	for _, p := range f {
		parts = append(parts, p.Key+"="+p.Value)
	}
	return strings.Join(parts, ",")
}

// Handle pairs a provider-assigned instance identifier with its last-known
// lifecycle state. Handles are built fresh by the Locator on every
// invocation and are never persisted.
type Handle struct {
	ID    string        `json:"id"`
	State InstanceState `json:"state"`
}

// IDs extracts the identifier list from a set of handles, preserving order.
func IDs(handles []Handle) []string {
	ids := make([]string, 0, len(handles))
	for _, h := range handles {
		ids = append(ids, h.ID)
	}
	return ids
}

// SortHandles orders handles by ID so downstream log lines and reports are
// deterministic regardless of provider page order.
func SortHandles(handles []Handle) {
	sort.Slice(handles, func(i, j int) bool { return handles[i].ID < handles[j].ID })
}

// Receipt correlates one dispatched batch to the instances it addressed.
// The Waiter consumes it; callers keep it for reporting.
type Receipt struct {
	BatchID      string    `json:"batchId"`
	Action       Action    `json:"action"`
	Handles      []Handle  `json:"handles"`
	DispatchedAt time.Time `json:"dispatchedAt"`
}

// IDs returns the identifiers the batch addressed, in dispatch order.
func (r Receipt) IDs() []string {
	return IDs(r.Handles)
}

// Wait timing defaults mirror the provider-side waiter the executor
// replaces: a 15 second poll for up to 40 attempts.
const (
	DefaultPollInterval = 15 * time.Second
	DefaultMaxWait      = 10 * time.Minute
)

// WaitSpec bounds one convergence wait. It exists only for the duration of
// a single Wait call.
type WaitSpec struct {
	// Target is the state every instance must reach. Zero means "derive
	// from the receipt's action".
	Target InstanceState
	// PollInterval is the pause between poll cycles. Zero means
	// DefaultPollInterval.
	PollInterval time.Duration
	// MaxWait caps the total wait. Zero means DefaultMaxWait.
	MaxWait time.Duration
}

func (ws WaitSpec) withDefaults(action Action) WaitSpec {
	if ws.Target == "" {
		ws.Target = action.TargetState()
	}
	if ws.PollInterval <= 0 {
		ws.PollInterval = DefaultPollInterval
	}
	if ws.MaxWait <= 0 {
		ws.MaxWait = DefaultMaxWait
	}
	return ws
}

// WaitOutcome classifies how a wait ended.
type WaitOutcome string

const (
	// OutcomeReached means every instance in the batch reached the target.
	OutcomeReached WaitOutcome = "reached"
	// OutcomeTimedOut means the maximum wait elapsed with stragglers left.
	OutcomeTimedOut WaitOutcome = "timed-out"
	// OutcomeProviderError means a status call failed or an instance
	// reported an unknown state, so convergence cannot be judged.
	OutcomeProviderError WaitOutcome = "provider-error"
)

// WaitResult reports the end of a wait. Stragglers carries exactly the
// instances that had not converged when the wait ended; on OutcomeReached it
// is empty.
type WaitResult struct {
	Outcome    WaitOutcome   `json:"outcome"`
	Target     InstanceState `json:"target"`
	Converged  []Handle      `json:"converged"`
	Stragglers []Handle      `json:"stragglers"`
	Polls      int           `json:"polls"`
	Elapsed    time.Duration `json:"elapsed"`
}
