// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package fleet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stopReceipt(ids ...string) Receipt {
	handles := make([]Handle, 0, len(ids))
	for _, id := range ids {
		handles = append(handles, Handle{ID: id, State: StateRunning})
	}
	return Receipt{
		BatchID:      "batch-test",
		Action:       ActionStop,
		Handles:      handles,
		DispatchedAt: time.Now(),
	}
}

// TestWaitAlreadyConverged verifies that a batch whose instances are all at
// the target state reports Reached on the very first poll, without waiting
// out a poll interval. Re-running an action against an already converged
// fleet must cost one status call, not a sleep.
func TestWaitAlreadyConverged(t *testing.T) {
	provider := &fakeProvider{
		polls: []map[string]InstanceState{
			{"i-1": StateStopped, "i-2": StateStopped},
		},
	}
	w := &Waiter{Provider: provider}

	spec := WaitSpec{PollInterval: time.Hour, MaxWait: 2 * time.Hour}
	start := time.Now()
	result, err := w.Wait(context.Background(), stopReceipt("i-1", "i-2"), spec)
	require.NoError(t, err)

	assert.Equal(t, OutcomeReached, result.Outcome)
	assert.Equal(t, 1, result.Polls)
	assert.Equal(t, 1, provider.statusCalls)
	assert.Empty(t, result.Stragglers)
	assert.Less(t, time.Since(start), time.Second)
}

// TestWaitConvergesAfterPolls verifies that a batch converging over several
// polls ends Reached with every handle carrying its final observed state.
func TestWaitConvergesAfterPolls(t *testing.T) {
	provider := &fakeProvider{
		polls: []map[string]InstanceState{
			{"i-1": StateStopping, "i-2": StateStopping},
			{"i-1": StateStopped, "i-2": StateStopping},
			{"i-1": StateStopped, "i-2": StateStopped},
		},
	}
	w := &Waiter{Provider: provider}

	result, err := w.Wait(context.Background(), stopReceipt("i-1", "i-2"), fastWait())
	require.NoError(t, err)

	assert.Equal(t, OutcomeReached, result.Outcome)
	assert.Equal(t, 3, result.Polls)
	require.Len(t, result.Converged, 2)
	for _, h := range result.Converged {
		assert.Equal(t, StateStopped, h.State)
	}
}

// TestWaitPartialConvergenceStragglers verifies the timeout contract: when
// two of three instances converge and one never does, the result carries
// exactly the one straggler, not the full batch and not an empty set.
func TestWaitPartialConvergenceStragglers(t *testing.T) {
	provider := &fakeProvider{
		polls: []map[string]InstanceState{
			{"i-a": StateStopped, "i-b": StateStopped, "i-c": StateStopping},
		},
	}
	w := &Waiter{Provider: provider}

	result, err := w.Wait(context.Background(), stopReceipt("i-a", "i-b", "i-c"), fastWait())
	require.Error(t, err)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StateStopped, te.Target)
	assert.Equal(t, []string{"i-c"}, IDs(te.Stragglers))

	assert.Equal(t, OutcomeTimedOut, result.Outcome)
	assert.Equal(t, []string{"i-c"}, IDs(result.Stragglers))
	assert.Equal(t, []string{"i-a", "i-b"}, IDs(result.Converged))
	assert.GreaterOrEqual(t, result.Polls, 1)
}

// TestWaitUnknownStateIsProviderError verifies that an instance observed in
// an unrecognized state, or missing from the status result entirely, ends
// the wait as a provider error rather than waiting out the clock.
func TestWaitUnknownStateIsProviderError(t *testing.T) {
	tests := []struct {
		name  string
		polls []map[string]InstanceState
	}{
		{
			name: "unknown state value",
			polls: []map[string]InstanceState{
				{"i-1": StateStopped, "i-2": StateUnknown},
			},
		},
		{
			name: "missing from status result",
			polls: []map[string]InstanceState{
				{"i-1": StateStopped},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{polls: tt.polls}
			w := &Waiter{Provider: provider}

			result, err := w.Wait(context.Background(), stopReceipt("i-1", "i-2"), fastWait())
			require.Error(t, err)

			var pe *ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "status", pe.Op)
			assert.Equal(t, OutcomeProviderError, result.Outcome)
			assert.Equal(t, 1, result.Polls)
		})
	}
}

// TestWaitStatusCallFailure verifies that a failed status call surfaces
// immediately as ProviderError with the cause preserved.
func TestWaitStatusCallFailure(t *testing.T) {
	cause := errors.New("describe failed")
	provider := &fakeProvider{statusErr: cause}
	w := &Waiter{Provider: provider}

	result, err := w.Wait(context.Background(), stopReceipt("i-1"), fastWait())
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, OutcomeProviderError, result.Outcome)
	assert.Equal(t, 0, result.Polls)
}

// TestWaitCancellation verifies that cancelling the context ends the wait
// with the context error instead of running out the maximum wait.
func TestWaitCancellation(t *testing.T) {
	provider := &fakeProvider{
		polls: []map[string]InstanceState{
			{"i-1": StateStopping},
		},
	}
	w := &Waiter{Provider: provider}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	spec := WaitSpec{PollInterval: time.Hour, MaxWait: 2 * time.Hour}
	_, err := w.Wait(ctx, stopReceipt("i-1"), spec)
	require.ErrorIs(t, err, context.Canceled)
}

// TestWaitSpecDefaults verifies the zero-value spec picks up the target
// from the action and the stock poll timings.
func TestWaitSpecDefaults(t *testing.T) {
	spec := WaitSpec{}.withDefaults(ActionStart)
	assert.Equal(t, StateRunning, spec.Target)
	assert.Equal(t, DefaultPollInterval, spec.PollInterval)
	assert.Equal(t, DefaultMaxWait, spec.MaxWait)

	spec = WaitSpec{Target: StateStopped, PollInterval: time.Second, MaxWait: time.Minute}.withDefaults(ActionStart)
	assert.Equal(t, StateStopped, spec.Target)
	assert.Equal(t, time.Second, spec.PollInterval)
	assert.Equal(t, time.Minute, spec.MaxWait)
}
