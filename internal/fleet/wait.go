// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
)

// Waiter polls a dispatched batch until every instance converges on the
// target lifecycle state.
type Waiter struct {
	Provider Provider
}

// Wait polls the receipt's instances until one of three outcomes: every
// instance reaches the target state, the maximum wait elapses with
// stragglers left, or the provider fails. The first poll happens
// immediately, so a batch that is already converged returns without
// sleeping. On timeout the result and TimeoutError carry exactly the
// instances that had not converged at the last observation. An instance
// observed in an unknown state ends the wait with ProviderError;
// convergence cannot be judged from a state outside the tracked set.
//
// If ctx is cancelled the wait ends immediately with the context error and
// no outcome is recorded.
func (w *Waiter) Wait(ctx context.Context, receipt Receipt, spec WaitSpec) (WaitResult, error) {
	spec = spec.withDefaults(receipt.Action)

	result := WaitResult{
		Target:     spec.Target,
		Stragglers: receipt.Handles,
	}

	start := time.Now()
	deadline := time.NewTimer(spec.MaxWait)
	defer deadline.Stop()
	tick := time.NewTicker(spec.PollInterval)
	defer tick.Stop()

	for {
		states, err := w.Provider.InstanceStates(ctx, receipt.IDs())
		if err != nil {
			result.Outcome = OutcomeProviderError
			result.Elapsed = time.Since(start)
			return result, &ProviderError{Op: "status", Err: err}
		}
		result.Polls++

		var unknown []Handle
		result.Converged, result.Stragglers, unknown = partition(receipt.Handles, states, spec.Target)

		if len(unknown) > 0 {
			result.Outcome = OutcomeProviderError
			result.Elapsed = time.Since(start)
			return result, &ProviderError{
				Op:  "status",
				Err: fmt.Errorf("unknown state reported for %s", strings.Join(IDs(unknown), ",")),
			}
		}

		if len(result.Stragglers) == 0 {
			result.Outcome = OutcomeReached
			result.Elapsed = time.Since(start)
			log.Infof("batch %s: all %d instance(s) %s after %s (%d polls)",
				receipt.BatchID, len(result.Converged), spec.Target,
				result.Elapsed.Round(time.Millisecond), result.Polls)
			return result, nil
		}

		log.Debugf("batch %s: %d of %d instance(s) not yet %s: %s",
			receipt.BatchID, len(result.Stragglers), len(receipt.Handles),
			spec.Target, strings.Join(IDs(result.Stragglers), ","))

		select {
		case <-ctx.Done():
			result.Elapsed = time.Since(start)
			return result, ctx.Err()
		case <-deadline.C:
			result.Outcome = OutcomeTimedOut
			result.Elapsed = time.Since(start)
			log.Warnf("batch %s: %d instance(s) not %s after %s: %s",
				receipt.BatchID, len(result.Stragglers), spec.Target, spec.MaxWait,
				strings.Join(IDs(result.Stragglers), ","))
			return result, &TimeoutError{
				Target:     spec.Target,
				After:      spec.MaxWait,
				Stragglers: result.Stragglers,
			}
		case <-tick.C:
		}
	}
}

// partition splits handles by observed state: at target, not yet at target,
// and unknown. Identifiers missing from the states map count as unknown.
// Each returned handle carries its freshly observed state.
func partition(handles []Handle, states map[string]InstanceState, target InstanceState) (converged, stragglers, unknown []Handle) {
	for _, h := range handles {
		state, ok := states[h.ID]
		if !ok {
			state = StateUnknown
		}
		observed := Handle{ID: h.ID, State: state}
		switch {
		case state == StateUnknown:
			unknown = append(unknown, observed)
			stragglers = append(stragglers, observed)
		case state == target:
			converged = append(converged, observed)
		default:
			stragglers = append(stragglers, observed)
		}
	}
	return converged, stragglers, unknown
}
