// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
)

// Dispatcher maps an action symbol to its batch provider call.
type Dispatcher struct {
	Provider Provider
}

// Dispatch issues exactly one state-changing batch call covering every
// handle and returns the receipt correlating the batch to the instances it
// addressed. Handles must be non-empty; the empty case is the caller's
// short-circuit, and reaching Dispatch with no handles is a programming
// error worth surfacing. An action outside the closed set fails with
// UnsupportedActionError before any provider call is made.
func (d *Dispatcher) Dispatch(ctx context.Context, action Action, handles []Handle) (Receipt, error) {
	if len(handles) == 0 {
		return Receipt{}, fmt.Errorf("dispatch %s: no instances to act on", action)
	}

	ids := IDs(handles)

	var err error
	switch action {
	case ActionStart:
		err = d.Provider.StartInstances(ctx, ids)
	case ActionStop:
		err = d.Provider.StopInstances(ctx, ids)
	default:
		return Receipt{}, &UnsupportedActionError{Value: string(action)}
	}
	if err != nil {
		return Receipt{}, &ProviderError{Op: "dispatch", Err: err}
	}

	receipt := Receipt{
		BatchID:      uuid.NewString(),
		Action:       action,
		Handles:      handles,
		DispatchedAt: time.Now(),
	}

	log.Infof("dispatched %s batch %s to %d instance(s): %s",
		action, receipt.BatchID, len(ids), strings.Join(ids, ","))

	return receipt, nil
}
