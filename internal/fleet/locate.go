// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"context"
	"fmt"
	"strings"

	"github.com/apex/log"
)

// Locator resolves tag predicates to instance handles.
type Locator struct {
	Provider Provider
}

// Locate returns every instance matching all predicates of the filter. An
// empty result is a valid terminal case for the invocation, not an error;
// callers short-circuit before dispatching. A provider failure is wrapped as
// ProviderError and surfaced without retry.
func (l *Locator) Locate(ctx context.Context, filter Filter) ([]Handle, error) {
	if len(filter) == 0 {
		return nil, fmt.Errorf("refusing to locate with an empty tag filter")
	}

	handles, err := l.Provider.LocateInstances(ctx, filter)
	if err != nil {
		return nil, &ProviderError{Op: "locate", Err: err}
	}

	SortHandles(handles)

	if len(handles) == 0 {
		log.Infof("no instances matched %s", filter)
		return nil, nil
	}

	log.Infof("located %d instance(s) matching %s: %s",
		len(handles), filter, strings.Join(IDs(handles), ","))

	return handles, nil
}
