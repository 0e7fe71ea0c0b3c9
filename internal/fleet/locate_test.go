// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package fleet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLocateSortsHandles verifies that handles come back ordered by ID
// regardless of provider page order.
func TestLocateSortsHandles(t *testing.T) {
	provider := &fakeProvider{
		handles: []Handle{
			{ID: "i-9", State: StateRunning},
			{ID: "i-1", State: StateRunning},
			{ID: "i-5", State: StateStopped},
		},
	}
	l := &Locator{Provider: provider}

	handles, err := l.Locate(context.Background(), Filter{{Key: "Env", Value: "dev"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"i-1", "i-5", "i-9"}, IDs(handles))
}

// TestLocateEmptyFilterRefused verifies that a filter with no predicates is
// rejected before any provider call. An unfiltered locate would address the
// whole account.
func TestLocateEmptyFilterRefused(t *testing.T) {
	provider := &fakeProvider{}
	l := &Locator{Provider: provider}

	_, err := l.Locate(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, 0, provider.locateCalls)
}

// TestLocateProviderFailure verifies that a describe failure wraps as
// ProviderError with the cause preserved.
func TestLocateProviderFailure(t *testing.T) {
	cause := errors.New("describe throttled")
	provider := &fakeProvider{locateErr: cause}
	l := &Locator{Provider: provider}

	_, err := l.Locate(context.Background(), Filter{{Key: "Env", Value: "dev"}})
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "locate", pe.Op)
	assert.ErrorIs(t, err, cause)
}
