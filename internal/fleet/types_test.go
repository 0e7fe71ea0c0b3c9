// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseAction verifies that only the exact symbols Start and Stop are
// accepted and that everything else, including case variants and the empty
// string, fails with UnsupportedActionError.
func TestParseAction(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Action
		wantErr bool
	}{
		{
			name: "start",
			raw:  "Start",
			want: ActionStart,
		},
		{
			name: "stop",
			raw:  "Stop",
			want: ActionStop,
		},
		{
			name:    "lowercase start",
			raw:     "start",
			wantErr: true,
		},
		{
			name:    "uppercase stop",
			raw:     "STOP",
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "unknown verb",
			raw:     "Restart",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAction(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				var uae *UnsupportedActionError
				require.ErrorAs(t, err, &uae)
				assert.Equal(t, tt.raw, uae.Value)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestTargetState verifies the action to terminal state mapping.
func TestTargetState(t *testing.T) {
	assert.Equal(t, StateRunning, ActionStart.TargetState())
	assert.Equal(t, StateStopped, ActionStop.TargetState())
}

// TestNormalizeState verifies that provider state names outside the
// tracked set normalize to unknown instead of failing.
func TestNormalizeState(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want InstanceState
	}{
		{
			name: "pending",
			raw:  "pending",
			want: StatePending,
		},
		{
			name: "running",
			raw:  "running",
			want: StateRunning,
		},
		{
			name: "stopping",
			raw:  "stopping",
			want: StateStopping,
		},
		{
			name: "stopped",
			raw:  "stopped",
			want: StateStopped,
		},
		{
			name: "untracked provider state",
			raw:  "shutting-down",
			want: StateUnknown,
		},
		{
			name: "case mismatch",
			raw:  "Running",
			want: StateUnknown,
		},
		{
			name: "empty",
			raw:  "",
			want: StateUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeState(tt.raw))
		})
	}
}

// TestParseFilter verifies Key=Value parsing, including empty values,
// blank spec skipping, and the empty-key rejection.
func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		want    Filter
		wantErr bool
	}{
		{
			name:  "single predicate",
			specs: []string{"Scheduled=OfficeHours"},
			want:  Filter{{Key: "Scheduled", Value: "OfficeHours"}},
		},
		{
			name:  "multiple predicates preserve order",
			specs: []string{"Scheduled=OfficeHours", "Env=dev"},
			want: Filter{
				{Key: "Scheduled", Value: "OfficeHours"},
				{Key: "Env", Value: "dev"},
			},
		},
		{
			name:  "empty value allowed",
			specs: []string{"Scheduled="},
			want:  Filter{{Key: "Scheduled", Value: ""}},
		},
		{
			name:  "value containing equals",
			specs: []string{"Formula=a=b"},
			want:  Filter{{Key: "Formula", Value: "a=b"}},
		},
		{
			name:  "blank specs skipped",
			specs: []string{"", "  ", "Env=dev"},
			want:  Filter{{Key: "Env", Value: "dev"}},
		},
		{
			name:    "missing equals",
			specs:   []string{"Scheduled"},
			wantErr: true,
		},
		{
			name:    "empty key",
			specs:   []string{"=OfficeHours"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.specs)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestFilterString verifies the log rendering of a filter.
func TestFilterString(t *testing.T) {
	f := Filter{
		{Key: "Scheduled", Value: "OfficeHours"},
		{Key: "Env", Value: "dev"},
	}
	assert.Equal(t, "Scheduled=OfficeHours,Env=dev", f.String())
}

// TestSortHandles verifies deterministic ordering by identifier.
func TestSortHandles(t *testing.T) {
	handles := []Handle{
		{ID: "i-3", State: StateRunning},
		{ID: "i-1", State: StateStopped},
		{ID: "i-2", State: StatePending},
	}
	SortHandles(handles)
	assert.Equal(t, []string{"i-1", "i-2", "i-3"}, IDs(handles))
}
