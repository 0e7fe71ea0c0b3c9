// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLineHandler verifies the level letter and the trace relabeling.
func TestLineHandler(t *testing.T) {
	tests := []struct {
		name        string
		level       log.Level
		message     string
		wantLetter  string
		wantMessage string
	}{
		{
			name:        "debug",
			level:       log.DebugLevel,
			message:     "cache hit",
			wantLetter:  "D",
			wantMessage: "cache hit",
		},
		{
			name:        "info",
			level:       log.InfoLevel,
			message:     "batch dispatched",
			wantLetter:  "I",
			wantMessage: "batch dispatched",
		},
		{
			name:        "warn",
			level:       log.WarnLevel,
			message:     "slow poll",
			wantLetter:  "W",
			wantMessage: "slow poll",
		},
		{
			name:        "error",
			level:       log.ErrorLevel,
			message:     "dispatch failed",
			wantLetter:  "E",
			wantMessage: "dispatch failed",
		},
		{
			name:        "trace marker relabels",
			level:       log.DebugLevel,
			message:     "TRACE: key parsed: key=state",
			wantLetter:  "T",
			wantMessage: "key parsed: key=state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			h := &lineHandler{out: buf}
			require.NoError(t, h.HandleLog(&log.Entry{Level: tt.level, Message: tt.message}))

			// Line shape is "date time letter message".
			line := strings.TrimSuffix(buf.String(), "\n")
			fields := strings.SplitN(line, " ", 4)
			require.Len(t, fields, 4)
			assert.Equal(t, tt.wantLetter, fields[2])
			assert.Equal(t, tt.wantMessage, fields[3])
		})
	}
}

// TestInitLoggerTrace verifies trace enables the marker path and anything
// else disables it.
func TestInitLoggerTrace(t *testing.T) {
	t.Setenv("FLEETCTL_LOG", "trace")
	InitLogger()
	assert.True(t, traceEnabled)

	t.Setenv("FLEETCTL_LOG", "debug")
	InitLogger()
	assert.False(t, traceEnabled)
}
