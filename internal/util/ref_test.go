// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		name       string
		setupRef   func(t *testing.T) string
		wantRegion string
		wantS3     bool
		wantErr    bool
		errIs      error
	}{
		{
			name: "absolute_file_no_region",
			setupRef: func(t *testing.T) string {
				return writeTempDoc(t)
			},
			wantRegion: "",
		},
		{
			name: "absolute_file_with_region",
			setupRef: func(t *testing.T) string {
				return writeTempDoc(t) + "::eu-west-1"
			},
			wantRegion: "eu-west-1",
		},
		{
			name: "relative_file",
			setupRef: func(t *testing.T) string {
				path := writeTempDoc(t)
				chdir(t, filepath.Dir(path))
				return filepath.Base(path)
			},
			wantRegion: "",
		},
		{
			name: "s3_url_no_region",
			setupRef: func(t *testing.T) string {
				return "s3://fleet-docs/schedules.hcl"
			},
			wantS3: true,
		},
		{
			name: "s3_url_with_region",
			setupRef: func(t *testing.T) string {
				return "s3://fleet-docs/schedules.hcl::us-east-1"
			},
			wantRegion: "us-east-1",
			wantS3:     true,
		},
		{
			name: "nonexistent_file",
			setupRef: func(t *testing.T) string {
				return "/nonexistent/path/schedules.hcl"
			},
			wantErr: true,
			errIs:   os.ErrNotExist,
		},
		{
			name: "directory_not_file",
			setupRef: func(t *testing.T) string {
				return t.TempDir()
			},
			wantErr: true,
			errIs:   os.ErrInvalid,
		},
		{
			name: "empty_ref",
			setupRef: func(t *testing.T) string {
				return ""
			},
			wantErr: true,
		},
		{
			name: "empty_region_override",
			setupRef: func(t *testing.T) string {
				return writeTempDoc(t) + "::"
			},
			wantRegion: "",
		},
		{
			name: "multiple_separators_takes_first",
			setupRef: func(t *testing.T) string {
				return writeTempDoc(t) + "::eu-west-1::extra"
			},
			wantRegion: "eu-west-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := tt.setupRef(t)

			location, region, err := ParseRef(ref)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errIs != nil {
					assert.ErrorIs(t, err, tt.errIs)
				}
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, location)
			assert.Equal(t, tt.wantRegion, region)
			assert.Equal(t, tt.wantS3, IsS3(location))
			if !tt.wantS3 {
				assert.True(t, filepath.IsAbs(location))
				assert.FileExists(t, location)
			}
		})
	}
}

func writeTempDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedules.hcl")
	if err := os.WriteFile(path, []byte(`schedule "x" { tags = { A = "1" } }`), 0o600); err != nil {
		t.Fatalf("failed to create temp doc: %v", err)
	}
	return path
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldCwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get cwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldCwd)
	})
}
