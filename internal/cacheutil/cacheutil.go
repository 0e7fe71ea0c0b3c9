// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fleetctl/fleetctl/internal/log"
)

// Entry is one cached artifact. Key is the clear-text cache key and
// EncodedKey the digest filename it lives under.
type Entry struct {
	Key        string
	EncodedKey string
	Path       string
	Data       []byte
}

// Dir resolves the base cache directory: FLEETCTL_CACHE_DIR when set,
// otherwise the user cache directory plus "fleetctl". Returns ("", false)
// when no base can be resolved, which callers treat as disabled.
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("FLEETCTL_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "fleetctl"), true
	}
	return "", false
}

// Enabled returns true unless FLEETCTL_CACHE explicitly disables the cache
// with "0" or "false".
func Enabled() bool {
	enabled, _ := os.LookupEnv("FLEETCTL_CACHE")
	return enabled == "" || (enabled != "0" && enabled != "false")
}

// EnsureBaseDir creates the base cache directory when caching is enabled
// and a base resolves. Returns the path, whether the cache is usable, and
// an error when creation failed.
func EnsureBaseDir() (string, bool, error) {
	if !Enabled() {
		return "", false, nil
	}

	base, ok := Dir()
	if !ok {
		return "", false, nil
	}

	if err := os.MkdirAll(base, 0o755); err != nil { //nolint:mnd
		return base, false, fmt.Errorf("failed to create cache base directory: %w", err)
	}

	log.Debugf("created cache dir: path=%s", base)
	return base, true, nil
}

// path assembles base/subdirs/digest for a key. ok is false when no base
// can be resolved.
func path(subdirs []string, clearKey string) (string, bool) {
	base, ok := Dir()
	if !ok {
		return "", false
	}

	parts := append([]string{base}, subdirs...)
	parts = append(parts, encodeKey(clearKey))
	return filepath.Join(parts...), true
}

// EntryPath returns where the entry for a key would live and whether a file
// currently exists there.
func EntryPath(subdirs []string, clearKey string) (string, bool) {
	p, ok := path(subdirs, clearKey)
	if !ok {
		return "", false
	}

	_, err := os.Stat(p)
	return p, err == nil
}

// Purge removes cache files older than the given number of hours. Zero or
// negative hours means cleaning is off.
func Purge(hours int) error {
	if hours <= 0 {
		log.Debug("cache cleaning disabled")
		return nil
	}

	base, ok := Dir()
	if !ok {
		return nil
	}

	maxAge := time.Duration(hours) * time.Hour
	err := filepath.Walk(base, func(p string, info os.FileInfo, walkErr error) error {
		// Entries can disappear mid-walk when concurrent invocations
		// collide on the same cache.
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if info == nil || info.IsDir() || time.Since(info.ModTime()) <= maxAge {
			return nil
		}

		if err := os.Remove(p); err != nil {
			log.WithError(err).Warnf("failed to remove cache file %s", p)
			return nil
		}
		log.Debugf("removed cache file %s", p)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}

// Read returns the cached entry for a key. Data comes back byte-for-byte
// as written; cached documents are re-parsed by the caller and must not be
// reshaped here.
func Read(subdirs []string, clearKey string) (*Entry, bool) {
	if !Enabled() {
		return nil, false
	}

	p, ok := path(subdirs, clearKey)
	if !ok {
		return nil, false
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}

	log.Debugf("cache hit: key=%s", clearKey)
	return &Entry{
		Key:        clearKey,
		EncodedKey: encodeKey(clearKey),
		Path:       p,
		Data:       data,
	}, true
}

// Write stores data for a key, creating directories as needed. A disabled
// or unresolvable cache is a quiet no-op.
func Write(subdirs []string, clearKey string, data []byte) error {
	if !Enabled() {
		return nil
	}

	p, ok := path(subdirs, clearKey)
	if !ok {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(p, data, os.FileMode(0o600)); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write to cache: %w", err)
	}

	log.Debugf("cache write: key=%s", clearKey)
	return nil
}

// encodeKey digests the clear key into a stable filename.
func encodeKey(input string) string {
	h := sha256.New()
	h.Write([]byte(input))
	return hex.EncodeToString(h.Sum(nil))
}
