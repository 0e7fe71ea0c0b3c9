// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package driller

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// segmentRe captures the key and optional bracket index of one path segment.
var segmentRe = regexp.MustCompile(`^([a-zA-Z0-9_-]+)(\[(\d|\*)?\])?$`)

// Drill resolves a dot path like "placement.az" or "groups[1].name" against
// a raw JSON document. A segment naming an array may carry an index; without
// one a single-element array is unwrapped and a longer one is returned whole
// so the caller can decide what to do with the list.
func Drill(doc string, path string) gjson.Result {
	current := gjson.Parse(doc)

	for _, segment := range strings.Split(path, ".") {
		matches := segmentRe.FindStringSubmatch(segment)
		if len(matches) == 0 {
			return gjson.Result{}
		}

		val := current.Get(matches[1])
		if val.IsArray() {
			var ok bool
			if val, ok = element(val, matches[3]); !ok {
				return gjson.Result{}
			}
		}

		current = val
	}

	return current
}

// element picks an array element by the index text captured from a path
// segment. Empty text means no index was given.
func element(val gjson.Result, index string) (gjson.Result, bool) {
	arr := val.Array()

	if index == "" {
		if len(arr) == 1 {
			return arr[0], true
		}
		return val, true
	}

	i, err := strconv.Atoi(index)
	if err != nil || i < 0 || i >= len(arr) {
		return gjson.Result{}, false
	}

	return arr[i], true
}
