// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"sort"
	"strings"
)

// SortDataset orders resultSet in place by a comma-separated field spec.
// A leading "-" on a field sorts it descending and a leading "!" makes the
// comparison case-sensitive. Later fields break ties left by earlier ones.
func SortDataset(resultSet []map[string]interface{}, spec string) {
	fields := strings.Split(spec, ",")

	sort.SliceStable(resultSet, func(one, two int) bool {
		for _, field := range fields {
			descending := strings.HasPrefix(field, "-")
			field = strings.TrimPrefix(field, "-")

			caseSensitive := strings.HasPrefix(field, "!")
			field = strings.TrimPrefix(field, "!")

			cmp := compareValues(resultSet[one][field], resultSet[two][field], caseSensitive)
			if cmp == 0 {
				continue
			}
			if descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// compareValues returns -1, 0, or 1. JSON numbers decode as float64, so the
// numeric path only applies when both sides arrived that way. Everything
// else, bools included, falls back to string comparison.
func compareValues(one, two interface{}, caseSensitive bool) int {
	oneNum, oneOk := one.(float64)
	twoNum, twoOk := two.(float64)
	if oneOk && twoOk {
		switch {
		case oneNum < twoNum:
			return -1
		case oneNum > twoNum:
			return 1
		}
		return 0
	}

	oneStr := InterfaceToString(one)
	twoStr := InterfaceToString(two)
	if !caseSensitive {
		oneStr = strings.ToLower(oneStr)
		twoStr = strings.ToLower(twoStr)
	}
	return strings.Compare(oneStr, twoStr)
}
