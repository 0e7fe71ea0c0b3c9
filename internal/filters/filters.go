// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/fleetctl/fleetctl/internal/attrs"
	"github.com/fleetctl/fleetctl/internal/driller"
)

// filterRe splits a --filter expression into its parts: an optional leading
// underscore marking a server-side tag filter, the key, an operator from
// = ^ ~ < > @ / with optional ! negation, and the target value. "state",
// "state=running", "state!=running" and "_Scheduled=OfficeHours" all parse.
var filterRe = regexp.MustCompile(`^(_)?([^!?=^~<>@/]*)(!?[=^~<>@/])?(.*)$`)

// Filter is one parsed --filter entry.
type Filter struct {
	Key        string `yaml:"key" json:"Key"`
	Negate     bool   `yaml:"negate" json:"Negate"`
	Operand    string `yaml:"operand" json:"Operand"`
	ServerSide bool   `yaml:"serverSide" json:"ServerSide"`
	Value      string `yaml:"value" json:"Value"`
}

// BuildFilters parses a comma separated filter spec. Entries that do not
// parse are logged and dropped rather than failing the whole spec.
func BuildFilters(spec string) []Filter {
	//nolint:prealloc
	var filters []Filter
	if spec == "" {
		return filters
	}

	// Values with embedded commas need a different delimiter.
	delim := ","
	if d, ok := os.LookupEnv("FLEETCTL_FILTER_DELIM"); ok {
		delim = d
	}

	for _, entry := range strings.Split(spec, delim) {
		f, ok := parseFilter(strings.TrimSpace(entry))
		if !ok {
			continue
		}
		filters = append(filters, f)
	}

	return filters
}

// parseFilter parses a single spec entry. The bool is false for blank or
// malformed entries.
func parseFilter(entry string) (Filter, bool) {
	if entry == "" {
		return Filter{}, false
	}

	parts := filterRe.FindStringSubmatch(entry)
	if parts == nil {
		log.Error("invalid filter: " + entry)
		return Filter{}, false
	}

	key := strings.TrimSpace(parts[2])
	if key == "" {
		log.Error("invalid filter: empty key in " + entry)
		return Filter{}, false
	}

	operand := parts[3]
	negate := strings.HasPrefix(operand, "!")

	return Filter{
		Key:        key,
		ServerSide: parts[1] == "_",
		Negate:     negate,
		Operand:    strings.TrimPrefix(operand, "!"),
		Value:      parts[4],
	}, true
}

// ServerSideTags returns the server-side entries of a parsed spec as
// Key=Value tag specs, ready to merge into the provider-side tag filter.
// Only the = operand makes sense there; anything else is reported and
// dropped.
func ServerSideTags(filters []Filter) []string {
	//nolint:prealloc
	var specs []string
	for _, f := range filters {
		if !f.ServerSide {
			continue
		}
		if f.Operand != "=" || f.Negate {
			log.Error("server-side filters support = only: _" + f.Key)
			continue
		}
		specs = append(specs, f.Key+"="+f.Value)
	}
	return specs
}

// FilterDataset reduces a flattened result document to the rows matching
// spec, projecting each surviving row onto the attribute list. Server-side
// entries already did their work in the describe call and play no part here.
func FilterDataset(candidates gjson.Result, attrs attrs.AttrList, spec string) []map[string]interface{} {
	//nolint:prealloc
	var rows []map[string]interface{}

	// Parse once so invalid entries are discarded up front.
	filters := BuildFilters(spec)

	for _, candidate := range candidates.Array() {
		if !applyFilters(candidate, attrs, filters) {
			continue
		}

		// Project the surviving row. Transforms wait for the output phase;
		// this is selection only.
		row := make(map[string]interface{})
		for i := range attrs {
			row[attrs[i].OutputKey] = driller.Drill(candidate.Raw, attrs[i].Key).Value()
		}
		rows = append(rows, row)
	}

	return rows
}

// applyFilters reports whether the candidate row passes every client-side
// filter. The tagged pseudo-key resolves against the row's whole tag map and
// ends the scan.
func applyFilters(candidate gjson.Result, attrs attrs.AttrList,
	filters []Filter) bool {
	if len(filters) == 0 {
		return true
	}

	for _, filter := range filters {
		if filter.ServerSide {
			continue
		}

		if filter.Key == "tagged" {
			return isTagged(candidate, filter)
		}

		// The filter key names the output column; map it back to the
		// document path.
		var key string
		for _, attr := range attrs {
			if attr.OutputKey == filter.Key {
				key = attr.Key
				break
			}
		}

		// An unknown key is reported but does not reject the row.
		if key == "" {
			msg := fmt.Sprintf("filter key not found: %s", filter.Key)
			log.Error(msg)
			fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
			continue
		}

		value := driller.Drill(candidate.Raw, key).Value()
		if value == nil {
			return false
		}

		if !match(value, filter) {
			return false
		}
	}

	return true
}

// match dispatches on the value's dynamic type. Booleans compare as their
// string form. Values that are not string, bool or number only ever match
// the membership operand.
func match(value interface{}, filter Filter) bool {
	switch v := value.(type) {
	case string:
		return matchString(v, filter)
	case bool:
		return matchString(strconv.FormatBool(v), filter)
	}

	if num, ok := asNumber(value); ok {
		return matchNumeric(num, filter)
	}
	if filter.Operand == "@" {
		return matchContains(value, filter)
	}
	return true
}

// matchContains evaluates the membership operand. Slices match on element
// equality, maps on key presence.
func matchContains(value interface{}, filter Filter) bool {
	switch val := value.(type) {
	case []any:
		hit := false
		for _, item := range val {
			if item == filter.Value {
				hit = true
				break
			}
		}
		return hit == !filter.Negate
	case map[string]any:
		_, found := val[filter.Value]
		return found == !filter.Negate
	default:
		log.Error(fmt.Sprintf("unsupported type for contains filtering: %T", value))
		return false
	}
}

// matchNumeric compares under numeric semantics. Only =, > and < apply;
// != arrives as = with Negate set.
func matchNumeric(value float64, filter Filter) bool {
	target, err := strconv.ParseFloat(strings.TrimSpace(filter.Value), 64)
	if err != nil {
		log.Error("invalid numeric value: " + filter.Value)
		return false
	}

	var hit bool
	switch filter.Operand {
	case "=":
		hit = value == target
	case ">":
		hit = value > target
	case "<":
		hit = value < target
	default:
		log.Error("unsupported numeric operand: " + filter.Operand)
		return false
	}
	return hit == !filter.Negate
}

// matchString compares under string semantics. The > and < operands compare
// lexically, ~ is a case fold, / a regular expression.
func matchString(value string, filter Filter) bool {
	var hit bool
	switch filter.Operand {
	case "=":
		hit = value == filter.Value
	case "~":
		hit = strings.EqualFold(value, filter.Value)
	case "^":
		hit = strings.HasPrefix(value, filter.Value)
	case ">":
		hit = value > filter.Value
	case "<":
		hit = value < filter.Value
	case "@":
		hit = strings.Contains(value, filter.Value)
	case "/":
		matched, err := regexp.MatchString(filter.Value, value)
		if err != nil {
			log.Error("invalid regex: " + filter.Value)
			return false
		}
		hit = matched
	default:
		log.Error("unsupported filtering operand: " + filter.Operand)
		return false
	}
	return hit == !filter.Negate
}

// isTagged checks the candidate against the tagged pseudo-filter. The row's
// tags value must be a non-empty map to count as tagged; filter.Value "" or
// "true" keeps tagged rows, "false" keeps untagged ones.
func isTagged(candidate gjson.Result, filter Filter) bool {
	tags, ok := driller.Drill(candidate.Raw, "tags").Value().(map[string]any)
	found := ok && len(tags) > 0

	mode := filter.Value == "" || filter.Value == "true"
	return found == mode
}

// asNumber normalizes any numeric type to float64. gjson only ever yields
// float64, but rows can arrive from YAML fixtures and config too.
func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint8:
		return float64(n), true
	}
	return 0, false
}
