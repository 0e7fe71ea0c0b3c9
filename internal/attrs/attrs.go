// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package attrs

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/fleetctl/fleetctl/internal/log"
)

// Attr is one output column. Keys address the attributes object of each
// record by default, so "state" reads attributes.state while ".id" reads
// the record root.
type Attr struct {
	// Dot path to extract from the record.
	Key string `yaml:"key" json:"Key"`
	// Excluded columns stay available to filters and sorts.
	Include bool `yaml:"include" json:"Include"`
	// Column name in the output. Doubles as the title when output=text.
	OutputKey string `yaml:"outputKey" json:"OutputKey"`
	// Transform spec applied to the extracted value.
	TransformSpec string `yaml:"transformSpec" json:"TransformSpec"`
}

// lengthRe pulls width directives out of a transform spec.
var lengthRe = regexp.MustCompile(`-?\d+`)

// Transform applies the attribute's transform spec to a value. Only string
// values transform; maps and other types pass through for the writers to
// render.
func (a *Attr) Transform(value interface{}) interface{} {
	result, ok := value.(string)
	if !ok {
		log.Tracef("non-string value: value=%v", value)
		return value
	}

	if strings.ContainsAny(a.TransformSpec, "tT") {
		result = a.transformTime(result)
	}

	result = a.transformCase(result)
	return a.transformLength(result)
}

// transformTime renders an RFC3339 value in the system's local zone. "t"
// keeps the wall clock and "T" switches to a relative "ago" form. Values
// that do not parse pass through untouched.
func (a *Attr) transformTime(result string) string {
	t, err := time.Parse(time.RFC3339, result)
	if err != nil {
		return result
	}

	local := t.In(time.Local)
	if strings.Contains(a.TransformSpec, "T") {
		result = humanize.Time(local)
		log.Tracef("time ago: result=%s", result)
		return result
	}

	result = local.Format("2006-01-02T15:04:05MST")
	log.Tracef("time local: result=%s", result)
	return result
}

// transformCase folds the value per the last case directive in the spec.
// Last one wins so that a per-attr directive overrides a global one that
// was prepended to it. IOW... --attrs '*::U,name::l' leaves name lower.
func (a *Attr) transformCase(result string) string {
	lastL := strings.LastIndexAny(a.TransformSpec, "lL")
	lastU := strings.LastIndexAny(a.TransformSpec, "uU")

	switch {
	case lastL > lastU:
		result = strings.ToLower(result)
		log.Tracef("case lower: result=%s", result)
	case lastU > lastL:
		result = strings.ToUpper(result)
		log.Tracef("case upper: result=%s", result)
	}

	return result
}

// transformLength truncates the value per the last width directive in the
// spec. A positive width keeps the head; a negative one keeps both ends
// around a ".." midsection.
func (a *Attr) transformLength(result string) string {
	if a.TransformSpec == "" {
		return result
	}

	match := lengthRe.FindAllString(a.TransformSpec, -1)
	if len(match) == 0 {
		return result
	}

	l, _ := strconv.Atoi(match[len(match)-1])
	abs := int(math.Abs(float64(l)))
	if len(result) <= abs {
		return result
	}

	if l < 0 {
		lr := abs/2 - 1
		result = result[0:lr] + ".." + result[len(result)-lr:]
		log.Tracef("length middle: result=%s", result)
		return result
	}

	result = result[:l]
	log.Tracef("length trunc: result=%s", result)
	return result
}

// AttrList is the ordered set of columns a command will emit.
type AttrList []Attr

// Set parses a comma-separated --attrs value into the list. Each spec is
// key:outputKey:transform with the latter two optional. A spec naming a key
// already in the list restyles that entry instead of appending a duplicate.
func (a *AttrList) Set(value string) error {
	if value == "" || value == "*" {
		log.Debugf("nothing to parse: value=%s", value)
		return nil
	}

	for _, spec := range strings.Split(value, ",") {
		attr := parseSpec(spec)
		if a.restyle(attr) {
			continue
		}

		// New entries address the attributes object unless the key is
		// rooted with a leading dot.
		if strings.HasPrefix(attr.Key, ".") {
			attr.Key = attr.Key[1:]
		} else if attr.Key != "*" {
			attr.Key = "attributes." + attr.Key
		}

		*a = append(*a, attr)
		log.Tracef("attr appended: key=%s, len=%d", attr.Key, len(*a))
	}

	return nil
}

// parseSpec splits one key:outputKey:transform spec. The output key falls
// back to the last dot segment of the key, and a leading "!" excludes the
// column from output. A bare "*" carries a global transform without emitting
// a column of its own.
func parseSpec(spec string) Attr {
	attr := Attr{Include: true}

	fields := strings.Split(spec, ":")

	attr.Key = strings.TrimSpace(fields[0])
	if strings.HasPrefix(attr.Key, "!") {
		attr.Include = false
		attr.Key = attr.Key[1:]
	}
	if attr.Key == "*" {
		attr.Include = false
	}

	switch {
	case len(fields) == 1:
		segments := strings.Split(attr.Key, ".")
		attr.OutputKey = segments[len(segments)-1]
	case strings.TrimSpace(fields[1]) != "":
		attr.OutputKey = strings.TrimSpace(fields[1])
	default:
		attr.OutputKey = attr.Key
	}

	if len(fields) > 2 { //nolint:mnd
		attr.TransformSpec = strings.TrimSpace(fields[2])
	}

	log.Tracef("spec parsed: key=%s, outputKey=%s, include=%v, transform=%s",
		attr.Key, attr.OutputKey, attr.Include, attr.TransformSpec)
	return attr
}

// restyle folds the parsed spec into an existing entry, matching on either
// key so a user spec can reshape a command default. Defaults carry the
// attributes. prefix while user specs usually do not, which is why the
// output key matches too.
func (a *AttrList) restyle(attr Attr) bool {
	for i := range *a {
		if (*a)[i].Key == attr.Key || (*a)[i].OutputKey == attr.Key {
			(*a)[i].Include = attr.Include
			(*a)[i].OutputKey = attr.OutputKey
			(*a)[i].TransformSpec = attr.TransformSpec
			log.Tracef("existing restyled: i=%d", i)
			return true
		}
	}
	return false
}

// SetGlobalTransformSpec prepends the "*" entry's transform, when one
// exists, onto every attr in the list.
func (a *AttrList) SetGlobalTransformSpec() error {
	spec := ""
	for i := range *a {
		if (*a)[i].Key == "*" {
			spec = (*a)[i].TransformSpec
			break
		}
	}

	if spec == "" {
		log.Debugf("no global spec")
		return nil
	}
	log.Debugf("global spec: spec=%s", spec)

	for i := range *a {
		(*a)[i].TransformSpec = spec + "," + (*a)[i].TransformSpec
	}

	return nil
}

// String renders the list back in --attrs form.
func (a *AttrList) String() string {
	result := make([]string, 0, len(*a))
	for _, attr := range *a {
		result = append(result, fmt.Sprintf("%s:%s:%s", attr.Key, attr.OutputKey, attr.TransformSpec))
	}

	return strings.Join(result, ",")
}

// Type satisfies the flag.Value interface.
func (a *AttrList) Type() string { return "list" }
