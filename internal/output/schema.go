// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"

	"github.com/apex/log"
)

// schemaTag is one attribute discovered from a type's jsonapi tags, surfaced
// by the --schema flag.
type schemaTag struct {
	Kind     string
	Name     string
	Encoding string
}

// print renders the tag into its display form.
func (t schemaTag) print() string {
	return t.Name
}

// maxSchemaDepth stops the walk below one level of nested holder structs.
const maxSchemaDepth = 1

// DumpSchema writes the sorted attribute names of typ to w. A nil writer
// means os.Stdout.
func DumpSchema(prefix string, typ reflect.Type, w io.Writer) {
	if w == nil {
		w = os.Stdout
	}

	fmt.Fprintln(w,
		`Resource level attributes that are directly available to the --attrs flag.
For a complete schema, including relationships, use --output=raw and see the
attrs help in the documentation or man fleetctl-attrs.`)
	fmt.Fprintln(w, "")

	tags := dumpSchemaWalker(prefix, typ, 0)
	if len(tags) == 0 {
		log.Debugf("no tags found for type %s", typ.Name())
		return
	}

	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Kind == tags[j].Kind {
			return tags[i].Name < tags[j].Name
		}
		return tags[i].Kind < tags[j].Kind
	})

	for _, tag := range tags {
		fmt.Fprintln(w, tag.print())
	}
}

// dumpSchemaWalker collects attr tags from typ, descending into struct and
// struct-pointer fields so nested holders like placement surface their
// children with dotted names.
func dumpSchemaWalker(holder string, typ reflect.Type, depth int) []schemaTag {
	tags := make([]schemaTag, 0)

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		tagValue, ok := field.Tag.Lookup("jsonapi")
		if !ok {
			continue
		}

		tag := NewTag(holder, tagValue)
		if tag.Kind != "attr" {
			continue
		}
		tags = append(tags, tag)

		if depth >= maxSchemaDepth {
			continue
		}

		switch field.Type.Kind() {
		case reflect.Struct:
			tags = append(tags, dumpSchemaWalker(tag.Name, field.Type, depth+1)...)
		case reflect.Ptr:
			if field.Type.Elem().Kind() == reflect.Struct {
				tags = append(tags, dumpSchemaWalker(tag.Name, field.Type.Elem(), depth+1)...)
			}
		default:
			log.Debugf("primitive field: name=%s, kind=%s", field.Name, field.Type.Kind())
		}
	}

	return tags
}
