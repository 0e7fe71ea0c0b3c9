// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"reflect"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
)

// QueryActionRunner drives the shared shape of the query subcommands: tldr
// and schema short-circuits, attribute resolution, one fetch, and JSONAPI
// emission. Only the fetch differs between commands, so each supplies just
// that.
type QueryActionRunner[T any] struct {
	name         string
	schemaType   reflect.Type
	defaultAttrs []string
	fetch        func(context.Context, *cli.Command) ([]T, error)
}

// NewQueryActionRunner assembles a runner for one query subcommand.
func NewQueryActionRunner[T any](
	name string,
	schemaType reflect.Type,
	defaultAttrs []string,
	fetch func(context.Context, *cli.Command) ([]T, error),
) *QueryActionRunner[T] {
	return &QueryActionRunner[T]{
		name:         name,
		schemaType:   schemaType,
		defaultAttrs: defaultAttrs,
		fetch:        fetch,
	}
}

// Run executes the query and emits the result set.
func (qar *QueryActionRunner[T]) Run(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, qar.name) {
		return nil
	}
	if DumpSchemaIfRequested(cmd, qar.schemaType) {
		return nil
	}

	al := BuildAttrs(cmd, qar.defaultAttrs...)
	log.Debugf("attrs: %v", al)

	results, err := qar.fetch(ctx, cmd)
	if err != nil {
		return err
	}

	return EmitJSONAPISlice(results, al, cmd)
}
