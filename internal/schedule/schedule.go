// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/robfig/cron/v3"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/fleetctl/fleetctl/internal/fleet"
	"github.com/fleetctl/fleetctl/internal/validate"
)

// Document is one parsed schedule file.
type Document struct {
	Schedules []*Schedule `hcl:"schedule,block"`
}

// Schedule names one externally-triggered fleet: the tag predicates that
// select its instances, the region they live in, and optional window and
// wait blocks.
type Schedule struct {
	Name   string            `hcl:"name,label" validate:"required"`
	Region string            `hcl:"region,optional"`
	Tags   map[string]string `hcl:"tags" validate:"required,min=1"`
	Window *Window           `hcl:"window,block"`
	Wait   *Wait             `hcl:"wait,block"`
}

// Window documents the external trigger cadence in five-field cron form.
// It is advisory: sq reports next fire times from it, and nothing else
// reads it.
type Window struct {
	Start string `hcl:"start" validate:"required,cron"`
	Stop  string `hcl:"stop" validate:"required,cron"`
}

// Wait bounds convergence polling for the schedule's fleet.
type Wait struct {
	PollInterval string `hcl:"poll_interval,optional" validate:"duration"`
	MaxWait      string `hcl:"max_wait,optional" validate:"duration"`
}

// Parse decodes and validates a schedule document. The filename is used for
// diagnostics only. Documents may use a small set of HCL functions in their
// expressions (format, join, upper, lower, trimspace).
func Parse(filename string, src []byte) (*Document, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %s", filename, diags.Error())
	}

	var doc Document
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &doc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %s", filename, diags.Error())
	}

	seen := map[string]bool{}
	for _, s := range doc.Schedules {
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate schedule %q in %s", s.Name, filename)
		}
		seen[s.Name] = true

		if err := validate.Struct(s); err != nil {
			return nil, fmt.Errorf("schedule %q: %w", s.Name, err)
		}
	}

	log.Debugf("parsed %d schedule(s) from %s", len(doc.Schedules), filename)
	return &doc, nil
}

// Lookup returns the named schedule.
func (d *Document) Lookup(name string) (*Schedule, error) {
	for _, s := range d.Schedules {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no schedule %q: have %v", name, d.Names())
}

// Names lists the schedule names in document order.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Schedules))
	for _, s := range d.Schedules {
		names = append(names, s.Name)
	}
	return names
}

// Filter converts the schedule's tag map into ordered predicates. Keys sort
// lexically so the same document always produces the same filter.
func (s *Schedule) Filter() fleet.Filter {
	keys := make([]string, 0, len(s.Tags))
	for k := range s.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f := make(fleet.Filter, 0, len(keys))
	for _, k := range keys {
		f = append(f, fleet.TagPredicate{Key: k, Value: s.Tags[k]})
	}
	return f
}

// WaitSpec converts the wait block into poll bounds. Absent fields stay
// zero so the stock defaults apply downstream.
func (s *Schedule) WaitSpec() (fleet.WaitSpec, error) {
	var spec fleet.WaitSpec
	if s.Wait == nil {
		return spec, nil
	}

	var err error
	if s.Wait.PollInterval != "" {
		if spec.PollInterval, err = time.ParseDuration(s.Wait.PollInterval); err != nil {
			return fleet.WaitSpec{}, fmt.Errorf("schedule %q: bad poll_interval: %w", s.Name, err)
		}
	}
	if s.Wait.MaxWait != "" {
		if spec.MaxWait, err = time.ParseDuration(s.Wait.MaxWait); err != nil {
			return fleet.WaitSpec{}, fmt.Errorf("schedule %q: bad max_wait: %w", s.Name, err)
		}
	}
	return spec, nil
}

// NextStart returns the window's next start fire time after from. Zero time
// when the schedule has no window.
func (s *Schedule) NextStart(from time.Time) (time.Time, error) {
	if s.Window == nil {
		return time.Time{}, nil
	}
	return nextFire(s.Window.Start, from)
}

// NextStop returns the window's next stop fire time after from. Zero time
// when the schedule has no window.
func (s *Schedule) NextStop(from time.Time) (time.Time, error) {
	if s.Window == nil {
		return time.Time{}, nil
	}
	return nextFire(s.Window.Stop, from)
}

func nextFire(expr string, from time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad cron expression %q: %w", expr, err)
	}
	return sched.Next(from), nil
}

// evalContext exposes a small function vocabulary to schedule expressions.
// No variables; documents are self-contained.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"format":    stdlib.FormatFunc,
			"join":      stdlib.JoinFunc,
			"lower":     stdlib.LowerFunc,
			"upper":     stdlib.UpperFunc,
			"trimspace": stdlib.TrimSpaceFunc,
		},
	}
}
