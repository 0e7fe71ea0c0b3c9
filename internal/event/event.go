// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
)

// Event is one parsed trigger document. Action carries the raw symbol
// exactly as the document spelled it; validation against the closed action
// set belongs to the caller.
type Event struct {
	Action     string   `json:"action,omitempty"`
	Resources  []string `json:"resources,omitempty"`
	DetailType string   `json:"detailType,omitempty"`
	Source     string   `json:"source,omitempty"`
	Region     string   `json:"region,omitempty"`
}

// Parse extracts the recognized fields from a JSON trigger document. Keys
// match exactly: only a top-level "Action" key carries the action, and an
// absent key leaves Action empty rather than guessing from near-misses.
func Parse(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return Event{}, fmt.Errorf("invalid event document: not valid JSON")
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Event{}, fmt.Errorf("invalid event document: want a JSON object")
	}

	var ev Event
	root.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "Action":
			ev.Action = value.String()
		case "resources":
			for _, r := range value.Array() {
				ev.Resources = append(ev.Resources, r.String())
			}
		case "detail-type":
			ev.DetailType = value.String()
		case "source":
			ev.Source = value.String()
		case "region":
			ev.Region = value.String()
		}
		return true
	})

	if ev.Source != "" || ev.DetailType != "" {
		log.Debugf("event source=%q detail-type=%q", ev.Source, ev.DetailType)
	}

	return ev, nil
}

// Read loads and parses a trigger document from a file path, or from stdin
// when the path is "-".
func Read(path string) (Event, error) {
	var input io.ReadCloser
	if path == "-" {
		input = os.Stdin
	} else {
		info, err := os.Stat(path)
		if err != nil {
			return Event{}, fmt.Errorf("event file does not exist: %s", path)
		}
		if info.IsDir() {
			return Event{}, fmt.Errorf("event input cannot be a directory: %s", path)
		}
		input, err = os.Open(path)
		if err != nil {
			return Event{}, fmt.Errorf("failed to open event file: %w", err)
		}
		defer input.Close()
	}

	data, err := io.ReadAll(input)
	if err != nil {
		return Event{}, fmt.Errorf("error reading event input: %w", err)
	}

	return Parse(data)
}

// Synthetic builds the event an operator-supplied --action flag stands in
// for, so flag-driven and event-driven runs flow through the same path.
func Synthetic(action string) Event {
	return Event{Action: action, Source: "fleetctl.flag"}
}
