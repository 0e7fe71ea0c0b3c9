// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"

	"github.com/fleetctl/fleetctl/internal/attrs"
	"github.com/fleetctl/fleetctl/internal/config"
	"github.com/fleetctl/fleetctl/internal/filters"
)

// InterfaceToString renders a value for table output. Zero values collapse
// to the optional empty marker, and composite values render as JSON.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	empty := ""
	if len(emptyValue) > 0 {
		empty = emptyValue[0]
	}

	if value == nil || reflect.ValueOf(value).IsZero() {
		return empty
	}

	switch value := value.(type) {
	case string:
		return value
	case int:
		// gjson yields float64 for numbers, so this arm mostly serves rows
		// built from fixtures.
		return strconv.Itoa(value)
	case float64:
		// Whole numbers only. Uptime hours and counts never need the
		// fraction.
		return fmt.Sprintf("%.0f", value)
	case bool:
		return strconv.FormatBool(value)
	default:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(jsonBytes)
	}
}

// NewTag parses a raw schema struct tag. The holder, when given, prefixes
// the name to build hierarchical attribute names. Tags of any kind other
// than attr come back zero.
func NewTag(h string, s string) schemaTag {
	parts := strings.Split(s, ",")
	if parts[0] != "attr" {
		return schemaTag{}
	}

	tag := schemaTag{Kind: parts[0]}

	if len(parts) > 1 {
		tag.Name = parts[1]
		if h != "" {
			tag.Name = h + "." + parts[1]
		}
	}
	if len(parts) > 2 {
		tag.Encoding = parts[2]
	}

	return tag
}

// SliceDiceSpit is the output pipeline shared by the query commands: dump
// raw, or flatten, filter, transform, sort and render the dataset per the
// command's flags. The optional postProcess hook lets a command reshape the
// filtered rows before the table renders them.
func SliceDiceSpit(raw bytes.Buffer,
	attrs attrs.AttrList,
	cmd *cli.Command,
	parent string,
	w io.Writer,
	postProcess func([]map[string]interface{}) error) {

	if w == nil {
		w = os.Stdout
	}

	// Raw wants the document untouched.
	output := cmd.String("output")
	if output == "raw" {
		_, _ = w.Write(raw.Bytes())
		return
	}

	// Saved describe dumps keep the reservation nesting and proper-case key
	// names. Flattening brings them into line with the payloads the query
	// commands build, so one pipeline serves both.
	if reservations := gjson.Parse(raw.String()).Get("Reservations"); reservations.Exists() {
		raw = flattenDescribe(reservations)
	}

	// Keep the data object and drop the rest of the document, notably
	// included, which nothing downstream reads.
	dataset := gjson.Parse(raw.String())
	if parent != "" {
		dataset = dataset.Get(parent)
	}

	// Filter first so the transform and sort passes work the smaller set.
	rows := filters.FilterDataset(dataset, attrs, cmd.String("filter"))

	// --local forces a time transform onto every attribute. Values that do
	// not parse as timestamps pass through unchanged.
	if cmd.Bool("local") {
		for a := range attrs {
			attrs[a].TransformSpec += "t"
		}
	}

	for _, row := range rows {
		for _, attr := range attrs {
			if attr.TransformSpec != "" {
				row[attr.OutputKey] = attr.Transform(row[attr.OutputKey])
			}
		}
	}

	SortDataset(rows, cmd.String("sort"))

	switch output {
	case "json":
		// TODO: emit columns in attr order; json.Marshal sorts map keys.
		jsonOutput, err := json.Marshal(rows)
		if err != nil {
			log.Errorf("SliceDiceSpit json marshal: %v", err)
		}
		_, _ = w.Write(jsonOutput)
	case "yaml":
		yamlOutput, err := yaml.Marshal(rows)
		if err != nil {
			log.Errorf("SliceDiceSpit yaml marshal: %v", err)
		}
		_, _ = w.Write(yamlOutput)
	default:
		if postProcess != nil {
			if err := postProcess(rows); err != nil {
				log.Errorf("PostProcess: %v", err)
			}
		}

		TableWriter(rows, attrs, cmd, w)
	}
}

// TableWriter renders the result set as a table, honoring the color, titles
// and padding flags plus any header and footer the command stashed in its
// metadata. A nil w falls back to os.Stdout.
func TableWriter(
	resultSet []map[string]interface{},
	attrs attrs.AttrList,
	cmd *cli.Command,
	w io.Writer) {

	if w == nil {
		w = os.Stdout
	}

	// Nothing to render.
	if len(resultSet) == 0 {
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left).Bold(true)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if cmd.Bool("color") {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(headerColor)
		evenRowStyle = evenRowStyle.Foreground(evenColor)
		oddRowStyle = oddRowStyle.Foreground(oddColor)
	}

	// Project each row onto the included attributes, empty cells as "-".
	var rows [][]string
	for _, result := range resultSet {
		row := make([]string, 0, len(attrs))
		for _, attr := range attrs {
			if !attr.Include {
				continue
			}
			row = append(row, InterfaceToString(result[attr.OutputKey], "-"))
		}
		rows = append(rows, row)
	}

	if cmd.Metadata["header"] != nil {
		fmt.Fprintln(w, headerStyle.Render(cmd.Metadata["header"].(string)))
	}

	pad := cmd.Int("padding")
	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Headers().
		Rows(rows...)

	if cmd.Bool("titles") {
		var headers []string
		for _, attr := range attrs {
			if attr.Include {
				headers = append(headers, attr.OutputKey)
			}
		}

		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)

	if cmd.Metadata["footer"] != nil {
		fmt.Fprintln(w, headerStyle.Render(cmd.Metadata["footer"].(string)))
	}
}

// flattenDescribe takes the reservation nesting of a DescribeInstances
// document and flattens each instance into an id plus attributes row. This
// is done so that saved describe dumps and live query payloads share one
// schema.
func flattenDescribe(reservations gjson.Result) bytes.Buffer {
	var flatInstances []map[string]interface{}

	for _, reservation := range reservations.Array() {
		common := getReservationFields(reservation)

		instances := reservation.Get("Instances")
		for _, instance := range instances.Array() {
			attributes := map[string]interface{}{
				"state":      instance.Get("State.Name").Value(),
				"type":       instance.Get("InstanceType").Value(),
				"az":         instance.Get("Placement.AvailabilityZone").Value(),
				"launched":   instance.Get("LaunchTime").Value(),
				"private-ip": instance.Get("PrivateIpAddress").Value(),
				"public-ip":  instance.Get("PublicIpAddress").Value(),
				"tags":       TagsToMap(instance.Get("Tags")),
			}
			for key, value := range common {
				attributes[key] = value
			}

			flatInstances = append(flatInstances, map[string]interface{}{
				"id":         instance.Get("InstanceId").Value(),
				"attributes": attributes,
			})
		}
	}

	jsonBytes, err := json.Marshal(flatInstances)
	if err != nil {
		log.Errorf("flattenDescribe marshal: %v", err)
		return *bytes.NewBuffer([]byte{})
	}

	raw := *bytes.NewBuffer(jsonBytes)
	return raw
}

// TagsToMap folds a describe document's Key/Value tag array into a plain
// map, which is the shape the filter and attr layers expect.
func TagsToMap(tags gjson.Result) map[string]interface{} {
	m := make(map[string]interface{})
	for _, tag := range tags.Array() {
		m[tag.Get("Key").String()] = tag.Get("Value").Value()
	}
	return m
}

// getColors resolves the table palette. Explicit config colors win, so theme
// choice stays with the user; the fallbacks pick a light or dark variant off
// the terminal background.
func getColors(key string) (header, even, odd color.Color) {
	isDark := lipgloss.HasDarkBackground(os.Stdin, os.Stdout)

	pick := func(key, light, dark string) color.Color {
		if cfg, err := config.GetString(key); err == nil {
			return lipgloss.Color(cfg)
		}
		if isDark {
			return lipgloss.Color(dark)
		}
		return lipgloss.Color(light)
	}

	header = pick(key+".title", "#b08800", "#f6be00")
	even = pick(key+".even", "#333333", "#ffffff")
	odd = pick(key+".odd", "#0088a0", "#00c8f0")

	return
}

// getReservationFields extracts reservation-level fields worth carrying onto
// each instance row.
func getReservationFields(reservation gjson.Result) map[string]interface{} {
	common := make(map[string]interface{})
	if owner := reservation.Get("OwnerId"); owner.Exists() {
		common["owner"] = owner.Value()
	}
	if id := reservation.Get("ReservationId"); id.Exists() {
		common["reservation"] = id.Value()
	}
	return common
}
