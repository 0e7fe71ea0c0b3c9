// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package log wraps Apex with a single-line handler and a trace level below
// debug. The level comes from FLEETCTL_LOG; trace rides on the debug level
// with a marker prefix so the handler can relabel it.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
)

const tracePrefix = "TRACE: "

var traceEnabled bool

// levels maps FLEETCTL_LOG values to Apex levels.
var levels = map[string]log.Level{
	"trace": log.DebugLevel,
	"debug": log.DebugLevel,
	"info":  log.InfoLevel,
	"warn":  log.WarnLevel,
	"error": log.ErrorLevel,
	"fatal": log.FatalLevel,
}

// InitLogger installs the line handler at the level named by FLEETCTL_LOG,
// defaulting to error.
func InitLogger() {
	name := strings.ToLower(os.Getenv("FLEETCTL_LOG"))
	traceEnabled = name == "trace"

	level, ok := levels[name]
	if !ok {
		level = log.ErrorLevel
	}

	log.SetHandler(&lineHandler{out: os.Stdout})
	log.SetLevel(level)
}

// lineHandler renders one line per entry: timestamp, level letter, message.
type lineHandler struct {
	out io.Writer
}

var letters = map[log.Level]string{
	log.DebugLevel: "D",
	log.InfoLevel:  "I",
	log.WarnLevel:  "W",
	log.ErrorLevel: "E",
	log.FatalLevel: "F",
}

// HandleLog implements log.Handler.
func (h *lineHandler) HandleLog(e *log.Entry) error {
	message := e.Message

	letter, ok := letters[e.Level]
	if !ok {
		letter = "?"
	}
	if strings.HasPrefix(message, tracePrefix) {
		letter = "T"
		message = strings.TrimPrefix(message, tracePrefix)
	}

	stamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(h.out, "%s %s %s\n", stamp, letter, message)
	return nil
}

// Tracef logs below debug. Lines only appear when FLEETCTL_LOG=trace.
func Tracef(format string, args ...interface{}) {
	if traceEnabled {
		log.Debug(tracePrefix + fmt.Sprintf(format, args...))
	}
}

// Debugf logs at Debug level.
func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

// Infof logs at Info level.
func Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

// Errorf logs at Error level.
func Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}

// Debug logs at Debug level.
func Debug(msg string) {
	log.Debug(msg)
}

// Warnf logs at Warn level.
func Warnf(format string, args ...interface{}) {
	log.Warn(fmt.Sprintf(format, args...))
}

// WithError returns an entry carrying err.
func WithError(err error) *log.Entry {
	return log.WithError(err)
}
