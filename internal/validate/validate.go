// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package validate wraps struct validation behind a tag vocabulary shared
// by the schedule and event layers. Beyond the stock rules it registers
// "cron" for five-field cron expressions and "duration" for Go duration
// strings. Both custom rules accept the empty string; pair them with
// required when the field must be present.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"
)

var v *validator.Validate

func init() {
	v = validator.New()

	for name, fn := range map[string]validator.Func{
		"cron":     cronExpr,
		"duration": durationStr,
	} {
		if err := v.RegisterValidation(name, fn); err != nil {
			panic(fmt.Errorf("register %q validation: %w", name, err))
		}
	}
}

// Struct validates i against its `validate` tags. Violations are collected
// per field so one pass reports everything wrong with a document.
func Struct(i any) error {
	if i == nil {
		return fmt.Errorf("nothing to validate")
	}

	err := v.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		var merr *multierror.Error
		for _, fe := range verrs {
			merr = multierror.Append(merr, fieldError(fe))
		}
		return merr.ErrorOrNil()
	}
	return err
}

func fieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Namespace())
	case "cron":
		return fmt.Errorf("%s is not a valid cron expression: %q", fe.Namespace(), fe.Value())
	case "duration":
		return fmt.Errorf("%s is not a valid duration: %q", fe.Namespace(), fe.Value())
	default:
		return fmt.Errorf("%s failed %s validation", fe.Namespace(), fe.Tag())
	}
}

// cronExpr accepts five-field cron expressions in the standard descriptor
// grammar.
func cronExpr(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	expr := field.String()
	if expr == "" {
		return true
	}
	_, err := cron.ParseStandard(expr)
	return err == nil
}

// durationStr accepts Go duration strings ("15s", "10m").
func durationStr(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	s := field.String()
	if s == "" {
		return true
	}
	_, err := time.ParseDuration(s)
	return err == nil
}
