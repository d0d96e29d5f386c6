// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

// Package validation checks inbound records against their `validate` struct
// tags using go-playground/validator v10.
//
// Two rules are registered beyond the built-ins:
//
//   - slug: lowercase identifier of letters, digits, '_' and '-'
//     (topic and persona ids)
//   - isoweek: an ISO week key such as 2026-W09
//
// Failures come back as *RequestValidationError, which the API renders as
// a VALIDATION_ERROR body through ToAPIError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const codeValidation = "VALIDATION_ERROR"

var customRules = map[string]*regexp.Regexp{
	"slug":    regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`),
	"isoweek": regexp.MustCompile(`^\d{4}-W(0[1-9]|[1-4]\d|5[0-3])$`),
}

// GetValidator returns the process-wide validator. Struct metadata is
// cached on it, so it must be shared.
var GetValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	for tag, re := range customRules {
		// Registration only fails for an empty tag or nil func.
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		})
	}
	return v
})

// ValidationError is one failed rule on one field.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   any
	message string
}

func (e *ValidationError) Field() string { return e.field }
func (e *ValidationError) Tag() string   { return e.tag }

// Param is the rule argument, e.g. "100" for max=100.
func (e *ValidationError) Param() string { return e.param }
func (e *ValidationError) Value() any    { return e.value }
func (e *ValidationError) Error() string { return e.message }

// RequestValidationError groups the failures of a single struct.
type RequestValidationError struct {
	errors []ValidationError
}

func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	return ve.joined(false)
}

// joined renders every failure, optionally prefixed by its field.
func (ve *RequestValidationError) joined(withField bool) string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	var b strings.Builder
	for i := range ve.errors {
		if i > 0 {
			b.WriteString("; ")
		}
		if withField {
			b.WriteString(ve.errors[i].field)
			b.WriteString(": ")
		}
		b.WriteString(ve.errors[i].message)
	}
	return b.String()
}

// APIError is the transport-neutral form of a VALIDATION_ERROR body.
type APIError struct {
	Code    string
	Message string
	Details map[string]any
}

// ToAPIError renders the failures for an API response. A single failure
// is reported inline; several are listed under details.fields.
func (ve *RequestValidationError) ToAPIError() *APIError {
	out := &APIError{Code: codeValidation}
	switch len(ve.errors) {
	case 0:
		out.Message = "Validation failed"
	case 1:
		e := ve.errors[0]
		out.Message = e.message
		out.Details = map[string]any{"field": e.field, "tag": e.tag, "value": e.value}
	default:
		fields := make([]map[string]any, 0, len(ve.errors))
		for _, e := range ve.errors {
			fields = append(fields, map[string]any{"field": e.field, "tag": e.tag, "message": e.message})
		}
		out.Message = ve.joined(true)
		out.Details = map[string]any{"fields": fields}
	}
	return out
}

// ValidateStruct returns nil when s satisfies its tags.
func ValidateStruct(s any) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Non-struct input or similar misuse.
		return &RequestValidationError{errors: []ValidationError{{
			field: "unknown", tag: "unknown", message: err.Error(),
		}}}
	}

	out := &RequestValidationError{errors: make([]ValidationError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.errors = append(out.errors, ValidationError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   fe.Param(),
			value:   fe.Value(),
			message: describe(fe),
		})
	}
	return out
}

// ValidateSlice validates each element independently and keys the
// failures by index. It returns nil when every element passes.
func ValidateSlice[T any](items []T) map[int]*RequestValidationError {
	var failures map[int]*RequestValidationError
	for i := range items {
		verr := ValidateStruct(&items[i])
		if verr == nil {
			continue
		}
		if failures == nil {
			failures = make(map[int]*RequestValidationError)
		}
		failures[i] = verr
	}
	return failures
}

// messages maps a rule tag to its wording. %[1]s is the field, %[2]s the
// rule parameter.
var messages = map[string]string{
	"required": "%[1]s is required",
	"url":      "%[1]s must be a valid URL",
	"slug":     "%[1]s must be a lowercase identifier (a-z, 0-9, '_' or '-')",
	"isoweek":  "%[1]s must be an ISO week such as 2026-W09",
	"oneof":    "%[1]s must be one of: %[2]s",
	"gte":      "%[1]s must be greater than or equal to %[2]s",
	"lte":      "%[1]s must be less than or equal to %[2]s",
	"gt":       "%[1]s must be greater than %[2]s",
	"lt":       "%[1]s must be less than %[2]s",
}

func describe(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()
	if format, ok := messages[tag]; ok {
		return fmt.Sprintf(format, field, param)
	}

	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch tag {
	case "min":
		if unit == "" {
			return fmt.Sprintf("%s must have at least %s", field, param)
		}
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	}
	return fmt.Sprintf("%s failed %s validation", field, tag)
}
