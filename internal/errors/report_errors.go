package errors

import (
	"errors"
	"fmt"
	"strings"
)

// SchemaError reports required columns missing from an input dataset.
// It is fatal and raised before any filtering happens.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: missing required column(s): %s", strings.Join(e.Missing, ", "))
}

// NewSchemaError creates a SchemaError for the given column names.
func NewSchemaError(missing ...string) *SchemaError {
	return &SchemaError{Missing: missing}
}

// EmptyResultWarning marks a stage that produced no rows. It is never
// returned as a failure; stages attach it to their results and continue
// with empty-state content.
type EmptyResultWarning struct {
	Stage string
	Rows  int
}

func (w *EmptyResultWarning) Error() string {
	return fmt.Sprintf("empty result after %s (%d input rows)", w.Stage, w.Rows)
}

// RenderError reports an image or document encoding fault.
type RenderError struct {
	Stage string
	Cause error
}

func (e *RenderError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("render error in %s", e.Stage)
	}
	return fmt.Sprintf("render error in %s: %v", e.Stage, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// NewRenderError wraps cause as a RenderError for stage.
func NewRenderError(stage string, cause error) *RenderError {
	return &RenderError{Stage: stage, Cause: cause}
}

// IsSchemaError reports whether err wraps a SchemaError.
func IsSchemaError(err error) bool {
	var target *SchemaError
	return errors.As(err, &target)
}

// IsRenderError reports whether err wraps a RenderError.
func IsRenderError(err error) bool {
	var target *RenderError
	return errors.As(err, &target)
}

// IsEmptyResult reports whether err is an EmptyResultWarning.
func IsEmptyResult(err error) bool {
	var target *EmptyResultWarning
	return errors.As(err, &target)
}
