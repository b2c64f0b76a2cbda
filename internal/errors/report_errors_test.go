package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaError(t *testing.T) {
	err := NewSchemaError("date", "winner")

	assert.Equal(t, "schema error: missing required column(s): date, winner", err.Error())
	assert.True(t, IsSchemaError(fmt.Errorf("normalize: %w", err)))
	assert.False(t, IsSchemaError(errors.New("other")))

	var target *SchemaError
	wrapped := NewParsingError("dataset rejected", err)
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, []string{"date", "winner"}, target.Missing)
}

func TestRenderError(t *testing.T) {
	cause := errors.New("bad png")
	err := NewRenderError("document", cause)

	assert.Equal(t, "render error in document: bad png", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRenderError(fmt.Errorf("assemble: %w", err)))

	assert.Equal(t, "render error in chart", NewRenderError("chart", nil).Error())
}

func TestEmptyResultWarning(t *testing.T) {
	w := &EmptyResultWarning{Stage: "filter", Rows: 10}

	assert.Equal(t, "empty result after filter (10 input rows)", w.Error())
	assert.True(t, IsEmptyResult(w))
	assert.False(t, IsEmptyResult(NewSchemaError("date")))
}

func TestAppError(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := NewParsingError("failed to read csv", cause).WithContext("line", 3)

	assert.Equal(t, "[PARSING] failed to read csv: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, err.Context["line"])

	assert.Equal(t, "[VALIDATION] bad range", NewAppValidationError("bad range").Error())
}
