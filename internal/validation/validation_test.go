package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/internal/errcode"
)

type sample struct {
	Title   string `json:"title" validate:"required"`
	Company string `json:"company" validate:"required"`
	Note    string `json:"note"`
	Email   string `json:"email" validate:"omitempty,email"`
}

func TestStructReportsMissingFieldsInOrder(t *testing.T) {
	err := Struct(sample{})
	require.Error(t, err)

	e, ok := errcode.As(err)
	require.True(t, ok)
	assert.Equal(t, errcode.CodeValidation, e.Code)
	assert.Equal(t, []string{"title", "company"}, e.Fields)
	assert.Equal(t, "Missing required fields: title, company", e.Message)
}

func TestStructPassesCompletePayload(t *testing.T) {
	assert.NoError(t, Struct(sample{Title: "t", Company: "c"}))
}

func TestStructReportsInvalidValue(t *testing.T) {
	err := Struct(sample{Title: "t", Company: "c", Email: "not-an-email"})
	require.Error(t, err)
	assert.Equal(t, "Invalid value for email", err.Error())
}
