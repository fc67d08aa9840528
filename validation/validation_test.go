package validation

import (
	"testing"

	apperrors "github.com/leeforge/plugincatalog/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID    string `validate:"required"`
	Level string `validate:"omitempty,oneof=debug info"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(sample{ID: "x"}))

	err := Struct(sample{Level: "trace"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "ID is required")
	assert.Contains(t, err.Error(), "Level must be one of: debug info")

	fields := apperrors.FromError(err).Details["fields"].(map[string]string)
	assert.Equal(t, "is required", fields["sample.ID"])
}
