package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
	"github.com/nteezflix/nteezflix/src/internal/validation"
)

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(credentials{Email: "a@example.com", Password: "password123"}))
	assert.NoError(t, v.Validate(domain.WatchlistItem{ID: 42, Title: "Dune", MediaType: domain.MediaTypeMovie}))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		input     any
		wantField string
		wantMsg   string
	}{
		{
			name:      "invalid email",
			input:     credentials{Email: "nope", Password: "password123"},
			wantField: "email",
			wantMsg:   "must be a valid email address",
		},
		{
			name:      "short password",
			input:     credentials{Email: "a@example.com", Password: "short"},
			wantField: "password",
			wantMsg:   "must be at least 8 characters",
		},
		{
			name:      "bad media type",
			input:     domain.WatchlistItem{ID: 1, MediaType: "podcast"},
			wantField: "mediaType",
			wantMsg:   "must be one of: movie tv",
		},
		{
			name:      "zero id",
			input:     domain.WatchlistItem{MediaType: domain.MediaTypeTV},
			wantField: "id",
			wantMsg:   "is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			require.Error(t, err)

			var domainErr *errors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, errors.CodeValidation, domainErr.Code)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
			assert.Contains(t, err.Error(), tt.wantField)
		})
	}
}

func TestValidator_Var(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Var("email", "a@example.com", "required,email"))

	err := v.Var("email", "", "required,email")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Equal(t, "email is required", err.Error())
}
