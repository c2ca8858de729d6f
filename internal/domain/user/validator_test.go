package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordValidator_ValidateEmail(t *testing.T) {
	validator := NewPasswordValidator()

	tests := []struct {
		name        string
		email       string
		wantErr     bool
		expectedErr string
	}{
		{name: "valid", email: "keeper@pine.golf"},
		{name: "valid with plus", email: "keeper+night@pine.golf"},
		{name: "empty", email: "", wantErr: true, expectedErr: "email is required"},
		{name: "no at", email: "keeper.pine.golf", wantErr: true, expectedErr: "email is not a valid address"},
		{name: "display name", email: "Keeper <keeper@pine.golf>", wantErr: true, expectedErr: "email is not a valid address"},
		{name: "too long", email: strings.Repeat("a", 250) + "@b.co", wantErr: true, expectedErr: "email must be at most 254 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateEmail(tt.email)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.expectedErr, err.Error())
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPasswordValidator_ValidatePassword(t *testing.T) {
	tests := []struct {
		name        string
		strict      bool
		password    string
		expectedErr string
	}{
		{name: "min length", password: "12345678"},
		{name: "max length", password: strings.Repeat("x", 128)},
		{name: "too short", password: "1234567", expectedErr: "password must be at least 8 characters"},
		{name: "too long", password: strings.Repeat("x", 129), expectedErr: "password must be at most 128 characters"},
		{name: "multibyte counts runes", password: "пароль12"},
		{name: "strict needs letter", strict: true, password: "12345678", expectedErr: "password must contain at least one letter"},
		{name: "strict needs digit", strict: true, password: "abcdefgh", expectedErr: "password must contain at least one digit"},
		{name: "strict ok", strict: true, password: "fairway18"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := NewPasswordValidator()
			if tt.strict {
				validator = NewStrictPasswordValidator()
			}
			err := validator.ValidatePassword(tt.password)
			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedErr, err.Error())
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPasswordValidator_ValidateRegister(t *testing.T) {
	validator := NewPasswordValidator()

	assert.NoError(t, validator.ValidateRegister("a@b.co", "12345678"))

	err := validator.ValidateRegister("bad", "12345678")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email validation failed")

	err = validator.ValidateRegister("a@b.co", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password validation failed")
}
