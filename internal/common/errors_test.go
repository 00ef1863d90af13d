package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	cause := errors.New("not a number")

	withLine := NewValidationError(12, "amount", cause)
	assert.Equal(t, "line 12: invalid amount: not a number", withLine.Error())
	assert.ErrorIs(t, withLine, ErrValidation)
	assert.ErrorIs(t, withLine, cause)

	noLine := NewValidationError(0, "pattern", cause)
	assert.Equal(t, "invalid pattern: not a number", noLine.Error())

	var validation *ValidationError
	assert.True(t, errors.As(fmt.Errorf("row failed: %w", withLine), &validation))
	assert.Equal(t, 12, validation.Line)
	assert.Equal(t, "amount", validation.Field)
}

func TestUpstreamError(t *testing.T) {
	tests := []struct {
		name        string
		err         *UpstreamError
		wantMessage string
		wantUser    string
		wantAuth    bool
	}{
		{
			name:        "unauthorized",
			err:         &UpstreamError{Service: "trading212", StatusCode: 401, Err: ErrUnauthorized},
			wantMessage: "trading212 returned status 401: upstream rejected credentials",
			wantUser:    "trading212 rejected the credentials, check API key",
			wantAuth:    true,
		},
		{
			name:        "transport failure",
			err:         &UpstreamError{Service: "plaid", Err: errors.New("connection reset")},
			wantMessage: "plaid request failed: connection reset",
			wantUser:    "plaid is unavailable, try again later",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.err.Error())
			assert.Equal(t, tt.wantUser, tt.err.UserMessage())
			assert.ErrorIs(t, tt.err, ErrUpstream)
			assert.Equal(t, tt.wantAuth, errors.Is(tt.err, ErrUnauthorized))
		})
	}
}

func TestUserError(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := NewUserError("could not read export.csv", cause)

	assert.Equal(t, "could not read export.csv: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "nothing to do", (&UserError{UserMessage: "nothing to do"}).Error())
}

func TestPatternAndStorageErrors(t *testing.T) {
	cause := errors.New("missing closing )")
	pattern := &PatternError{RuleID: "r1", Pattern: "(TESCO", Err: cause}
	assert.Equal(t, `rule r1: invalid pattern "(TESCO": missing closing )`, pattern.Error())
	assert.ErrorIs(t, pattern, cause)

	storage := &StorageError{Op: "import", Err: ErrConflict}
	assert.Equal(t, "storage failure during import: conflict", storage.Error())
	assert.ErrorIs(t, storage, ErrConflict)
}
