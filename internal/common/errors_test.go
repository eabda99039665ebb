package common

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserError(t *testing.T) {
	t.Run("with wrapped cause", func(t *testing.T) {
		err := NewUserError("could not read the document", ErrNotFound)
		assert.Equal(t, "could not read the document: not found", err.Error())
		assert.ErrorIs(t, err, ErrNotFound)

		var userErr *UserError
		assert.ErrorAs(t, err, &userErr)
		assert.Equal(t, "could not read the document", userErr.UserMessage)
	})

	t.Run("message only", func(t *testing.T) {
		err := NewUserError("nothing to quote", nil)
		assert.Equal(t, "nothing to quote", err.Error())
	})
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "explicit retryable", err: &RetryableError{Err: errors.New("rate limited"), Retryable: true}, want: true},
		{name: "explicit permanent", err: &RetryableError{Err: errors.New("bad request"), Retryable: false}, want: false},
		{name: "plain error is transient", err: errors.New("connection reset"), want: true},
		{name: "cancellation is final", err: context.Canceled, want: false},
		{name: "wrapped cancellation is final", err: NewUserError("aborted", context.Canceled), want: false},
		{name: "deadline is transient", err: context.DeadlineExceeded, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
