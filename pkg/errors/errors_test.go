package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf_FollowsWrappedChain(t *testing.T) {
	base := NewUnavailableError("failed to search offers", context.DeadlineExceeded)
	wrapped := fmt.Errorf("search: %w", base)

	assert.Equal(t, ErrorTypeUnavailable, TypeOf(wrapped))
	assert.True(t, IsUnavailable(wrapped))
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
}

func TestTypeOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrorType(""), TypeOf(fmt.Errorf("boom")))
	assert.False(t, IsNotFound(nil))
}

func TestAppError_Message(t *testing.T) {
	err := NewNotFoundError("pharmacy not provisioned")
	assert.Equal(t, "NOT_FOUND: pharmacy not provisioned", err.Error())
	assert.True(t, IsNotFound(err))

	conflict := NewConflictError("pharmacy already exists", fmt.Errorf("duplicate key"))
	assert.Equal(t, "CONFLICT: pharmacy already exists: duplicate key", conflict.Error())
	assert.True(t, IsConflict(conflict))
}
