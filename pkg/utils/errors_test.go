package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorCodes(t *testing.T) {
	assert.Equal(t, CodeNotFound, GetErrorCode(ErrGroupNotFound))
	assert.Equal(t, CodeConflict, GetErrorCode(ErrRequestResolved))
	assert.Equal(t, CodeForbidden, GetErrorCode(ErrNotYourRequest))
	assert.Equal(t, CodeInternal, GetErrorCode(errors.New("raw db error")))
}

func TestMapInternal(t *testing.T) {
	assert.Nil(t, MapInternal(nil))

	// AppErrors pass through untouched
	assert.Equal(t, ErrOrderNotFound, MapInternal(ErrOrderNotFound))

	// anything else becomes a wrapped internal error
	raw := errors.New("connection refused")
	mapped := MapInternal(raw)
	assert.Equal(t, CodeInternal, GetErrorCode(mapped))
	assert.ErrorIs(t, mapped, raw)
}

func TestMapInternalNilStaysNilThroughErrorInterface(t *testing.T) {
	// a service returning MapInternal's result directly must yield a nil
	// error interface on success, not a typed-nil pointer
	call := func() error {
		return MapInternal(nil)
	}
	assert.NoError(t, call())
	assert.True(t, call() == nil)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "order not found", UserMessage(ErrOrderNotFound))

	// internal errors never leak their cause
	raw := errors.New("dial tcp 10.0.0.5:3306: connect: connection refused")
	msg := UserMessage(MapInternal(raw))
	assert.Equal(t, "something went wrong, try again later", msg)
	assert.NotContains(t, msg, "10.0.0.5")
}

func TestNewInsufficientFunds(t *testing.T) {
	err := NewInsufficientFunds(550)
	assert.Equal(t, CodeBadRequest, err.Code)
	assert.Contains(t, err.Message, "£5.50")
}
