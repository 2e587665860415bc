package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"gigmarket/internal/model"
)

func TestRequestAction(t *testing.T) {
	status, ok := requestAction("accept")
	assert.True(t, ok)
	assert.Equal(t, int8(model.RequestStatusAccepted), status)

	status, ok = requestAction("decline")
	assert.True(t, ok)
	assert.Equal(t, int8(model.RequestStatusDeclined), status)

	status, ok = requestAction("cancel")
	assert.True(t, ok)
	assert.Equal(t, int8(model.RequestStatusCancelled), status)

	_, ok = requestAction("approve")
	assert.False(t, ok)
}

func TestCompleteAction(t *testing.T) {
	status, ok := completeAction("accept")
	assert.True(t, ok)
	assert.Equal(t, int8(model.CompleteRequestStatusAccepted), status)

	status, ok = completeAction("cancel")
	assert.True(t, ok)
	assert.Equal(t, int8(model.CompleteRequestStatusCancelled), status)

	// declining a completion request is not a thing
	_, ok = completeAction("decline")
	assert.False(t, ok)
}

func TestPageOptions(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newContext := func(query string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/?"+query, nil)
		return c
	}

	t.Run("numeric cursor", func(t *testing.T) {
		opts := pageOptions(newContext("limit=20&cursor=105"))
		assert.Equal(t, "20", opts.Limit)
		assert.Equal(t, uint64(105), opts.Cursor)
	})

	t.Run("absent cursor means first page", func(t *testing.T) {
		opts := pageOptions(newContext("limit=20"))
		assert.Nil(t, opts.Cursor)
	})

	t.Run("limit passes through raw", func(t *testing.T) {
		opts := pageOptions(newContext("limit=everything"))
		assert.Equal(t, "everything", opts.Limit)
	})
}
