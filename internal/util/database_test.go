package util

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestHandleDBErrorNilError(t *testing.T) {
	c, w := newTestContext()
	assert.False(t, HandleDBError(c, nil, "post"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestHandleDBErrorRecordNotFound(t *testing.T) {
	c, w := newTestContext()
	assert.True(t, HandleDBError(c, gorm.ErrRecordNotFound, "post"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "post")
}

func TestHandleDBErrorOtherErrorsAreInternal(t *testing.T) {
	c, w := newTestContext()
	assert.True(t, HandleDBError(c, fmt.Errorf("connection refused"), "post"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
