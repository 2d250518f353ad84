package util

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HandleDBError maps a record-fetch error to the right HTTP response:
// missing rows become a 404 for the named resource, anything else a 500.
// Returns true when a response was sent and the handler should stop.
func HandleDBError(c *gin.Context, err error, resource string) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		RespondNotFound(c, resource)
		return true
	}

	RespondInternalError(c, "Failed to fetch "+resource)
	return true
}
