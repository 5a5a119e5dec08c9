package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/construction-pm-api/internal/constants"
	apierrors "github.com/yukikurage/construction-pm-api/internal/errors"
)

// RequireIDParam parses the :id path parameter and stores it in the context.
// what names the resource in the error message, e.g. "task".
func RequireIDParam(what string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || id == 0 {
			apierrors.BadRequest(c, "Invalid "+what+" ID")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyResourceID, id)
		c.Next()
	}
}

// GetIDParam retrieves the ID stored by RequireIDParam
func GetIDParam(c *gin.Context) uint64 {
	id, _ := c.Get(constants.ContextKeyResourceID)
	v, _ := id.(uint64)
	return v
}
