package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const actorHeader = "X-Actor-ID"

// Actor extracts the acting user's identity from the X-Actor-ID header and
// stores it on the context. Authentication itself happens upstream of this
// service; the engine only needs to know who to record as the actor.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetHeader(actorHeader)
		if actorID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "missing " + actorHeader + " header",
				},
			})
			return
		}
		c.Set("actorID", actorID)
		c.Next()
	}
}
