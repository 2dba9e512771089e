package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userId"

func (h *Handler) userIdMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	h.authorize(c, parts[1])
}

// wsAuthMiddleware accepts the token as ?token= since browsers cannot set headers on upgrades.
func (h *Handler) wsAuthMiddleware(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing token",
		})
		return
	}
	h.authorize(c, token)
}

func (h *Handler) authorize(c *gin.Context, token string) {
	userId, err := h.services.ParseToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	// store in Gin context
	c.Set(userIDKey, userId)
	c.Next()
}

// deviceAccessMiddleware rejects requests for devices not linked to the caller with 404.
func (h *Handler) deviceAccessMiddleware(c *gin.Context) {
	deviceID := c.Param("id")
	if err := h.services.CheckAccess(c.Request.Context(), userID(c), deviceID); err != nil {
		h.respondServiceError(c, err, "device_access_check_failed", "device_id", deviceID)
		c.Abort()
		return
	}
	c.Next()
}

func userID(c *gin.Context) int {
	return c.GetInt(userIDKey)
}
