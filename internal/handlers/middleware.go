package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	authHeaderName = "Authorization"
	bearerScheme   = "Bearer"

	// gin context key under which the authenticated user id is stored
	ctxUserID = "userId"
)

// userIdMiddleware guards the API group: it requires a "Bearer <token>"
// Authorization header, validates the token through the auth service and
// stores the resulting user id in the request context.
func (h *Handler) userIdMiddleware(c *gin.Context) {
	header := c.GetHeader(authHeaderName)
	if header == "" {
		abortUnauthorized(c, "missing Authorization header")
		return
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != bearerScheme || token == "" {
		abortUnauthorized(c, "invalid Authorization header format")
		return
	}

	userID, err := h.services.ParseToken(token)
	if err != nil {
		abortUnauthorized(c, "invalid or expired token")
		return
	}

	c.Set(ctxUserID, userID)
	c.Next()
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
