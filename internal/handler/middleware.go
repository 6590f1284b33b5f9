package handler

import (
	"net/http"
	"strings"

	"github.com/cmaas/internal/service"
	"github.com/gin-gonic/gin"
)

const claimsContextKey = "__claims"

// AuthRequired validates the bearer token on every request and stores the
// parsed claims in the request context. Missing or invalid tokens answer
// 401 so clients can clear their session and return to login.
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := a.auth.ParseToken(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// currentClaims returns the claims AuthRequired stored for this request.
func currentClaims(c *gin.Context) service.Claims {
	if value, ok := c.Get(claimsContextKey); ok {
		if claims, ok := value.(service.Claims); ok {
			return claims
		}
	}
	return service.Claims{}
}
