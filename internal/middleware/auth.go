package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pairchat-service/internal/auth"
)

const UserIDKey = "userID"

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthMiddleware validates the bearer token and stores the user id in the gin context.
func AuthMiddleware(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthenticated(c)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			unauthenticated(c)
			return
		}

		claims, err := tokens.Verify(parts[1])
		if err != nil {
			unauthenticated(c)
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

func unauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": auth.MessageFor(auth.CodeUnauthenticated),
		"code":  auth.CodeUnauthenticated,
	})
}
