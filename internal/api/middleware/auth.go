package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// SubjectKey is the gin context key for the authenticated subject
const SubjectKey = "subject"

// TokenParser verifies a bearer token and returns its subject
type TokenParser interface {
	Parse(token string) (string, error)
}

// Auth rejects requests without a valid bearer token.
// Browsers cannot set headers on a websocket upgrade, so access_token is
// accepted as a query parameter as well.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			unauthorized(c, "Missing bearer token")
			return
		}

		subject, err := parser.Parse(token)
		if err != nil {
			log.Warn().
				Err(err).
				Str("request_id", GetRequestID(c)).
				Str("path", c.Request.URL.Path).
				Msg("Rejected bearer token")
			unauthorized(c, "Invalid bearer token")
			return
		}

		c.Set(SubjectKey, subject)
		c.Next()
	}
}

// GetSubject returns the authenticated subject, if any
func GetSubject(c *gin.Context) string {
	return c.GetString(SubjectKey)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("access_token")
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":       "UNAUTHORIZED",
			"message":    message,
			"request_id": GetRequestID(c),
			"timestamp":  time.Now(),
		},
	})
}
