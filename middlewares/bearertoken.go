package middlewares

import (
	"CareDesk/apperrors"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const requestIDHeader = "X-Request-ID"

// ValidateBearerToken guards operator endpoints with a static token.
func ValidateBearerToken(expectedBearerToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			HttpError(c, apperrors.Unauthenticated("authorization header is missing"))
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			HttpError(c, apperrors.Unauthenticated("invalid authorization header format"))
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if !secureCompare(token, expectedBearerToken) {
			HttpError(c, apperrors.Unauthenticated("invalid bearer token"))
			return
		}
		c.Next()
	}
}

// secureCompare compares in constant time.
func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// LoggingMiddleware tags the request with an id and logs its outcome.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		}
		if actor, ok := ActorFromContext(c); ok {
			event = event.Str("actor", actor.ID)
		}
		event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
