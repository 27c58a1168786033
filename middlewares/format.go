package middlewares

import (
	"CareDesk/apperrors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RespondJSON writes a JSON response to the client.
func RespondJSON(c *gin.Context, data interface{}, status int) {
	c.JSON(status, data)
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindDenied:
		return http.StatusForbidden
	case apperrors.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict, apperrors.KindDuplicate, apperrors.KindReferenceInUse:
		return http.StatusConflict
	case apperrors.KindInvalidTransition, apperrors.KindReferenceNotFound:
		return http.StatusUnprocessableEntity
	case apperrors.KindInvalidValue:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// HttpError writes the error response matching err's kind and aborts the
// chain. Unclassified errors are logged and reported without detail.
func HttpError(c *gin.Context, err error) {
	status := StatusOf(err)
	e, ok := apperrors.As(err)
	if !ok {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("request failed")
		c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
		return
	}

	body := gin.H{"error": e.Message, "kind": e.Kind}
	if e.Reason != "" {
		body["reason"] = e.Reason
	}
	c.AbortWithStatusJSON(status, body)
}
