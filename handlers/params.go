package handlers

import (
	"CareDesk/apperrors"
	"CareDesk/middlewares"
	"CareDesk/policy"
	"CareDesk/repositories"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// actorOf returns the authenticated actor or writes a 401.
func actorOf(c *gin.Context) (policy.Actor, bool) {
	actor, ok := middlewares.ActorFromContext(c)
	if !ok {
		middlewares.HttpError(c, apperrors.Unauthenticated("not authenticated"))
	}
	return actor, ok
}

// bindJSON decodes the body. Enum fields reject unknown values while
// decoding, so their classified error is kept.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if _, ok := apperrors.As(err); !ok {
			err = apperrors.InvalidValue("invalid request body: %v", err)
		}
		middlewares.HttpError(c, err)
		return false
	}
	return true
}

func pageOf(c *gin.Context) (repositories.Page, bool) {
	var p repositories.Page
	var err error
	if v := c.Query("limit"); v != "" {
		if p.Limit, err = strconv.Atoi(v); err != nil {
			middlewares.HttpError(c, apperrors.InvalidValue("limit must be an integer"))
			return p, false
		}
	}
	if v := c.Query("offset"); v != "" {
		if p.Offset, err = strconv.Atoi(v); err != nil {
			middlewares.HttpError(c, apperrors.InvalidValue("offset must be an integer"))
			return p, false
		}
	}
	return p, true
}

// timeQuery parses an optional RFC 3339 query parameter.
func timeQuery(c *gin.Context, name string) (*time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		middlewares.HttpError(c, apperrors.InvalidValue("%s must be an RFC 3339 timestamp", name))
		return nil, false
	}
	return &t, true
}
