package middlewares

import (
	"CareDesk/apperrors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusOf(t *testing.T) {
	cases := map[int]error{
		http.StatusForbidden:           apperrors.Denied("no-role", "nope"),
		http.StatusUnauthorized:        apperrors.Unauthenticated("who"),
		http.StatusNotFound:            apperrors.NotFound("gone"),
		http.StatusConflict:            errors.Wrap(apperrors.Conflict("stale"), "dispense"),
		http.StatusUnprocessableEntity: apperrors.InvalidTransition("final"),
		http.StatusBadRequest:          apperrors.InvalidValue("bad"),
		http.StatusInternalServerError: errors.New("boom"),
	}
	for status, err := range cases {
		assert.Equal(t, status, StatusOf(err), err.Error())
	}
	assert.Equal(t, http.StatusConflict, StatusOf(apperrors.Duplicate("twice")))
	assert.Equal(t, http.StatusConflict, StatusOf(apperrors.ReferenceInUse("held")))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusOf(apperrors.ReferenceNotFound("missing")))
}

func TestHttpErrorHidesUnclassified(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	HttpError(c, errors.New("dial tcp 10.0.0.1: refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.1")
	assert.True(t, c.IsAborted())
}

func serve(r *gin.Engine, header string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestValidateBearerToken(t *testing.T) {
	r := gin.New()
	r.Use(ValidateBearerToken("s3cret-token"))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, serve(r, ""))
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Basic abc"))
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer s3cret-tokem"))
	assert.Equal(t, http.StatusOK, serve(r, "Bearer s3cret-token"))
}

func TestRateLimiterPerClient(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiterMiddleware(RateLimiterConfig{RequestsPerSecond: 0.001, Burst: 1}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	from := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.2"))
}

func TestExtractToken(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", extractToken(c))

	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.AddCookie(&http.Cookie{Name: "accessToken", Value: "from-cookie"})
	assert.Equal(t, "from-cookie", extractToken(c))

	c.Request.Header.Set("Authorization", "Token abc")
	assert.Equal(t, "", extractToken(c))
}
