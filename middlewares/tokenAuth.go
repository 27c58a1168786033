package middlewares

import (
	"CareDesk/apperrors"
	"CareDesk/policy"
	"CareDesk/services"
	"CareDesk/utils"
	"strings"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// TokenAuthMiddleware authenticates the bearer token or access cookie and
// stores the resolved actor in the context. With provision set, profiles
// are created on first sight of an identity from an external provider.
func TokenAuthMiddleware(verifier utils.TokenVerifier, identity services.IdentityService, access services.AccessService, provision bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			HttpError(c, apperrors.Unauthenticated("missing access token"))
			return
		}

		ctx := c.Request.Context()
		id, err := verifier.Verify(ctx, token)
		if err != nil {
			HttpError(c, err)
			return
		}
		if provision {
			if _, err := identity.EnsureProfile(ctx, id); err != nil {
				HttpError(c, err)
				return
			}
		}

		actor, err := access.ResolveActor(ctx, id.UserID)
		if err != nil {
			HttpError(c, err)
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// extractToken prefers the Authorization header over the session cookie.
func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
		return ""
	}
	token, err := c.Cookie(utils.AccessTokenCookie)
	if err != nil {
		return ""
	}
	return token
}

// ActorFromContext returns the actor stored by TokenAuthMiddleware.
func ActorFromContext(c *gin.Context) (policy.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return policy.Actor{}, false
	}
	actor, ok := v.(policy.Actor)
	return actor, ok
}
