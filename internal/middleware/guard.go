package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mentorly/api/internal/models"
	"mentorly/api/internal/policy"
	"mentorly/api/internal/session"
)

const identityKey = "current_identity"

// SessionResolve reads the auth cookies and resolves them to an identity
// using only the signed payload; there is no store lookup at request time.
// A cookie that fails to decode is cleared on the response (self-healing)
// and the request continues unauthenticated. Decode failures never abort
// the request here; the route policy decides what unauthenticated means.
func SessionResolve(codec *session.Codec, cookies session.Cookies) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range session.AuthCookieNames {
			raw, err := c.Cookie(name)
			if err != nil || raw == "" {
				continue
			}

			payload, err := codec.Decode(raw)
			if err != nil {
				cookies.Clear(c, name)
				continue
			}

			identity := normalize(payload)
			c.Set(identityKey, identity)
			break
		}
		c.Next()
	}
}

// normalize fills the optional payload fields the way the original cookie
// format did: role defaults to student, year to 1, college to empty.
func normalize(p session.Payload) models.Identity {
	role := p.Role
	if !role.Valid() {
		role = models.RoleStudent
	}
	attrs := p.Attributes
	if role == models.RoleStudent && attrs.Year == 0 {
		attrs.Year = 1
	}

	return models.Identity{
		ID:          p.IdentityID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Role:        role,
		Status:      models.IdentityStatusActive,
		Attributes:  attrs,
	}
}

// CurrentIdentity returns the resolved identity for this request, or nil
// when the request is unauthenticated.
func CurrentIdentity(c *gin.Context) *models.Identity {
	val, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, ok := val.(models.Identity)
	if !ok {
		return nil
	}
	return &identity
}

// RoutePolicy enforces the access table. It runs after SessionResolve and
// before any handler, so no protected data is fetched for a denied request.
func RoutePolicy(pol *policy.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := pol.Evaluate(c.Request.URL.Path, CurrentIdentity(c))
		if decision.Outcome == policy.Allowed {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, decision.Target)
		c.Abort()
	}
}
