package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mentorly/api/internal/models"
	"mentorly/api/internal/policy"
)

// RequireRoles guards a route group with an allowed-role set. Denials are
// redirect-driven like everywhere else: unauthenticated goes to the login
// page, a wrong role goes to its own home.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	roleSet := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		identity := CurrentIdentity(c)
		if identity == nil {
			c.Redirect(http.StatusFound, policy.LoginPath(models.RoleStudent))
			c.Abort()
			return
		}

		if _, ok := roleSet[identity.Role]; !ok {
			c.Redirect(http.StatusFound, policy.RoleHome(identity.Role))
			c.Abort()
			return
		}

		c.Next()
	}
}
