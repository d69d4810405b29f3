package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mentorly/api/internal/models"
)

const (
	CookieUserData   = "user-data"
	CookieMentorData = "mentor-data"
	CookieAdminData  = "admin-data"
)

// AuthCookieNames is the full set logout must clear, regardless of which
// role the caller logged in as.
var AuthCookieNames = []string{CookieUserData, CookieMentorData, CookieAdminData}

// CookieNameForRole maps a role to its session cookie. Students use the
// historical "user-data" name.
func CookieNameForRole(role models.Role) string {
	switch role {
	case models.RoleMentor:
		return CookieMentorData
	case models.RoleAdmin:
		return CookieAdminData
	default:
		return CookieUserData
	}
}

// Cookies writes and clears the auth cookies with consistent attributes:
// httpOnly, SameSite Lax, path "/", Secure in production.
type Cookies struct {
	Domain string
	Secure bool
	MaxAge time.Duration
}

func (k Cookies) Set(c *gin.Context, name, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, token, int(k.MaxAge.Seconds()), "/", k.Domain, k.Secure, true)
}

func (k Cookies) Clear(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", k.Domain, k.Secure, true)
}

// ClearAll removes every known auth cookie. Safe to call with no session
// present; clearing an absent cookie is a no-op for the browser.
func (k Cookies) ClearAll(c *gin.Context) {
	for _, name := range AuthCookieNames {
		k.Clear(c, name)
	}
}
