package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mentorly/api/internal/middleware"
)

// The frontend renders the actual pages; these endpoints exist so the route
// policy has concrete targets for its redirects and so layout code can probe
// whether a page is reachable. Each one runs after SessionResolve and
// RoutePolicy, so reaching a handler means the request was allowed.
func (h HandlerSet) registerPages(engine *gin.Engine) {
	pages := []string{
		"/",
		"/login",
		"/register",
		"/mentors/login",
		"/mentors/register",
		"/admin/login",
		"/students",
		"/mentors/dashboard",
		"/admin/dashboard",
	}

	for _, path := range pages {
		engine.GET(path, h.page(path))
	}
}

func (h HandlerSet) page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{"page": name}
		if identity := middleware.CurrentIdentity(c); identity != nil {
			resp["user"] = toIdentityResponse(*identity)
		}
		c.JSON(http.StatusOK, resp)
	}
}
