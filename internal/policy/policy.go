// Package policy is the declarative route-access table: path prefixes mapped
// to guest-only or role-scoped rules, evaluated before any handler runs.
// Denials are always redirects, never raw error pages.
package policy

import (
	"net/url"
	"strings"

	"mentorly/api/internal/models"
)

type Outcome int

const (
	Allowed Outcome = iota
	RedirectToLogin
	RedirectToRoleHome
	RedirectToGuestHome
)

// Decision is the resolved outcome for one request. Target is the redirect
// destination when Outcome is not Allowed.
type Decision struct {
	Outcome Outcome
	Target  string
}

type Rule struct {
	Prefix    string
	GuestOnly bool
	// Roles is the allowed set for a protected route. Empty with
	// GuestOnly=false means any authenticated identity.
	Roles []models.Role
}

const GuestHome = "/"

var roleHomes = map[models.Role]string{
	models.RoleStudent: "/students",
	models.RoleMentor:  "/mentors/dashboard",
	models.RoleAdmin:   "/admin/dashboard",
}

var loginPaths = map[models.Role]string{
	models.RoleStudent: "/login",
	models.RoleMentor:  "/mentors/login",
	models.RoleAdmin:   "/admin/login",
}

// RoleHome returns the landing page for a role, or the guest home for an
// unknown role.
func RoleHome(role models.Role) string {
	if home, ok := roleHomes[role]; ok {
		return home
	}
	return GuestHome
}

// LoginPath returns the login page for a role, defaulting to the student one.
func LoginPath(role models.Role) string {
	if p, ok := loginPaths[role]; ok {
		return p
	}
	return loginPaths[models.RoleStudent]
}

type Policy struct {
	rules []Rule
}

func New(rules []Rule) *Policy {
	return &Policy{rules: rules}
}

// Default is the platform route table. Longest prefix wins, so
// /mentors/login stays guest-only even though /mentors is mentor-scoped.
func Default() *Policy {
	return New([]Rule{
		{Prefix: "/login", GuestOnly: true},
		{Prefix: "/register", GuestOnly: true},
		{Prefix: "/mentors/login", GuestOnly: true},
		{Prefix: "/mentors/register", GuestOnly: true},
		{Prefix: "/admin/login", GuestOnly: true},

		{Prefix: "/students", Roles: []models.Role{models.RoleStudent}},
		{Prefix: "/mentors", Roles: []models.Role{models.RoleMentor}},
		{Prefix: "/admin", Roles: []models.Role{models.RoleAdmin}},

		{Prefix: "/api/v1/messages"},
		{Prefix: "/api/v1/conversations"},
		{Prefix: "/api/v1/forum"},
		{Prefix: "/api/v1/admin", Roles: []models.Role{models.RoleAdmin}},
	})
}

// Evaluate resolves the decision for a path given the resolved identity
// (nil means unauthenticated). It does no I/O and must run before any data
// is fetched for the route.
func (p *Policy) Evaluate(path string, identity *models.Identity) Decision {
	rule, ok := p.match(path)
	if !ok {
		return Decision{Outcome: Allowed}
	}

	if rule.GuestOnly {
		if identity == nil {
			return Decision{Outcome: Allowed}
		}
		if _, known := roleHomes[identity.Role]; !known {
			return Decision{Outcome: RedirectToGuestHome, Target: GuestHome}
		}
		return Decision{Outcome: RedirectToRoleHome, Target: RoleHome(identity.Role)}
	}

	if identity == nil {
		target := LoginPath(loginRoleForPath(path))
		return Decision{
			Outcome: RedirectToLogin,
			Target:  target + "?next=" + url.QueryEscape(path),
		}
	}

	if len(rule.Roles) == 0 {
		return Decision{Outcome: Allowed}
	}
	for _, role := range rule.Roles {
		if identity.Role == role {
			return Decision{Outcome: Allowed}
		}
	}
	if _, known := roleHomes[identity.Role]; !known {
		return Decision{Outcome: RedirectToGuestHome, Target: GuestHome}
	}
	return Decision{Outcome: RedirectToRoleHome, Target: RoleHome(identity.Role)}
}

func (p *Policy) match(path string) (Rule, bool) {
	var (
		best  Rule
		found bool
	)
	for _, rule := range p.rules {
		if !matchesPrefix(path, rule.Prefix) {
			continue
		}
		if !found || len(rule.Prefix) > len(best.Prefix) {
			best = rule
			found = true
		}
	}
	return best, found
}

// matchesPrefix is a path-segment prefix match: /mentors matches
// /mentors/dashboard but not /mentorship.
func matchesPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// loginRoleForPath picks which login surface to bounce an unauthenticated
// request to, based on the area of the site being requested.
func loginRoleForPath(path string) models.Role {
	switch {
	case strings.HasPrefix(path, "/admin"):
		return models.RoleAdmin
	case strings.HasPrefix(path, "/mentors"):
		return models.RoleMentor
	default:
		return models.RoleStudent
	}
}
