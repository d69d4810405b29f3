package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mentorly/api/internal/middleware"
	"mentorly/api/internal/models"
	"mentorly/api/internal/policy"
	"mentorly/api/internal/service"
	"mentorly/api/internal/session"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type identityResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	Year        int    `json:"year,omitempty"`
	College     string `json:"college,omitempty"`
	Approval    string `json:"approvalStatus,omitempty"`
}

func toIdentityResponse(identity models.Identity) identityResponse {
	return identityResponse{
		ID:          identity.ID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		Role:        string(identity.Role),
		Year:        identity.Attributes.Year,
		College:     identity.Attributes.College,
		Approval:    string(identity.Attributes.ApprovalStatus),
	}
}

func (h HandlerSet) Login(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error"})
			return
		}

		identity, err := h.auth.Login(c.Request.Context(), role, req.Email, req.Password)
		if err != nil {
			h.loginError(c, err)
			return
		}

		if err := h.issueSession(c, identity); err != nil {
			h.log.Error().Err(err).Str("identity_id", identity.ID).Msg("issue session failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login_failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user":     toIdentityResponse(identity),
			"redirect": policy.RoleHome(identity.Role),
		})
	}
}

// loginError maps the typed login failures onto stable codes. The no-account
// vs wrong-password split is intentional, see the auth service.
func (h HandlerSet) loginError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error"})
	case errors.Is(err, service.ErrAccountNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no_account_found"})
	case errors.Is(err, service.ErrIncorrectPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect_password"})
	case errors.Is(err, service.ErrAccountDeactivated):
		c.JSON(http.StatusForbidden, gin.H{"error": "account_deactivated"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login_failed"})
	}
}

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"displayName" binding:"required"`
	Year        int    `json:"year"`
	College     string `json:"college"`
}

func (h HandlerSet) RegisterAccount(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error"})
			return
		}

		identity, err := h.auth.Register(c.Request.Context(), role, service.RegisterInput{
			Email:       req.Email,
			Password:    req.Password,
			DisplayName: req.DisplayName,
			Year:        req.Year,
			College:     req.College,
		})
		if err != nil {
			if errors.Is(err, service.ErrEmailTaken) {
				c.JSON(http.StatusConflict, gin.H{"error": "email_taken"})
				return
			}
			if errors.Is(err, service.ErrMissingCredentials) || errors.Is(err, service.ErrUnknownRole) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration_failed"})
			return
		}

		if err := h.issueSession(c, identity); err != nil {
			h.log.Error().Err(err).Str("identity_id", identity.ID).Msg("issue session failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration_failed"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"user":     toIdentityResponse(identity),
			"redirect": policy.RoleHome(identity.Role),
		})
	}
}

// issueSession is the only place a session is written.
func (h HandlerSet) issueSession(c *gin.Context, identity models.Identity) error {
	token, err := h.codec.Encode(session.Payload{
		IdentityID:  identity.ID,
		DisplayName: identity.DisplayName,
		Email:       identity.Email,
		Role:        identity.Role,
		Attributes:  identity.Attributes,
	})
	if err != nil {
		return err
	}
	h.cookies.Set(c, session.CookieNameForRole(identity.Role), token)
	return nil
}

// Logout clears the full auth cookie set and reports the login page to land
// on, with a cache-busting query so stale authenticated pages are not served
// from cache. Identical behavior with or without a prior session.
func (h HandlerSet) Logout(c *gin.Context) {
	role := models.RoleStudent
	if identity := middleware.CurrentIdentity(c); identity != nil {
		role = identity.Role
	}

	h.cookies.ClearAll(c)

	target := fmt.Sprintf("%s?loggedOut=%d", policy.LoginPath(role), time.Now().Unix())
	c.JSON(http.StatusOK, gin.H{"redirect": target})
}

// SessionCheck is the cheap guest-check surface: cookie decode only, no
// store access, so layouts can branch without a data fetch.
func (h HandlerSet) SessionCheck(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"role":          string(identity.Role),
		"redirect":      policy.RoleHome(identity.Role),
	})
}
