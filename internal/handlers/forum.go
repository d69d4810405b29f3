package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mentorly/api/internal/middleware"
	"mentorly/api/internal/models"
	"mentorly/api/internal/service"
)

type postResponse struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	AuthorRole string    `json:"authorRole"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Flagged    bool      `json:"flagged"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toPostResponse(post models.Post) postResponse {
	return postResponse{
		ID:         post.ID,
		AuthorID:   post.AuthorID,
		AuthorName: post.AuthorName,
		AuthorRole: string(post.AuthorRole),
		Title:      post.Title,
		Content:    post.Content,
		Flagged:    post.Flagged,
		CreatedAt:  post.CreatedAt,
	}
}

func (h HandlerSet) ListForumPosts(c *gin.Context) {
	limit := 50
	offset := 0

	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}

	posts, err := h.forum.ListPosts(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("list forum posts failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}

	items := make([]postResponse, 0, len(posts))
	for _, post := range posts {
		items = append(items, toPostResponse(post))
	}

	c.JSON(http.StatusOK, gin.H{"posts": items})
}

type createPostRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func (h HandlerSet) CreateForumPost(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error"})
		return
	}

	post, err := h.forum.CreatePost(c.Request.Context(), *identity, req.Title, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyTitle),
			errors.Is(err, service.ErrEmptyContent):
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error"})
		case errors.Is(err, service.ErrTitleTooLong),
			errors.Is(err, service.ErrPostTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": "content_too_long"})
		default:
			h.log.Error().Err(err).Msg("create forum post failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": toPostResponse(post)})
}

func (h HandlerSet) FlagForumPost(c *gin.Context) {
	if err := h.forum.Flag(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("flag forum post failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "flag_failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) RemoveForumPost(c *gin.Context) {
	if err := h.forum.Remove(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("remove forum post failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "remove_failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) DeactivateIdentity(c *gin.Context) {
	role := models.Role(c.Param("role"))
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_role"})
		return
	}

	if err := h.auth.Deactivate(c.Request.Context(), role, c.Param("id")); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("deactivate identity failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deactivate_failed"})
		return
	}
	c.Status(http.StatusNoContent)
}
