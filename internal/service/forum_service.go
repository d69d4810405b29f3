package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"mentorly/api/internal/ids"
	"mentorly/api/internal/models"
	"mentorly/api/internal/repository"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrEmptyTitle      = errors.New("post title required")
	ErrTitleTooLong    = errors.New("post title too long")
	ErrPostTooLong     = errors.New("post content too long")
)

const (
	maxPostTitleLen   = 200
	maxPostContentLen = 5000
)

type ForumStore interface {
	Create(ctx context.Context, post models.Post) error
	List(ctx context.Context, limit, offset int) ([]models.Post, error)
	GetByID(ctx context.Context, id string) (models.Post, error)
	SetFlagged(ctx context.Context, id string, flagged bool) error
	Delete(ctx context.Context, id string) error
}

type ForumService struct {
	store ForumStore
	log   zerolog.Logger
}

func NewForumService(store ForumStore, log zerolog.Logger) *ForumService {
	return &ForumService{store: store, log: log}
}

func (s *ForumService) CreatePost(ctx context.Context, author models.Identity, title, content string) (models.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Post{}, ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > maxPostTitleLen {
		return models.Post{}, ErrTitleTooLong
	}
	if strings.TrimSpace(content) == "" {
		return models.Post{}, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > maxPostContentLen {
		return models.Post{}, ErrPostTooLong
	}

	post := models.Post{
		ID:         ids.New(),
		AuthorID:   author.ID,
		AuthorName: author.DisplayName,
		AuthorRole: author.Role,
		Title:      title,
		Content:    content,
	}
	if err := s.store.Create(ctx, post); err != nil {
		return models.Post{}, err
	}
	return post, nil
}

func (s *ForumService) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	return s.store.List(ctx, limit, offset)
}

// Flag marks a post for moderator review. Flagging twice is a no-op.
func (s *ForumService) Flag(ctx context.Context, postID string) error {
	if err := s.store.SetFlagged(ctx, postID, true); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	return nil
}

// Remove deletes a post. Callers must have already passed the admin route
// guard; the service does not re-check the role.
func (s *ForumService) Remove(ctx context.Context, postID string) error {
	if err := s.store.Delete(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	return nil
}
