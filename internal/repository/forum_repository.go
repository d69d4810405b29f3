package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mentorly/api/internal/models"
)

var ErrPostNotFound = errors.New("post not found")

type ForumRepository struct {
	pool *pgxpool.Pool
}

func NewForumRepository(pool *pgxpool.Pool) *ForumRepository {
	return &ForumRepository{pool: pool}
}

func (r *ForumRepository) Create(ctx context.Context, post models.Post) error {
	const query = `
		INSERT INTO forum_posts (
			id, author_id, author_name, author_role, title, content, flagged, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, FALSE, NOW()
		)
	`
	_, err := r.pool.Exec(ctx, query,
		post.ID,
		post.AuthorID,
		post.AuthorName,
		post.AuthorRole,
		post.Title,
		post.Content,
	)
	return err
}

func (r *ForumRepository) List(ctx context.Context, limit, offset int) ([]models.Post, error) {
	const query = `
		SELECT id, author_id, author_name, author_role, title, content, flagged, created_at
		FROM forum_posts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(
			&post.ID,
			&post.AuthorID,
			&post.AuthorName,
			&post.AuthorRole,
			&post.Title,
			&post.Content,
			&post.Flagged,
			&post.CreatedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *ForumRepository) GetByID(ctx context.Context, id string) (models.Post, error) {
	const query = `
		SELECT id, author_id, author_name, author_role, title, content, flagged, created_at
		FROM forum_posts WHERE id = $1
	`

	var post models.Post
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&post.ID,
		&post.AuthorID,
		&post.AuthorName,
		&post.AuthorRole,
		&post.Title,
		&post.Content,
		&post.Flagged,
		&post.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Post{}, ErrPostNotFound
		}
		return models.Post{}, err
	}
	return post, nil
}

func (r *ForumRepository) SetFlagged(ctx context.Context, id string, flagged bool) error {
	const query = `UPDATE forum_posts SET flagged = $2 WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id, flagged)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *ForumRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM forum_posts WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}
