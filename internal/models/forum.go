package models

import "time"

type Post struct {
	ID         string
	AuthorID   string
	AuthorName string
	AuthorRole Role
	Title      string
	Content    string
	Flagged    bool
	CreatedAt  time.Time
}
