package models

import (
	"time"
)

// Article represents a blog post as served by the remote API
type Article struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArticleInput is the payload for creating or updating an article
type ArticleInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// IsOwnedBy reports whether username wrote the article.
func (a Article) IsOwnedBy(username string) bool {
	return username != "" && a.Author.Username == username
}

// WasEdited reports whether the article changed after publication.
func (a Article) WasEdited() bool {
	return a.UpdatedAt.After(a.CreatedAt)
}
