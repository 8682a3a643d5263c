package blogapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"blogweb/models"
)

// ListArticles returns every published article.
func (c *Client) ListArticles(ctx context.Context) ([]models.Article, error) {
	var articles []models.Article
	if err := c.do(ctx, http.MethodGet, "/blogs", "", nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// SearchArticles searches all articles by title. An empty query lists everything.
func (c *Client) SearchArticles(ctx context.Context, query string) ([]models.Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.ListArticles(ctx)
	}
	var articles []models.Article
	if err := c.do(ctx, http.MethodGet, "/search/"+url.PathEscape(query), "", nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (c *Client) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	var article models.Article
	if err := c.do(ctx, http.MethodGet, "/blogs/"+url.PathEscape(id), "", nil, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

// ListMyArticles returns the articles written by the token's owner.
func (c *Client) ListMyArticles(ctx context.Context, token string) ([]models.Article, error) {
	var articles []models.Article
	if err := c.do(ctx, http.MethodGet, "/my-blogs", token, nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (c *Client) SearchMyArticles(ctx context.Context, token, query string) ([]models.Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.ListMyArticles(ctx, token)
	}
	var articles []models.Article
	if err := c.do(ctx, http.MethodGet, "/my-blogs/search/"+url.PathEscape(query), token, nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (c *Client) CreateArticle(ctx context.Context, token string, input models.ArticleInput) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.do(ctx, http.MethodPost, "/blogs", token, input, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateArticle(ctx context.Context, token, id string, input models.ArticleInput) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.do(ctx, http.MethodPut, "/blogs/"+url.PathEscape(id), token, input, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteArticle(ctx context.Context, token, id string) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.do(ctx, http.MethodDelete, "/blogs/"+url.PathEscape(id), token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
