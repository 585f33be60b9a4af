package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"localfund/internal/model"
	"localfund/internal/paging"
)

const communityBase = "/api/community"

// PostQuery selects a post listing. Keyword wins over Category.
type PostQuery struct {
	Category string
	Keyword  string
}

// Posts returns one page of posts, newest first.
func (c *Client) Posts(ctx context.Context, q PostQuery, page, size int) (List[model.Post], error) {
	query := pageQuery(page, size)
	path := communityBase + "/posts"

	switch {
	case strings.TrimSpace(q.Keyword) != "":
		path += "/search"
		query.Set("keyword", strings.TrimSpace(q.Keyword))
	case q.Category != "":
		path += "/category/" + url.PathEscape(q.Category)
	default:
		query.Set("sort", "createdAt,desc")
	}
	return getList[model.Post](ctx, c, path, query)
}

// PostSource pages Posts.
func (c *Client) PostSource(q PostQuery) paging.Source[model.Post] {
	return paging.SourceFunc[model.Post](func(ctx context.Context, index, size int) (paging.Page[model.Post], error) {
		list, err := c.Posts(ctx, q, index, size)
		if err != nil {
			return paging.Page[model.Post]{}, err
		}
		return list.Page(index), nil
	})
}

// Post fetches a single post. The backend counts the view.
func (c *Client) Post(ctx context.Context, id int64) (model.Post, error) {
	var p model.Post
	err := c.get(ctx, fmt.Sprintf("%s/posts/%d", communityBase, id), nil, &p)
	return p, err
}

// CreatePost publishes a post.
func (c *Client) CreatePost(ctx context.Context, p model.Post) (model.Post, error) {
	var out model.Post
	err := c.post(ctx, communityBase+"/posts", p, &out)
	return out, err
}

// UpdatePost edits a post.
func (c *Client) UpdatePost(ctx context.Context, p model.Post) (model.Post, error) {
	var out model.Post
	err := c.put(ctx, fmt.Sprintf("%s/posts/%d", communityBase, p.ID), p, &out)
	return out, err
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("%s/posts/%d", communityBase, id), nil)
}

// ToggleLike flips the caller's like and returns the server's resulting state.
func (c *Client) ToggleLike(ctx context.Context, id int64) (model.LikeResult, error) {
	var p model.Post
	if err := c.post(ctx, fmt.Sprintf("%s/posts/%d/like", communityBase, id), nil, &p); err != nil {
		return model.LikeResult{}, err
	}
	return model.LikeResult{PostID: id, Likes: p.Likes, Liked: p.Liked}, nil
}

// Comments lists the comments of a post.
func (c *Client) Comments(ctx context.Context, postID int64) ([]model.Comment, error) {
	list, err := getList[model.Comment](ctx, c, fmt.Sprintf("%s/posts/%d/comments", communityBase, postID), nil)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// AddComment posts a comment as author.
func (c *Client) AddComment(ctx context.Context, postID int64, content string, author model.Member) (model.Comment, error) {
	body := map[string]string{
		"content":     content,
		"author":      author.DisplayName(),
		"authorEmail": author.Email,
	}
	var out model.Comment
	err := c.post(ctx, fmt.Sprintf("%s/posts/%d/comments", communityBase, postID), body, &out)
	return out, err
}

// DeleteComment removes a comment. The author email travels as a query
// parameter since headers cannot carry non-ASCII names.
func (c *Client) DeleteComment(ctx context.Context, postID, commentID int64, authorEmail string) error {
	q := url.Values{}
	q.Set("authorEmail", authorEmail)
	return c.delete(ctx, fmt.Sprintf("%s/posts/%d/comments/%d", communityBase, postID, commentID), q)
}
