// Package content is the blog's data facade over the CMS. Reads degrade to
// empty results when the CMS has nothing (or is not configured); other
// failures are returned wrapped with the operation that failed.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/cms"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/model"
	apperrors "github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// DefaultFeaturedLimit is used by FeaturedPosts when limit is not positive.
const DefaultFeaturedLimit = 3

var (
	postProps     = []string{"id", "title", "slug", "metadata", "created_at"}
	taxonomyProps = []string{"id", "title", "slug", "metadata"}
)

// CMS is the subset of the CMS client the repository uses.
type CMS interface {
	Configured() bool
	Find(ctx context.Context, q cms.Query) (*cms.FindResult, error)
	FindOne(ctx context.Context, q cms.Query) (json.RawMessage, error)
	InsertOne(ctx context.Context, req cms.InsertRequest) (json.RawMessage, error)
}

type Repository struct {
	cms      CMS
	validate *validator.Validate
	now      func() time.Time
	logger   *slog.Logger
}

func NewRepository(client CMS) *Repository {
	return &Repository{
		cms:      client,
		validate: newValidator(),
		now:      time.Now,
		logger:   slog.Default().With("component", "content"),
	}
}

func (r *Repository) ListPosts(ctx context.Context) ([]model.Post, error) {
	return findAll[model.Post](ctx, r, "posts", cms.Query{
		Type:  model.TypePosts,
		Props: postProps,
		Depth: 1,
		Sort:  "-created_at",
	})
}

// GetPost returns the post with slug, or nil when there is none.
func (r *Repository) GetPost(ctx context.Context, slug string) (*model.Post, error) {
	return findOne[model.Post](ctx, r, "post", cms.Query{
		Type:    model.TypePosts,
		Filters: map[string]any{"slug": slug},
		Depth:   1,
	})
}

func (r *Repository) ListCategories(ctx context.Context) ([]model.Category, error) {
	return findAll[model.Category](ctx, r, "categories", cms.Query{
		Type:  model.TypeCategories,
		Props: taxonomyProps,
		Depth: 1,
	})
}

func (r *Repository) GetCategory(ctx context.Context, slug string) (*model.Category, error) {
	return findOne[model.Category](ctx, r, "category", cms.Query{
		Type:    model.TypeCategories,
		Filters: map[string]any{"slug": slug},
		Depth:   1,
	})
}

func (r *Repository) ListAuthors(ctx context.Context) ([]model.Author, error) {
	return findAll[model.Author](ctx, r, "authors", cms.Query{
		Type:  model.TypeAuthors,
		Props: taxonomyProps,
		Depth: 1,
	})
}

func (r *Repository) GetAuthor(ctx context.Context, slug string) (*model.Author, error) {
	return findOne[model.Author](ctx, r, "author", cms.Query{
		Type:    model.TypeAuthors,
		Filters: map[string]any{"slug": slug},
		Depth:   1,
	})
}

// PostsByCategory lists posts tagged with the category ID, newest first.
func (r *Repository) PostsByCategory(ctx context.Context, categoryID string) ([]model.Post, error) {
	return r.postsWhere(ctx, "posts by category", "metadata.categories", categoryID)
}

// PostsByAuthor lists posts written by the author ID, newest first.
func (r *Repository) PostsByAuthor(ctx context.Context, authorID string) ([]model.Post, error) {
	return r.postsWhere(ctx, "posts by author", "metadata.author", authorID)
}

// PostsByCategorySlug resolves slug against the category collection and lists
// its posts. An unknown slug yields no posts.
func (r *Repository) PostsByCategorySlug(ctx context.Context, slug string) ([]model.Post, error) {
	categories, err := r.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if c.Slug == slug {
			return r.PostsByCategory(ctx, c.ID)
		}
	}
	return []model.Post{}, nil
}

// PostsByAuthorSlug resolves slug against the author collection and lists
// their posts. An unknown slug yields no posts.
func (r *Repository) PostsByAuthorSlug(ctx context.Context, slug string) ([]model.Post, error) {
	authors, err := r.ListAuthors(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range authors {
		if a.Slug == slug {
			return r.PostsByAuthor(ctx, a.ID)
		}
	}
	return []model.Post{}, nil
}

// FeaturedPosts lists up to limit posts with the featured flag set.
func (r *Repository) FeaturedPosts(ctx context.Context, limit int) ([]model.Post, error) {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	return findAll[model.Post](ctx, r, "featured posts", cms.Query{
		Type:    model.TypePosts,
		Filters: map[string]any{"metadata.featured": true},
		Props:   postProps,
		Depth:   1,
		Sort:    "-created_at",
		Limit:   limit,
	})
}

func (r *Repository) postsWhere(ctx context.Context, op, field, id string) ([]model.Post, error) {
	return findAll[model.Post](ctx, r, op, cms.Query{
		Type:    model.TypePosts,
		Filters: map[string]any{field: id},
		Props:   postProps,
		Depth:   1,
		Sort:    "-created_at",
	})
}

// CreatePost validates p and inserts it as a published post. An empty
// publication date defaults to today (UTC).
func (r *Repository) CreatePost(ctx context.Context, p model.NewPost) (*model.Post, error) {
	p = normalizeNewPost(p).WithDefaults(r.now())
	if err := validateNewPost(r.validate, p); err != nil {
		return nil, err
	}

	metadata := map[string]any{
		"title":            p.Title,
		"excerpt":          p.Excerpt,
		"content":          p.Content,
		"categories":       p.CategoryIDs,
		"publication_date": p.PublicationDate,
		"featured":         p.Featured,
	}
	if p.AuthorID != "" {
		metadata["author"] = p.AuthorID
	}

	raw, err := r.cms.InsertOne(ctx, cms.InsertRequest{
		Title:    p.Title,
		Type:     model.TypePosts,
		Status:   "published",
		Metadata: metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	var post model.Post
	if err := json.Unmarshal(raw, &post); err != nil {
		return nil, fmt.Errorf("decoding created post: %w", err)
	}
	r.logger.Info("post created", "id", post.ID, "slug", post.Slug)
	return &post, nil
}

// absent reports whether err means "nothing there" rather than a failure.
func absent(err error) bool {
	return cms.IsNotFound(err) || errors.Is(err, apperrors.ErrNotConfigured)
}

func findAll[T any](ctx context.Context, r *Repository, op string, q cms.Query) ([]T, error) {
	result, err := r.cms.Find(ctx, q)
	if err != nil {
		if absent(err) {
			if errors.Is(err, apperrors.ErrNotConfigured) {
				r.logger.Warn("cms not configured, returning no results", "operation", op)
			}
			return []T{}, nil
		}
		return nil, fmt.Errorf("fetching %s: %w", op, err)
	}
	items, err := cms.Decode[T](result.Objects)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", op, err)
	}
	return items, nil
}

func findOne[T any](ctx context.Context, r *Repository, op string, q cms.Query) (*T, error) {
	raw, err := r.cms.FindOne(ctx, q)
	if err != nil {
		if absent(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching %s: %w", op, err)
	}
	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", op, err)
	}
	return &item, nil
}
