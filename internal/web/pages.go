package web

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/model"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/logger"
)

// load runs fn and degrades any error to the zero value, logging it. Page
// reads never fail the request; a CMS outage shows as missing content.
func load[T any](ctx context.Context, what string, fn func(context.Context) (T, error)) T {
	v, err := fn(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("content load failed", "what", what, "error", err)
		var zero T
		return zero
	}
	return v
}

type homeView struct {
	Featured   *model.Post
	Posts      []model.Post
	Categories []model.Category
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	var (
		posts      []model.Post
		categories []model.Category
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		posts = load(ctx, "posts", s.content.ListPosts)
		return nil
	})
	g.Go(func() error {
		categories = load(ctx, "categories", s.content.ListCategories)
		return nil
	})
	_ = g.Wait()

	data := homeView{Categories: categories, Posts: make([]model.Post, 0, len(posts))}
	for i := range posts {
		if posts[i].Metadata.Featured {
			if data.Featured == nil {
				data.Featured = &posts[i]
			}
			continue
		}
		data.Posts = append(data.Posts, posts[i])
	}

	v := s.newView("", data)
	v.Nav = categories
	s.render(w, r, http.StatusOK, "home", v)
}

type postView struct {
	Post *model.Post
}

func (s *Server) post(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	post := load(r.Context(), "post "+slug, func(ctx context.Context) (*model.Post, error) {
		return s.content.GetPost(ctx, slug)
	})
	if post == nil {
		s.notFound(w, r)
		return
	}
	s.render(w, r, http.StatusOK, "post", s.newView(post.EffectiveTitle(), postView{Post: post}))
}

type categoryView struct {
	Category *model.Category
	Posts    []model.Post
}

func (s *Server) category(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	var data categoryView
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		data.Category = load(ctx, "category "+slug, func(ctx context.Context) (*model.Category, error) {
			return s.content.GetCategory(ctx, slug)
		})
		return nil
	})
	g.Go(func() error {
		data.Posts = load(ctx, "category posts "+slug, func(ctx context.Context) ([]model.Post, error) {
			return s.content.PostsByCategorySlug(ctx, slug)
		})
		return nil
	})
	_ = g.Wait()

	if data.Category == nil {
		s.notFound(w, r)
		return
	}
	s.render(w, r, http.StatusOK, "category", s.newView(data.Category.DisplayName(), data))
}

type authorView struct {
	Author *model.Author
	Posts  []model.Post
}

func (s *Server) author(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	var data authorView
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		data.Author = load(ctx, "author "+slug, func(ctx context.Context) (*model.Author, error) {
			return s.content.GetAuthor(ctx, slug)
		})
		return nil
	})
	g.Go(func() error {
		data.Posts = load(ctx, "author posts "+slug, func(ctx context.Context) ([]model.Post, error) {
			return s.content.PostsByAuthorSlug(ctx, slug)
		})
		return nil
	})
	_ = g.Wait()

	if data.Author == nil {
		s.notFound(w, r)
		return
	}
	s.render(w, r, http.StatusOK, "author", s.newView(data.Author.DisplayName(), data))
}

// Search page states.
const (
	searchEmpty   = "empty"
	searchShort   = "short"
	searchNone    = "none"
	searchResults = "results"
)

type searchView struct {
	State     string
	Query     string
	MinLength int
	Posts     []model.Post
	Total     int
}

func (s *Server) searchPage(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("q")
	query := strings.TrimSpace(raw)
	data := searchView{Query: query, MinLength: s.search.MinQueryLength()}

	title := "Search Posts"
	switch {
	case query == "":
		data.State = searchEmpty
	case utf8.RuneCountInString(query) < data.MinLength:
		data.State = searchShort
	default:
		title = `Search results for "` + query + `"`
		result, err := s.search.Search(r.Context(), raw, analytics.SourcePage)
		if err != nil {
			// Logged by the search service; the page shows the empty state.
			result.Posts = nil
			result.Total = 0
		}
		data.Posts = result.Posts
		data.Total = result.Total
		data.State = searchResults
		if data.Total == 0 {
			data.State = searchNone
		}
	}
	s.render(w, r, http.StatusOK, "search", s.newView(title, data))
}
