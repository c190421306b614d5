// Package web serves the blog: server-rendered pages, the search API, the
// admin login and the session-gated dashboard.
package web

import (
	"context"
	"embed"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/auth/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/model"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/search"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/session"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Content is the data facade the pages read from.
type Content interface {
	ListPosts(ctx context.Context) ([]model.Post, error)
	GetPost(ctx context.Context, slug string) (*model.Post, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, slug string) (*model.Category, error)
	ListAuthors(ctx context.Context) ([]model.Author, error)
	GetAuthor(ctx context.Context, slug string) (*model.Author, error)
	PostsByCategorySlug(ctx context.Context, slug string) ([]model.Post, error)
	PostsByAuthorSlug(ctx context.Context, slug string) ([]model.Post, error)
	CreatePost(ctx context.Context, p model.NewPost) (*model.Post, error)
}

type Options struct {
	Content  Content
	Search   *search.Service
	Sessions *session.Manager
	// LoginLimiter throttles POST /login per client IP. Nil disables it.
	LoginLimiter *ratelimit.Limiter
	Health       *health.Checker
	Tracker      search.Tracker
	Metrics      *metrics.Metrics

	CookieName     string
	SecureCookies  bool
	AllowOrigins   []string
	RequestTimeout time.Duration
	Tracing        bool

	DropdownLimit int
	Debounce      time.Duration
}

type Server struct {
	content   Content
	search    *search.Service
	searchAPI *search.Handler
	sessions  *session.Manager
	limiter   *ratelimit.Limiter
	health    *health.Checker
	tracker   search.Tracker
	metrics   *metrics.Metrics
	pages     *pages
	opts      Options
	now       func() time.Time
	logger    *slog.Logger
}

func NewServer(opts Options) (*Server, error) {
	if opts.CookieName == "" {
		opts.CookieName = "admin-session"
	}
	if opts.DropdownLimit <= 0 {
		opts.DropdownLimit = 5
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}
	if opts.Health == nil {
		opts.Health = health.NewChecker()
	}
	p, err := loadPages(templateFS, NewMarkdown())
	if err != nil {
		return nil, err
	}
	return &Server{
		content:   opts.Content,
		search:    opts.Search,
		searchAPI: search.NewHandler(opts.Search),
		sessions:  opts.Sessions,
		limiter:   opts.LoginLimiter,
		health:    opts.Health,
		tracker:   opts.Tracker,
		metrics:   opts.Metrics,
		pages:     p,
		opts:      opts,
		now:       time.Now,
		logger:    slog.Default().With("component", "web"),
	}, nil
}

func (s *Server) trackPostCreated(ctx context.Context, p *model.Post) {
	if s.metrics != nil {
		s.metrics.PostsCreatedTotal.Inc()
	}
	if s.tracker == nil || p == nil {
		return
	}
	s.tracker.Track(analytics.PostCreatedEvent{
		Type:      analytics.EventPostCreated,
		PostID:    p.ID,
		Slug:      p.Slug,
		Title:     p.EffectiveTitle(),
		Timestamp: s.now().UTC(),
		RequestID: requestID(ctx),
	})
}

func (s *Server) countLogin(result string) {
	if s.metrics != nil {
		s.metrics.LoginAttemptsTotal.WithLabelValues(result).Inc()
	}
}
