package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/auth/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/cms"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/cms/cmstest"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/content"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/search"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/session"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/resilience"
)

type recordingTracker struct {
	mu     sync.Mutex
	events []analytics.Typed
}

func (r *recordingTracker) Track(e analytics.Typed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingTracker) ofType(t analytics.EventType) []analytics.Typed {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []analytics.Typed
	for _, e := range r.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	cms     *cmstest.Server
	handler http.Handler
	tracker *recordingTracker
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, configure ...func(*Options)) *testEnv {
	t.Helper()
	fake := cmstest.NewServer(t)
	fake.Seed(t)

	client := cms.New(cms.Config{
		APIURL:      fake.URL,
		WorkersURL:  fake.URL,
		BucketSlug:  cmstest.Bucket,
		ReadKey:     cmstest.ReadKey,
		WriteKey:    cmstest.WriteKey,
		Environment: "production",
		Retry:       resilience.RetryConfig{MaxAttempts: 1},
	})
	return newTestEnvWith(t, fake, content.NewRepository(client), configure...)
}

func newTestEnvWith(t *testing.T, fake *cmstest.Server, repo *content.Repository, configure ...func(*Options)) *testEnv {
	t.Helper()
	tracker := &recordingTracker{}
	m := metrics.New(prometheus.NewRegistry())

	creds, err := session.CredentialsFrom(config.AuthConfig{AdminEmail: "admin@test.com", AdminPassword: "testpass10"})
	require.NoError(t, err)

	opts := Options{
		Content:        repo,
		Search:         search.NewService(repo, search.Options{Tracker: tracker, Metrics: m}),
		Sessions:       session.NewManager(creds, session.NewMemoryStore(), 7*24*time.Hour),
		Tracker:        tracker,
		Metrics:        m,
		RequestTimeout: 5 * time.Second,
	}
	for _, fn := range configure {
		fn(&opts)
	}
	srv, err := NewServer(opts)
	require.NoError(t, err)
	return &testEnv{cms: fake, handler: srv.Routes(), tracker: tracker, metrics: m}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(t *testing.T, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(t, req)
}

func (e *testEnv) postForm(t *testing.T, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(t, req)
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := e.postForm(t, "/login", url.Values{"email": {"admin@test.com"}, "password": {"testpass10"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "admin-session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func parse(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func postSlugs(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.AttrOr("data-post", ""))
	})
	return out
}

func TestHomePage(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)

	assert.Equal(t, "Welcome to Our Blog", strings.TrimSpace(doc.Find(".hero h1").Text()))
	assert.Equal(t, []string{"concurrency-patterns"}, postSlugs(doc.Find(".featured article")))
	assert.Equal(t, []string{"lisbon-notes", "intro-to-go"}, postSlugs(doc.Find(".latest .post-card")))
	assert.Equal(t, "https://imgix.example/p2.jpg?fit=crop&h=500&w=800&auto=format,compress",
		doc.Find(".featured-image img").AttrOr("src", ""))

	var pills []string
	doc.Find(".category-filter a").Each(func(_ int, s *goquery.Selection) {
		pills = append(pills, s.Text())
	})
	assert.Equal(t, []string{"All Posts", "Programming", "Travel"}, pills)
	assert.Equal(t, "background-color: #3B82F6", doc.Find(`.featured .badge`).AttrOr("style", ""))
	assert.Zero(t, doc.Find(".empty-state").Length())
}

func TestHomePageDegradesWhenCMSFails(t *testing.T) {
	env := newTestEnv(t)
	env.cms.FailWith(http.StatusInternalServerError)

	rec := env.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)
	assert.Equal(t, "No posts available at the moment.", strings.TrimSpace(doc.Find(".empty-state").Text()))
}

func TestHomePageUnconfiguredCMS(t *testing.T) {
	fake := cmstest.NewServer(t)
	env := newTestEnvWith(t, fake, content.NewRepository(cms.New(cms.Config{})))

	rec := env.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No posts available at the moment.")
	assert.Zero(t, fake.FindCount())
}

func TestPostPage(t *testing.T) {
	env := newTestEnv(t)

	t.Run("renders markdown and author", func(t *testing.T) {
		rec := env.get(t, "/posts/intro-to-go")
		require.Equal(t, http.StatusOK, rec.Code)
		doc := parse(t, rec)

		assert.Equal(t, "Intro to Go", doc.Find(".post-header h1").Text())
		assert.Equal(t, "Getting started.", doc.Find(".post-excerpt").Text())
		assert.Equal(t, "January 1, 2024", doc.Find(".post-meta time").Text())
		assert.Equal(t, "golang", doc.Find(".prose strong").Text())
		assert.Equal(t, "Writes about engines.", doc.Find(".about-author .author-bio").Text())
		assert.Equal(t, "/authors/ada", doc.Find(".about-author .author-name").AttrOr("href", ""))
		assert.Equal(t, "Programming", doc.Find(".post-header .badge").Text())
		assert.Contains(t, doc.Find("title").Text(), "Intro to Go")
	})

	t.Run("featured image", func(t *testing.T) {
		doc := parse(t, env.get(t, "/posts/concurrency-patterns"))
		assert.Equal(t, "https://imgix.example/p2.jpg?fit=crop&h=600&w=1200&auto=format,compress",
			doc.Find("img.post-image").AttrOr("src", ""))
	})

	t.Run("missing", func(t *testing.T) {
		rec := env.get(t, "/posts/nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Page Not Found")
	})
}

func TestCategoryPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/categories/programming")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)
	assert.Equal(t, "Programming", doc.Find(".taxonomy-title h1").Text())
	assert.Equal(t, "Code and tools", doc.Find(".taxonomy-header p").Text())
	assert.Equal(t, 1, doc.Find(".swatch").Length())
	assert.Equal(t, []string{"concurrency-patterns", "intro-to-go"}, postSlugs(doc.Find(".post-card")))

	doc = parse(t, env.get(t, "/categories/travel"))
	assert.Zero(t, doc.Find(".swatch").Length())
	assert.Equal(t, []string{"lisbon-notes"}, postSlugs(doc.Find(".post-card")))

	assert.Equal(t, http.StatusNotFound, env.get(t, "/categories/cooking").Code)
}

func TestCategoryPageWithoutPosts(t *testing.T) {
	env := newTestEnv(t)
	env.cms.Add(t, map[string]any{
		"id": "cat-empty", "slug": "empty", "title": "Empty", "type": "categories",
		"metadata": map[string]any{"name": "Empty"},
	})

	doc := parse(t, env.get(t, "/categories/empty"))
	assert.Equal(t, "No posts found in this category.", strings.TrimSpace(doc.Find(".empty-state").Text()))
}

func TestAuthorPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/authors/rob")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)
	assert.Equal(t, "Posts by Rob", doc.Find("main > h2").Text())
	assert.Equal(t, "Concurrency.", doc.Find(".author-bio").First().Text())
	assert.Equal(t, []string{"lisbon-notes", "concurrency-patterns"}, postSlugs(doc.Find(".post-card")))

	doc = parse(t, env.get(t, "/authors/ada"))
	assert.Equal(t, "https://twitter.com/ada", doc.Find(".author-social a").AttrOr("href", ""))

	assert.Equal(t, http.StatusNotFound, env.get(t, "/authors/nobody").Code)
}

func TestSearchPage(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		query string
		text  string
		slugs []string
	}{
		{"empty", "", "Enter a search term to find posts.", nil},
		{"whitespace", "   ", "Enter a search term to find posts.", nil},
		{"too short", "g", "Search terms must be at least 2 characters.", nil},
		{"no results", "xyz-nonexistent", `No posts match your search for "xyz-nonexistent". Try different keywords.`, nil},
		{"ranked", "golang", `Found 2 posts for "golang"`, []string{"concurrency-patterns", "intro-to-go"}},
		{"singular", "lisbon", `Found 1 post for "lisbon"`, []string{"lisbon-notes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.get(t, "/search?q="+url.QueryEscape(tt.query))
			require.Equal(t, http.StatusOK, rec.Code)
			doc := parse(t, rec)
			assert.Contains(t, doc.Find(".search-page").Text(), tt.text)
			assert.Equal(t, tt.slugs, postSlugs(doc.Find(".result-list .post-card")))
		})
	}

	before := env.cms.FindCount()
	env.get(t, "/search?q=g")
	assert.Equal(t, before, env.cms.FindCount(), "short queries never reach the CMS")

	events := env.tracker.ofType(analytics.EventSearch)
	require.NotEmpty(t, events)
	assert.Equal(t, analytics.SourcePage, events[0].(analytics.SearchEvent).Source)
}

func TestSearchAPI(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/api/search?q=golang")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Posts []struct {
			Slug string `json:"slug"`
		} `json:"posts"`
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 2, body.Total)
	require.Len(t, body.Posts, 2)
	assert.Equal(t, "concurrency-patterns", body.Posts[0].Slug)

	env.cms.FailWith(http.StatusInternalServerError)
	rec = env.get(t, "/api/search?q=golang")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"posts":[],"total":0,"error":"Failed to search posts"}`, rec.Body.String())
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	t.Run("form", func(t *testing.T) {
		rec := env.get(t, "/login")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, parse(t, rec).Find(`form[action="/login"]`).Length())
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := env.postForm(t, "/login", url.Values{"email": {"admin@test.com"}, "password": {"nope"}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		doc := parse(t, rec)
		assert.Equal(t, "Invalid email or password", doc.Find(".form-error").Text())
		assert.Equal(t, "admin@test.com", doc.Find("#email").AttrOr("value", ""))
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("success sets cookie", func(t *testing.T) {
		rec := env.postForm(t, "/login", url.Values{"email": {"admin@test.com"}, "password": {"testpass10"}})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, "admin-session", c.Name)
		assert.Len(t, c.Value, 64)
		assert.True(t, c.HttpOnly)
		assert.False(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.Equal(t, 7*24*60*60, c.MaxAge)
		assert.Equal(t, "/", c.Path)

		again := env.get(t, "/login", c)
		assert.Equal(t, http.StatusSeeOther, again.Code)
		assert.Equal(t, "/dashboard", again.Header().Get("Location"))
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.LoginAttemptsTotal.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.LoginAttemptsTotal.WithLabelValues("success")))
}

func TestLoginSecureCookieInProduction(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.SecureCookies = true })
	assert.True(t, env.login(t).Secure)
}

func TestLoginThrottle(t *testing.T) {
	limiter := ratelimit.New(2, time.Minute)
	t.Cleanup(limiter.Close)
	env := newTestEnv(t, func(o *Options) { o.LoginLimiter = limiter })

	bad := url.Values{"email": {"admin@test.com"}, "password": {"wrong"}}
	assert.Equal(t, http.StatusUnauthorized, env.postForm(t, "/login", bad).Code)
	assert.Equal(t, http.StatusUnauthorized, env.postForm(t, "/login", bad).Code)

	rec := env.postForm(t, "/login", url.Values{"email": {"admin@test.com"}, "password": {"testpass10"}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Too many login attempts")
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.LoginAttemptsTotal.WithLabelValues("throttled")))
}

func TestDashboardRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/dashboard", "/dashboard/create"} {
		rec := env.get(t, path)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}

	forged := &http.Cookie{Name: "admin-session", Value: "authenticated"}
	assert.Equal(t, http.StatusSeeOther, env.get(t, "/dashboard", forged).Code)

	cookie := env.login(t)
	rec := env.get(t, "/dashboard", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)
	assert.Equal(t, "Create New Post", doc.Find(".dashboard-head a").Text())
	assert.Equal(t, []string{"lisbon-notes", "concurrency-patterns", "intro-to-go"}, postSlugs(doc.Find(".dashboard-list li")))
	assert.Equal(t, 1, doc.Find(`form[action="/logout"]`).Length())
}

func TestCreateForm(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	rec := env.get(t, "/dashboard/create", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)

	var authors []string
	doc.Find("#author option").Each(func(_ int, s *goquery.Selection) {
		authors = append(authors, s.Text())
	})
	assert.Equal(t, []string{"Select an author", "Ada Lovelace", "Rob"}, authors)
	assert.Equal(t, 2, doc.Find(`input[name="categories"]`).Length())
	assert.Equal(t, time.Now().UTC().Format(time.DateOnly), doc.Find("#publication_date").AttrOr("value", ""))
}

func TestCreateFromForm(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	t.Run("validation error keeps input", func(t *testing.T) {
		rec := env.postForm(t, "/dashboard/create", url.Values{
			"title":      {"Draft title"},
			"categories": {"cat-travel"},
		}, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		doc := parse(t, rec)
		assert.Equal(t, "content is required", doc.Find(".form-error").Text())
		assert.Equal(t, "Draft title", doc.Find("#title").AttrOr("value", ""))
		_, checked := doc.Find(`input[value="cat-travel"]`).Attr("checked")
		assert.True(t, checked)
		assert.Empty(t, env.cms.Inserted())
	})

	t.Run("created", func(t *testing.T) {
		rec := env.postForm(t, "/dashboard/create", url.Values{
			"title":            {"Fresh Post"},
			"content":          {"Body"},
			"author":           {"author-ada"},
			"categories":       {"cat-programming", "cat-travel"},
			"publication_date": {"2024-05-01"},
			"featured":         {"true"},
		}, cookie)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

		inserted := env.cms.Inserted()
		require.Len(t, inserted, 1)
		meta := inserted[0]["metadata"].(map[string]any)
		assert.Equal(t, "author-ada", meta["author"])
		assert.Equal(t, []any{"cat-programming", "cat-travel"}, meta["categories"])
		assert.Equal(t, true, meta["featured"])
		assert.Len(t, env.tracker.ofType(analytics.EventPostCreated), 1)
	})

	t.Run("upstream failure", func(t *testing.T) {
		env.cms.FailWith(http.StatusInternalServerError)
		t.Cleanup(func() { env.cms.FailWith(0) })
		rec := env.postForm(t, "/dashboard/create", url.Values{"title": {"T"}, "content": {"C"}}, cookie)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "Failed to create post")
	})
}

func TestCreateAPI(t *testing.T) {
	env := newTestEnv(t)

	post := func(body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		for _, c := range cookies {
			req.AddCookie(c)
		}
		return env.do(t, req)
	}

	rec := post(`{"title":"x","content":"y"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())

	cookie := env.login(t)

	rec = post(`{not json`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(`{"excerpt":"no title"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var verr fieldErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&verr))
	assert.Equal(t, "content is required", verr.Fields["content"])
	assert.Equal(t, "title is required", verr.Fields["title"])

	rec = post(`{"title":"Hello API","content":"Some *markdown*","categories":["cat-travel"]}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var created struct {
		Success bool `json:"success"`
		Post    struct {
			ID   string `json:"id"`
			Slug string `json:"slug"`
		} `json:"post"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.True(t, created.Success)
	assert.Equal(t, "hello-api", created.Post.Slug)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.PostsCreatedTotal))

	events := env.tracker.ofType(analytics.EventPostCreated)
	require.Len(t, events, 1)
	assert.Equal(t, "hello-api", events[0].(analytics.PostCreatedEvent).Slug)

	env.cms.FailWith(http.StatusInternalServerError)
	rec = post(`{"title":"Again","content":"y"}`, cookie)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to create post"}`, rec.Body.String())
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	require.Equal(t, http.StatusOK, env.get(t, "/dashboard", cookie).Code)

	rec := env.postForm(t, "/logout", url.Values{}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)

	assert.Equal(t, http.StatusSeeOther, env.get(t, "/dashboard", cookie).Code)
}

func TestInfrastructureRoutes(t *testing.T) {
	env := newTestEnv(t)

	t.Run("static", func(t *testing.T) {
		rec := env.get(t, "/static/search.js")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "/api/search?q=")
	})

	t.Run("health", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, env.get(t, "/health/live").Code)
		assert.Equal(t, http.StatusOK, env.get(t, "/health/ready").Code)
	})

	t.Run("unknown path", func(t *testing.T) {
		rec := env.get(t, "/no/such/page")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Page Not Found")
	})

	t.Run("request id", func(t *testing.T) {
		assert.NotEmpty(t, env.get(t, "/").Header().Get("X-Request-ID"))
	})

	t.Run("cors preflight on api only", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
		req.Header.Set("Origin", "https://reader.example")
		rec := env.do(t, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://reader.example", rec.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://reader.example")
		assert.Empty(t, env.do(t, req).Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("route metrics", func(t *testing.T) {
		env.get(t, "/posts/intro-to-go")
		assert.Equal(t, 1.0, testutil.ToFloat64(
			env.metrics.HTTPRequestsTotal.WithLabelValues("GET", "GET /posts/{slug}", "200")))
	})
}
