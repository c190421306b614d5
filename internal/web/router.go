package web

import (
	"io/fs"
	"net/http"

	pkgmw "github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/middleware"
)

// Routes builds the site handler.
//
// Route table:
//
//	GET  /                    home
//	GET  /posts/{slug}        post page
//	GET  /categories/{slug}   category page
//	GET  /authors/{slug}      author page
//	GET  /search              search results page
//	GET  /api/search          search API (typeahead)
//	GET  /login, POST /login  admin login
//	POST /logout              admin logout
//	GET  /dashboard           post list              (session)
//	GET  /dashboard/create    editor                 (session)
//	POST /dashboard/create    create from the editor (session)
//	POST /api/posts           create from JSON       (session)
//	GET  /static/             embedded assets
//	GET  /health/live, /health/ready
//
// Middleware chain (outermost first):
//
//	RequestID → Tracing → Timeout → CORS → Metrics → mux
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", s.health.LiveHandler())
	mux.HandleFunc("GET /health/ready", s.health.ReadyHandler())

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	// Public pages
	mux.HandleFunc("GET /{$}", s.home)
	mux.HandleFunc("GET /posts/{slug}", s.post)
	mux.HandleFunc("GET /categories/{slug}", s.category)
	mux.HandleFunc("GET /authors/{slug}", s.author)
	mux.HandleFunc("GET /search", s.searchPage)
	mux.HandleFunc("GET /api/search", s.searchAPI.API)

	// Admin
	mux.HandleFunc("GET /login", s.loginPage)
	mux.HandleFunc("POST /login", s.login)
	mux.HandleFunc("POST /logout", s.logout)
	mux.Handle("GET /dashboard", s.RequireSession(http.HandlerFunc(s.dashboard)))
	mux.Handle("GET /dashboard/create", s.RequireSession(http.HandlerFunc(s.createForm)))
	mux.Handle("POST /dashboard/create", s.RequireSession(http.HandlerFunc(s.createFromForm)))
	mux.Handle("POST /api/posts", s.RequireSession(http.HandlerFunc(s.createAPI)))

	mux.HandleFunc("/", s.notFound)

	var chain http.Handler = mux
	if s.metrics != nil {
		chain = pkgmw.Metrics(s.metrics)(chain)
	}
	chain = CORS(defaultCORSConfig(s.opts.AllowOrigins))(chain)
	if s.opts.RequestTimeout > 0 {
		chain = pkgmw.Timeout(s.opts.RequestTimeout)(chain)
	}
	chain = pkgmw.Tracing(s.opts.Tracing)(chain)
	chain = pkgmw.RequestID(chain)
	return chain
}
