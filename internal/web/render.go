package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/model"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/middleware"
)

var pageNames = []string{
	"home", "post", "category", "author", "search",
	"login", "dashboard", "create", "notfound", "error",
}

type pages struct {
	byName map[string]*template.Template
}

// authorCardView parameterises the authorCard partial.
type authorCardView struct {
	Author     *model.Author
	ShowBio    bool
	ShowSocial bool
}

func loadPages(fsys fs.FS, md *Markdown) (*pages, error) {
	funcs := templateFuncs(md)
	funcs["authorView"] = func(a *model.Author, bio, social bool) authorCardView {
		return authorCardView{Author: a, ShowBio: bio, ShowSocial: social}
	}
	p := &pages{byName: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(fsys,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		p.byName[name] = t
	}
	return p, nil
}

type searchBox struct {
	MinLength int
	Window    int
	DelayMs   int64
}

// view is the data every page template receives.
type view struct {
	Title  string
	Nav    []model.Category
	Admin  bool
	Search searchBox
	Data   any
}

func (s *Server) newView(title string, data any) view {
	return view{
		Title: title,
		Search: searchBox{
			MinLength: s.search.MinQueryLength(),
			Window:    s.opts.DropdownLimit,
			DelayMs:   s.opts.Debounce.Milliseconds(),
		},
		Data: data,
	}
}

// render executes a page into a buffer first so template failures produce a
// clean 500 rather than a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, v view) {
	t, ok := s.pages.byName[name]
	if !ok {
		logger.FromContext(r.Context()).Error("unknown template", "name", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		logger.FromContext(r.Context()).Error("template render failed", "name", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.FromContext(r.Context()).Debug("writing page failed", "name", name, "error", err)
	}
}

type notFoundView struct {
	Message string
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "notfound", s.newView("Not Found", notFoundView{}))
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusInternalServerError, "error", s.newView("Error", nil))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func requestID(ctx context.Context) string {
	return middleware.GetRequestID(ctx)
}
