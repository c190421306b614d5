package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/content"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/model"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/session"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/logger"
)

const (
	maxPostBodyBytes = 2 << 20

	msgInvalidCredentials = "Invalid email or password"
	msgLoginFailed        = "An error occurred during login"
	msgLoginThrottled     = "Too many login attempts. Please try again later."
	msgCreateFailed       = "Failed to create post"
)

type loginView struct {
	Email string
	Error string
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	if s.authenticated(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login", s.newView("Admin Login", loginView{}))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ip := clientIP(r)
	if s.limiter != nil && !s.limiter.Allow(ip) {
		s.countLogin("throttled")
		logger.FromContext(ctx).Warn("admin login throttled", "client_ip", ip)
		w.Header().Set("Retry-After", "60")
		s.render(w, r, http.StatusTooManyRequests, "login",
			s.newView("Admin Login", loginView{Email: r.PostFormValue("email"), Error: msgLoginThrottled}))
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	token, sess, err := s.sessions.Login(ctx, email, r.PostFormValue("password"))
	if err != nil {
		status, msg := http.StatusUnauthorized, msgInvalidCredentials
		if errors.Is(err, session.ErrInvalidCredentials) {
			s.countLogin("invalid")
		} else {
			s.countLogin("error")
			logger.FromContext(ctx).Error("admin login failed", "error", err)
			status, msg = http.StatusInternalServerError, msgLoginFailed
		}
		s.render(w, r, status, "login", s.newView("Admin Login", loginView{Email: email, Error: msg}))
		return
	}

	s.countLogin("success")
	if s.limiter != nil {
		s.limiter.Reset(ip)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(s.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(s.opts.CookieName); err == nil {
		if err := s.sessions.Logout(r.Context(), c.Value); err != nil {
			logger.FromContext(r.Context()).Error("admin logout failed", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type dashboardView struct {
	Posts []model.Post
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	posts := load(r.Context(), "posts", s.content.ListPosts)
	v := s.newView("Dashboard", dashboardView{Posts: posts})
	v.Admin = true
	s.render(w, r, http.StatusOK, "dashboard", v)
}

type editorView struct {
	Form       model.NewPost
	Categories []model.Category
	Authors    []model.Author
	Error      string
}

// Selected reports whether the category is ticked in the submitted form.
func (e *editorView) Selected(id string) bool {
	return slices.Contains(e.Form.CategoryIDs, id)
}

func (s *Server) renderEditor(w http.ResponseWriter, r *http.Request, status int, form model.NewPost, message string) {
	data := &editorView{Form: form, Error: message}
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		data.Categories = load(ctx, "categories", s.content.ListCategories)
		return nil
	})
	g.Go(func() error {
		data.Authors = load(ctx, "authors", s.content.ListAuthors)
		return nil
	})
	_ = g.Wait()

	v := s.newView("Create Post", data)
	v.Admin = true
	s.render(w, r, status, "create", v)
}

func (s *Server) createForm(w http.ResponseWriter, r *http.Request) {
	form := model.NewPost{}.WithDefaults(s.now())
	s.renderEditor(w, r, http.StatusOK, form, "")
}

func (s *Server) createFromForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPostBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.renderEditor(w, r, http.StatusBadRequest, model.NewPost{}, "Invalid form submission")
		return
	}
	form := model.NewPost{
		Title:           r.PostForm.Get("title"),
		Excerpt:         r.PostForm.Get("excerpt"),
		Content:         r.PostForm.Get("content"),
		AuthorID:        r.PostForm.Get("author"),
		CategoryIDs:     r.PostForm["categories"],
		PublicationDate: r.PostForm.Get("publication_date"),
		Featured:        r.PostForm.Get("featured") != "",
	}

	post, err := s.content.CreatePost(r.Context(), form)
	if err != nil {
		var verr *content.ValidationError
		if errors.As(err, &verr) {
			s.renderEditor(w, r, http.StatusBadRequest, form, validationMessage(verr))
			return
		}
		logger.FromContext(r.Context()).Error("creating post failed", "error", err)
		s.renderEditor(w, r, http.StatusBadGateway, form, msgCreateFailed)
		return
	}
	s.trackPostCreated(r.Context(), post)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

type createResponse struct {
	Success bool        `json:"success"`
	Post    *model.Post `json:"post"`
}

type fieldErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// createAPI serves POST /api/posts with the editor's JSON body.
func (s *Server) createAPI(w http.ResponseWriter, r *http.Request) {
	var input model.NewPost
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPostBodyBytes))
	if err := dec.Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := s.content.CreatePost(r.Context(), input)
	if err != nil {
		var verr *content.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, fieldErrorResponse{Error: validationMessage(verr), Fields: verr.Fields})
			return
		}
		logger.FromContext(r.Context()).Error("creating post failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgCreateFailed)
		return
	}
	s.trackPostCreated(r.Context(), post)
	writeJSON(w, http.StatusOK, createResponse{Success: true, Post: post})
}

// validationMessage joins the field messages in field order.
func validationMessage(verr *content.ValidationError) string {
	fields := make([]string, 0, len(verr.Fields))
	for f := range verr.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, verr.Fields[f])
	}
	return strings.Join(msgs, ". ")
}
