package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/session"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/logger"
)

type contextKey struct{}

// SessionFromContext returns the admin session RequireSession stored.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(contextKey{}).(session.Session)
	return s, ok
}

func (s *Server) currentSession(r *http.Request) (session.Session, error) {
	c, err := r.Cookie(s.opts.CookieName)
	if err != nil {
		return session.Session{}, session.ErrSessionNotFound
	}
	return s.sessions.Validate(r.Context(), c.Value)
}

func (s *Server) authenticated(r *http.Request) bool {
	_, err := s.currentSession(r)
	return err == nil
}

// RequireSession gates admin routes. Pages redirect to /login; /api/ paths
// answer 401 JSON.
func (s *Server) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.currentSession(r)
		if err != nil {
			if !errors.Is(err, session.ErrSessionNotFound) {
				logger.FromContext(r.Context()).Error("session lookup failed", "error", err)
			}
			if strings.HasPrefix(r.URL.Path, "/api/") {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, sess)))
	})
}

// CORSConfig controls Cross-Origin Resource Sharing for /api/ routes.
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       int // seconds
}

func defaultCORSConfig(origins []string) CORSConfig {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:       86400,
	}
}

// CORS sets CORS headers on /api/ responses for allowed origins and answers
// their preflight requests. Other paths pass through untouched.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !strings.HasPrefix(r.URL.Path, "/api/") || !originAllowed(cfg.AllowOrigins, origin) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", "))
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", "))
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, o := range allowed {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// clientIP is the remote address without its port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
