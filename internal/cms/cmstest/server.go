// Package cmstest runs an in-process fake of the Cosmic objects API for
// tests. It understands the subset of the query language the blog uses:
// equality filters on top-level and metadata fields, relation filters,
// "-created_at" sorting, limit, and insert-one.
package cmstest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

const (
	Bucket   = "test-bucket"
	ReadKey  = "read-key"
	WriteKey = "write-key"
)

type Server struct {
	*httptest.Server

	mu         sync.Mutex
	objects    []map[string]any
	inserted   []map[string]any
	requests   []*http.Request
	failStatus int
	delay      time.Duration
	nextID     int
}

// NewServer starts a fake CMS that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v3/buckets/{bucket}/objects", s.handleFind)
	mux.HandleFunc("POST /v3/buckets/{bucket}/objects/insert-one", s.handleInsert)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Add stores objects. Each value is round-tripped through JSON so model
// structs and plain maps are both accepted.
func (s *Server) Add(t testing.TB, objects ...any) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range objects {
		data, err := json.Marshal(o)
		if err != nil {
			t.Fatalf("marshaling fixture: %v", err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("decoding fixture: %v", err)
		}
		s.objects = append(s.objects, m)
	}
}

// FailWith makes every subsequent call answer status. Zero restores normal
// behaviour.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	s.failStatus = status
	s.mu.Unlock()
}

// SetDelay slows every answer down by d.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

// FindCount is the number of object reads received.
func (s *Server) FindCount() int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == http.MethodGet {
			n++
		}
	}
	return n
}

// Inserted returns the decoded bodies of every insert-one call.
func (s *Server) Inserted() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.inserted...)
}

func (s *Server) record(r *http.Request) (fail int, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r.Clone(r.Context()))
	return s.failStatus, s.delay
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	fail, delay := s.record(r)
	if delay > 0 {
		time.Sleep(delay)
	}
	if fail != 0 {
		writeError(w, fail, "injected failure")
		return
	}
	if r.PathValue("bucket") != Bucket || r.URL.Query().Get("read_key") != ReadKey {
		writeError(w, http.StatusUnauthorized, "invalid read key")
		return
	}

	var filter map[string]any
	if err := json.Unmarshal([]byte(r.URL.Query().Get("query")), &filter); err != nil {
		writeError(w, http.StatusBadRequest, "invalid query")
		return
	}

	s.mu.Lock()
	var matched []map[string]any
	for _, obj := range s.objects {
		if matches(obj, filter) {
			matched = append(matched, obj)
		}
	}
	s.mu.Unlock()

	if r.URL.Query().Get("sort") == "-created_at" {
		sort.SliceStable(matched, func(i, j int) bool {
			return fmt.Sprint(matched[i]["created_at"]) > fmt.Sprint(matched[j]["created_at"])
		})
	}
	total := len(matched)
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	if len(matched) == 0 {
		writeError(w, http.StatusNotFound, "No objects found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"objects": matched, "total": total})
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	fail, delay := s.record(r)
	if delay > 0 {
		time.Sleep(delay)
	}
	if fail != 0 {
		writeError(w, fail, "injected failure")
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+WriteKey {
		writeError(w, http.StatusUnauthorized, "invalid write key")
		return
	}
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	s.nextID++
	obj := make(map[string]any, len(body)+3)
	for k, v := range body {
		obj[k] = v
	}
	obj["id"] = fmt.Sprintf("new-%d", s.nextID)
	obj["slug"] = slugify(fmt.Sprint(body["title"]))
	obj["created_at"] = time.Now().UTC().Format(time.RFC3339)
	s.inserted = append(s.inserted, body)
	s.objects = append(s.objects, obj)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"object": obj})
}

func matches(obj map[string]any, filter map[string]any) bool {
	for key, want := range filter {
		if !fieldMatches(lookup(obj, key), want) {
			return false
		}
	}
	return true
}

func lookup(obj map[string]any, path string) any {
	var cur any = obj
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

// fieldMatches compares a stored field with a filter value. Relations match
// on the related object's id, and arrays match when any element does.
func fieldMatches(field, want any) bool {
	switch v := field.(type) {
	case []any:
		for _, el := range v {
			if fieldMatches(el, want) {
				return true
			}
		}
		return false
	case map[string]any:
		return fmt.Sprint(v["id"]) == fmt.Sprint(want)
	case nil:
		return false
	default:
		return fmt.Sprint(v) == fmt.Sprint(want)
	}
}

func slugify(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), "-")
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"status": status, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
