// Package search implements blog post search: a case-insensitive substring
// filter over the full post corpus followed by a two-tier priority ordering
// (title matches, then excerpt matches, then everything else in corpus
// order). There is no index; every search scans the posts it is given.
package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/model"
)

// MinQueryLength is the shortest trimmed query, in characters, that is
// searched at all.
const MinQueryLength = 2

// RankedResult is a post that matched, with the fields it matched in.
type RankedResult struct {
	Post           model.Post
	TitleMatches   bool
	ExcerptMatches bool
}

// Result is the answer to one query.
type Result struct {
	Query string       `json:"query"`
	Posts []model.Post `json:"posts"`
	Total int          `json:"total"`
}

func emptyResult(query string) Result {
	return Result{Query: query, Posts: []model.Post{}}
}

// Normalize turns raw input into the match key: trimmed and lower-cased.
// ok is false when fewer than MinQueryLength characters remain.
func Normalize(raw string) (key string, ok bool) {
	return normalize(raw, MinQueryLength)
}

func normalize(raw string, minLen int) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if utf8.RuneCountInString(trimmed) < minLen {
		return "", false
	}
	return strings.ToLower(trimmed), true
}

// Filter keeps the posts whose effective title, excerpt, or content contains
// key. key must already be normalized.
func Filter(posts []model.Post, key string) []RankedResult {
	results := make([]RankedResult, 0)
	for _, p := range posts {
		title := strings.Contains(strings.ToLower(p.EffectiveTitle()), key)
		excerpt := strings.Contains(strings.ToLower(p.Metadata.Excerpt), key)
		if title || excerpt || strings.Contains(strings.ToLower(p.Metadata.Content), key) {
			results = append(results, RankedResult{Post: p, TitleMatches: title, ExcerptMatches: excerpt})
		}
	}
	return results
}

// Rank orders results in place: title matches first, then excerpt matches.
// Ties keep their input order.
func Rank(results []RankedResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.TitleMatches != b.TitleMatches {
			return a.TitleMatches
		}
		if a.ExcerptMatches != b.ExcerptMatches {
			return a.ExcerptMatches
		}
		return false
	})
}

// Search filters and ranks posts for raw. It is a pure function of its
// inputs and never modifies posts.
func Search(posts []model.Post, raw string) Result {
	key, ok := Normalize(raw)
	if !ok {
		return emptyResult(strings.TrimSpace(raw))
	}
	return searchKey(posts, strings.TrimSpace(raw), key)
}

func searchKey(posts []model.Post, query, key string) Result {
	ranked := Filter(posts, key)
	Rank(ranked)
	out := make([]model.Post, len(ranked))
	for i, r := range ranked {
		out[i] = r.Post
	}
	return Result{Query: query, Posts: out, Total: len(out)}
}
