package cmstest

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/model"
)

var (
	Ada = model.Author{
		Envelope: model.Envelope{ID: "author-ada", Slug: "ada", Title: "Ada", TypeSlug: model.TypeAuthors},
		Metadata: model.AuthorMetadata{Name: "Ada Lovelace", Bio: "Writes about engines.", Twitter: "ada"},
	}
	Rob = model.Author{
		Envelope: model.Envelope{ID: "author-rob", Slug: "rob", Title: "Rob", TypeSlug: model.TypeAuthors},
		Metadata: model.AuthorMetadata{Name: "Rob", Bio: "Concurrency."},
	}
	Programming = model.Category{
		Envelope: model.Envelope{ID: "cat-programming", Slug: "programming", Title: "Programming", TypeSlug: model.TypeCategories},
		Metadata: model.CategoryMetadata{Name: "Programming", Description: "Code and tools", Color: "#3B82F6"},
	}
	Travel = model.Category{
		Envelope: model.Envelope{ID: "cat-travel", Slug: "travel", Title: "Travel", TypeSlug: model.TypeCategories},
		Metadata: model.CategoryMetadata{Name: "Travel"},
	}
)

// Posts returns a fresh copy of the fixture corpus in newest-first order.
// "golang" appears in the content of intro-to-go and the excerpt of
// concurrency-patterns, and nowhere in the title of any post.
func Posts() []model.Post {
	return []model.Post{
		{
			Envelope: model.Envelope{ID: "post-3", Slug: "lisbon-notes", Title: "Lisbon Notes", TypeSlug: model.TypePosts, CreatedAt: "2024-03-01T10:00:00.000Z"},
			Metadata: model.PostMetadata{
				Excerpt:         "A week of trams and pastries.",
				Content:         "# Lisbon\n\nHills everywhere.",
				Author:          &Rob,
				Categories:      []model.Category{Travel},
				PublicationDate: "2024-03-01",
			},
		},
		{
			Envelope: model.Envelope{ID: "post-2", Slug: "concurrency-patterns", Title: "Concurrency Patterns", TypeSlug: model.TypePosts, CreatedAt: "2024-02-01T10:00:00.000Z"},
			Metadata: model.PostMetadata{
				Excerpt:         "Channels and worker pools in Golang.",
				Content:         "Fan-out, fan-in.",
				Author:          &Rob,
				Categories:      []model.Category{Programming},
				PublicationDate: "2024-02-01",
				Featured:        true,
				FeaturedImage:   &model.Image{URL: "https://cdn.example/p2.jpg", ImgixURL: "https://imgix.example/p2.jpg"},
			},
		},
		{
			Envelope: model.Envelope{ID: "post-1", Slug: "intro-to-go", Title: "Intro to Go", TypeSlug: model.TypePosts, CreatedAt: "2024-01-01T10:00:00.000Z"},
			Metadata: model.PostMetadata{
				Excerpt:         "Getting started.",
				Content:         "Why **golang** is a pleasant language.",
				Author:          &Ada,
				Categories:      []model.Category{Programming},
				PublicationDate: "2024-01-01",
			},
		},
	}
}

// Seed loads the authors, categories, and posts above.
func (s *Server) Seed(t testing.TB) {
	t.Helper()
	objects := []any{Ada, Rob, Programming, Travel}
	for _, p := range Posts() {
		objects = append(objects, p)
	}
	s.Add(t, objects...)
}
