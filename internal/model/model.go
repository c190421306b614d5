// Package model defines the CMS object types the blog renders: posts,
// categories, and authors. All three share the CMS object envelope and are
// distinguished by their type slug.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ObjectType is the CMS type slug that discriminates object kinds.
type ObjectType string

const (
	TypePosts      ObjectType = "posts"
	TypeCategories ObjectType = "categories"
	TypeAuthors    ObjectType = "authors"
)

// Object is implemented by every CMS object kind.
type Object interface {
	ObjectID() string
	ObjectSlug() string
	Type() ObjectType
	DisplayName() string
}

// Envelope holds the fields common to every CMS object.
type Envelope struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	TypeSlug    ObjectType `json:"type,omitempty"`
	Status      string     `json:"status,omitempty"`
	CreatedAt   string     `json:"created_at,omitempty"`
	ModifiedAt  string     `json:"modified_at,omitempty"`
	PublishedAt string     `json:"published_at,omitempty"`
}

func (e Envelope) ObjectID() string   { return e.ID }
func (e Envelope) ObjectSlug() string { return e.Slug }

// Image is a CMS media reference. ImgixURL supports on-the-fly resizing.
type Image struct {
	URL      string `json:"url"`
	ImgixURL string `json:"imgix_url"`
}

// Sized returns the imgix URL cropped to w x h. Returns "" when the image
// has no imgix URL.
func (i *Image) Sized(w, h int) string {
	if i == nil || i.ImgixURL == "" {
		return ""
	}
	q := url.Values{}
	q.Set("w", strconv.Itoa(w))
	q.Set("h", strconv.Itoa(h))
	q.Set("fit", "crop")
	return fmt.Sprintf("%s?%s&auto=format,compress", i.ImgixURL, q.Encode())
}

// ParseTimestamp accepts the date formats the CMS emits: RFC 3339 timestamps
// and bare YYYY-MM-DD dates.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// relationID recognises a CMS relation that may arrive either as a bare object ID
// (depth 0) or as the expanded object (depth 1).
func relationID(data []byte) (string, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '"' {
		return "", false
	}
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return "", false
	}
	return id, true
}
