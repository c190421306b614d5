package model

import "time"

type PostMetadata struct {
	Title           string     `json:"title,omitempty"`
	Excerpt         string     `json:"excerpt,omitempty"`
	Content         string     `json:"content,omitempty"`
	FeaturedImage   *Image     `json:"featured_image,omitempty"`
	Author          *Author    `json:"author,omitempty"`
	Categories      []Category `json:"categories,omitempty"`
	PublicationDate string     `json:"publication_date,omitempty"`
	Featured        bool       `json:"featured,omitempty"`
}

type Post struct {
	Envelope
	Metadata PostMetadata `json:"metadata"`
}

func (p Post) Type() ObjectType { return TypePosts }

func (p Post) DisplayName() string { return p.EffectiveTitle() }

// EffectiveTitle is the metadata title, falling back to the object title.
func (p Post) EffectiveTitle() string {
	if p.Metadata.Title != "" {
		return p.Metadata.Title
	}
	return p.Title
}

// DisplayDate is the publication date when set, else the creation time.
func (p Post) DisplayDate() string {
	if p.Metadata.PublicationDate != "" {
		return p.Metadata.PublicationDate
	}
	return p.CreatedAt
}

// NewPost is the input for creating a post.
type NewPost struct {
	Title           string   `json:"title" validate:"required,max=200"`
	Excerpt         string   `json:"excerpt" validate:"max=500"`
	Content         string   `json:"content" validate:"required,max=1048576"`
	AuthorID        string   `json:"author"`
	CategoryIDs     []string `json:"categories"`
	PublicationDate string   `json:"publication_date" validate:"omitempty,datetime=2006-01-02"`
	Featured        bool     `json:"featured"`
}

// WithDefaults returns a copy with an empty publication date set to today.
func (n NewPost) WithDefaults(now time.Time) NewPost {
	if n.PublicationDate == "" {
		n.PublicationDate = now.UTC().Format(time.DateOnly)
	}
	if n.CategoryIDs == nil {
		n.CategoryIDs = []string{}
	}
	return n
}
