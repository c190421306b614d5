package model

import "encoding/json"

// DefaultBadgeColor is used for categories without a color.
const DefaultBadgeColor = "#6B7280"

type CategoryMetadata struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

type Category struct {
	Envelope
	Metadata CategoryMetadata `json:"metadata"`
}

func (c Category) Type() ObjectType { return TypeCategories }

func (c Category) DisplayName() string {
	if c.Metadata.Name != "" {
		return c.Metadata.Name
	}
	return c.Title
}

func (c Category) BadgeColor() string {
	if c.Metadata.Color != "" {
		return c.Metadata.Color
	}
	return DefaultBadgeColor
}

func (c *Category) UnmarshalJSON(data []byte) error {
	if id, ok := relationID(data); ok {
		*c = Category{Envelope: Envelope{ID: id}}
		return nil
	}
	type plain Category
	return json.Unmarshal(data, (*plain)(c))
}

type AuthorMetadata struct {
	Name         string `json:"name,omitempty"`
	Bio          string `json:"bio,omitempty"`
	ProfilePhoto *Image `json:"profile_photo,omitempty"`
	Email        string `json:"email,omitempty"`
	Website      string `json:"website,omitempty"`
	Twitter      string `json:"twitter,omitempty"`
	LinkedIn     string `json:"linkedin,omitempty"`
}

type Author struct {
	Envelope
	Metadata AuthorMetadata `json:"metadata"`
}

func (a Author) Type() ObjectType { return TypeAuthors }

func (a Author) DisplayName() string {
	if a.Metadata.Name != "" {
		return a.Metadata.Name
	}
	return a.Title
}

func (a *Author) UnmarshalJSON(data []byte) error {
	if id, ok := relationID(data); ok {
		*a = Author{Envelope: Envelope{ID: id}}
		return nil
	}
	type plain Author
	return json.Unmarshal(data, (*plain)(a))
}
