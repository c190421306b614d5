package content

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/model"
	apperrors "github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// ValidationError holds per-field validation failure messages keyed by the
// JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, field := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// normalizeNewPost trims free-text fields so whitespace-only input fails the
// required checks.
func normalizeNewPost(p model.NewPost) model.NewPost {
	p.Title = strings.TrimSpace(p.Title)
	p.Excerpt = strings.TrimSpace(p.Excerpt)
	p.Content = strings.TrimSpace(p.Content)
	p.AuthorID = strings.TrimSpace(p.AuthorID)
	p.PublicationDate = strings.TrimSpace(p.PublicationDate)
	ids := make([]string, 0, len(p.CategoryIDs))
	for _, id := range p.CategoryIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	p.CategoryIDs = ids
	return p
}

func validateNewPost(v *validator.Validate, p model.NewPost) error {
	err := v.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating post: %w", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
