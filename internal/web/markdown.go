package web

import (
	"bytes"
	"html/template"
	"log/slog"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Markdown renders post bodies to sanitised HTML. Raw HTML in the source is
// passed through goldmark and then filtered by a UGC policy.
type Markdown struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	logger *slog.Logger
}

func NewMarkdown() *Markdown {
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		policy: bluemonday.UGCPolicy(),
		logger: slog.Default().With("component", "markdown"),
	}
}

// Render converts src to safe HTML. A conversion failure renders the source
// as escaped text.
func (m *Markdown) Render(src string) template.HTML {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(src), &buf); err != nil {
		m.logger.Warn("markdown conversion failed", "error", err)
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(m.policy.SanitizeBytes(buf.Bytes()))
}
