package web

import (
	"html/template"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/model"
)

const (
	cardExcerptLength     = 150
	featuredExcerptLength = 200
)

var markdownStrippers = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`#{1,6}\s+`), ""},
	{regexp.MustCompile(`\*\*(.*?)\*\*`), "$1"},
	{regexp.MustCompile(`\*(.*?)\*`), "$1"},
	{regexp.MustCompile(`\[(.*?)\]\(.*?\)`), "$1"},
	{regexp.MustCompile("`(.*?)`"), "$1"},
}

// FormatDate renders a CMS timestamp or YYYY-MM-DD date as
// "January 2, 2006". Unparseable input renders as "Invalid date".
func FormatDate(s string) string {
	t, err := model.ParseTimestamp(s)
	if err != nil {
		return "Invalid date"
	}
	return t.Format("January 2, 2006")
}

// Excerpt strips common markdown syntax from content and truncates the
// result to max characters, appending "..." when cut.
func Excerpt(content string, max int) string {
	text := content
	for _, s := range markdownStrippers {
		text = s.re.ReplaceAllString(text, s.repl)
	}
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	return truncate(text, max)
}

func truncate(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:max])) + "..."
}

// postSummary is the excerpt shown on cards: the post's own excerpt, else
// one derived from its content.
func postSummary(p model.Post, max int) string {
	if p.Metadata.Excerpt != "" {
		return p.Metadata.Excerpt
	}
	if p.Metadata.Content == "" {
		return ""
	}
	return Excerpt(p.Metadata.Content, max)
}

func templateFuncs(md *Markdown) template.FuncMap {
	return template.FuncMap{
		"formatDate": FormatDate,
		"excerpt":    Excerpt,
		"summary":    postSummary,
		"imgix":      func(img *model.Image, w, h int) string { return img.Sized(w, h) },
		"markdown":   md.Render,
		"firstN": func(n int, cats []model.Category) []model.Category {
			if len(cats) > n {
				return cats[:n]
			}
			return cats
		},
		"plural": func(n int, one, many string) string {
			if n == 1 {
				return one
			}
			return many
		},
		"cardExcerpt":     func() int { return cardExcerptLength },
		"featuredExcerpt": func() int { return featuredExcerptLength },
	}
}
