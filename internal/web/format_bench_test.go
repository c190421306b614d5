package web

import (
	"strings"
	"testing"
)

func BenchmarkExcerpt(b *testing.B) {
	content := strings.Repeat("## Heading\n\nSome **bold** text with a [link](https://example.com) and `code`.\n\n", 50)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Excerpt(content, 150)
	}
}

func BenchmarkMarkdownRender(b *testing.B) {
	md := NewMarkdown()
	content := strings.Repeat("## Heading\n\n- item one\n- item two\n\n```go\nfmt.Println(\"hi\")\n```\n\n", 20)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = md.Render(content)
	}
}
