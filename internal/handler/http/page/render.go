// Package page renders the HTML side of the blog: generated posts, the index of
// stored posts and the about page.
package page

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"autoblog/internal/domain/entity"
	"autoblog/internal/infra/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

var _ storage.Renderer = (*Renderer)(nil)

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

type seoRow struct {
	Keyword string
	entity.SEOMetrics
}

type postView struct {
	Title      string
	Paragraphs []string
	SEO        []seoRow
	Source     entity.Source
	Degraded   bool
	CreatedAt  string
}

// RenderPost writes post as a complete HTML document.
func (r *Renderer) RenderPost(w io.Writer, post entity.BlogPost) error {
	view := postView{
		Title:      post.Title,
		Paragraphs: Paragraphs(post.Content),
		Source:     post.Source,
		Degraded:   post.Degraded(),
		CreatedAt:  post.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, kw := range post.SortedKeywords() {
		view.SEO = append(view.SEO, seoRow{Keyword: kw, SEOMetrics: post.SEO[kw]})
	}
	return r.tmpl.ExecuteTemplate(w, "post", view)
}

// RenderIndex lists stored posts.
func (r *Renderer) RenderIndex(w io.Writer, posts []storage.StoredPost) error {
	return r.tmpl.ExecuteTemplate(w, "index", posts)
}

// RenderAbout writes the static about page.
func (r *Renderer) RenderAbout(w io.Writer) error {
	return r.tmpl.ExecuteTemplate(w, "about", nil)
}

// Paragraphs splits text on blank lines. Single newlines inside a paragraph
// are folded into spaces.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		lines := strings.Fields(strings.ReplaceAll(block, "\n", " "))
		if len(lines) == 0 {
			continue
		}
		out = append(out, strings.Join(lines, " "))
	}
	return out
}
