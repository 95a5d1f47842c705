package generate

import (
	"strings"

	"autoblog/internal/domain/entity"
)

// Prompts are the templates sent to the completion service. Placeholders:
// {topic}, {keywords} (comma-separated) and {keyword} (SEO operation).
type Prompts struct {
	System string
	Title  string
	Post   string
	Batch  string
	SEO    string
}

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() Prompts {
	return Prompts{
		System: "You are a helpful writing assistant for a technology blog.",
		Title:  "Generate a title for a blog post about {topic}",
		Post:   "Write a blog post about {topic} using the following keywords: {keywords}",
		Batch: "Write a blog post about {topic} using the following keywords: {keywords}\n" +
			"Answer in exactly this format:\n" +
			"TITLE: <the title on one line>\n" +
			"CONTENT: <the blog post>",
		SEO: "Estimate search engine metrics for the keyword \"{keyword}\". " +
			"Reply with only a JSON object with the fields search_volume (integer monthly searches), " +
			"avg_cpc (average cost per click in US dollars) and keyword_difficulty (integer from 0 to 100).",
	}
}

// merge fills empty templates from DefaultPrompts.
func (p Prompts) merge() Prompts {
	d := DefaultPrompts()
	if strings.TrimSpace(p.System) == "" {
		p.System = d.System
	}
	if strings.TrimSpace(p.Title) == "" {
		p.Title = d.Title
	}
	if strings.TrimSpace(p.Post) == "" {
		p.Post = d.Post
	}
	if strings.TrimSpace(p.Batch) == "" {
		p.Batch = d.Batch
	}
	if strings.TrimSpace(p.SEO) == "" {
		p.SEO = d.SEO
	}
	return p
}

// render substitutes the request into the template for its operation.
func (p Prompts) render(req entity.GenerationRequest) string {
	var tmpl string
	switch req.Operation {
	case entity.OpTitle:
		tmpl = p.Title
	case entity.OpPost:
		tmpl = p.Post
	case entity.OpBatch:
		tmpl = p.Batch
	default:
		tmpl = p.SEO
	}
	r := strings.NewReplacer(
		"{topic}", req.Topic,
		"{keywords}", strings.Join(req.Keywords, ", "),
		"{keyword}", req.Topic,
	)
	return r.Replace(tmpl)
}
