package entity

import (
	"slices"
	"time"
)

// BlogPost is a generated article together with the SEO metrics of its keywords.
// It is the unit persisted by the blog storage.
type BlogPost struct {
	Topic     string
	Title     string
	Content   string
	Keywords  []string
	SEO       map[string]SEOMetrics
	Source    Source
	CreatedAt time.Time
}

// Degraded reports whether any part of the post is placeholder content.
func (p BlogPost) Degraded() bool {
	return p.Source != SourceLive
}

// SortedKeywords returns the keywords that have SEO metrics, in request order
// followed by any extra metric keys in lexical order.
func (p BlogPost) SortedKeywords() []string {
	out := make([]string, 0, len(p.SEO))
	seen := make(map[string]bool, len(p.SEO))
	for _, kw := range p.Keywords {
		if _, ok := p.SEO[kw]; ok && !seen[kw] {
			out = append(out, kw)
			seen[kw] = true
		}
	}
	var extra []string
	for kw := range p.SEO {
		if !seen[kw] {
			extra = append(extra, kw)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}
