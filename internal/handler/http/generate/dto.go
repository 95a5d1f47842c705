// Package generate exposes the generation façade as a JSON API.
package generate

import (
	"bytes"

	"github.com/goccy/go-json"

	"autoblog/internal/domain/entity"
)

// Keywords accepts either a JSON array of strings or one comma-separated string.
type Keywords []string

// UnmarshalJSON implements json.Unmarshaler.
func (k *Keywords) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*k = entity.SplitKeywords(raw)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*k = list
	return nil
}

// Request is the body of the title, post and batch endpoints.
type Request struct {
	Topic    string   `json:"topic"`
	Keywords Keywords `json:"keywords,omitempty"`
	// Save stores the article and reports its path. Batch only.
	Save bool `json:"save,omitempty"`
}

// Response carries one generation result.
type Response struct {
	Title   string                       `json:"title,omitempty"`
	Content string                       `json:"content,omitempty"`
	SEO     map[string]entity.SEOMetrics `json:"seo,omitempty"`
	Source  entity.Source                `json:"source"`
	Cached  bool                         `json:"cached"`
	Path    string                       `json:"path,omitempty"`
}

// SEOResponse is the body of GET /api/seo.
type SEOResponse struct {
	Keyword string `json:"keyword"`
	entity.SEOMetrics
	Source entity.Source `json:"source"`
	Cached bool          `json:"cached"`
}

func fromResult(res entity.GenerationResult) Response {
	return Response{
		Title:   res.Title,
		Content: res.Content,
		Source:  res.Source,
		Cached:  res.Cached,
	}
}
