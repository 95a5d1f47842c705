package generate

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-json"

	"autoblog/internal/domain/entity"
)

const (
	titleMarker   = "TITLE:"
	contentMarker = "CONTENT:"
)

// ErrNoJSONObject is returned when a completion contains no JSON object.
var ErrNoJSONObject = errors.New("no JSON object in completion")

// ParseBatch splits a batch completion into title and content using marker lines.
// Without a TITLE: marker the title falls back to DefaultTitle(topic); without a
// CONTENT: marker the content is the text after the title line, or the whole text.
func ParseBatch(text, topic string) (title, content string) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	titleLine, contentLine := -1, -1
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		switch {
		case titleLine < 0 && strings.HasPrefix(trimmed, titleMarker):
			titleLine = i
			title = strings.TrimSpace(strings.TrimPrefix(trimmed, titleMarker))
		case contentLine < 0 && strings.HasPrefix(trimmed, contentMarker):
			contentLine = i
		}
	}

	switch {
	case contentLine >= 0:
		end := len(lines)
		if titleLine > contentLine {
			end = titleLine
		}
		first := strings.TrimPrefix(strings.TrimLeft(lines[contentLine], " \t"), contentMarker)
		body := append([]string{first}, lines[contentLine+1:end]...)
		content = strings.TrimSpace(strings.Join(body, "\n"))
	case titleLine >= 0:
		content = strings.TrimSpace(strings.Join(lines[titleLine+1:], "\n"))
	default:
		content = strings.TrimSpace(text)
	}

	if title == "" {
		title = DefaultTitle(topic)
	}
	return title, content
}

// cleanTitle keeps the first non-empty line and strips wrapping quotes.
func cleanTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, titleMarker))
		line = strings.Trim(line, "\"'“”")
		if line != "" {
			return line
		}
	}
	return ""
}

type seoPayload struct {
	SearchVolume      *float64 `json:"search_volume"`
	AvgCPC            *float64 `json:"avg_cpc"`
	KeywordDifficulty *float64 `json:"keyword_difficulty"`
}

// ParseSEO decodes the first JSON object in text. Code fences and surrounding prose
// are tolerated; all three fields are required.
func ParseSEO(text string) (entity.SEOMetrics, error) {
	obj, err := firstJSONObject(text)
	if err != nil {
		return entity.SEOMetrics{}, err
	}

	var p seoPayload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return entity.SEOMetrics{}, fmt.Errorf("decode seo metrics: %w", err)
	}
	if p.SearchVolume == nil || p.AvgCPC == nil || p.KeywordDifficulty == nil {
		return entity.SEOMetrics{}, fmt.Errorf("decode seo metrics: missing field in %s", obj)
	}

	return entity.SEOMetrics{
		SearchVolume:      int(math.Round(*p.SearchVolume)),
		AvgCPC:            *p.AvgCPC,
		KeywordDifficulty: int(math.Round(*p.KeywordDifficulty)),
	}.Normalize(), nil
}

// firstJSONObject returns the first balanced {...} span, skipping braces inside strings.
func firstJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrNoJSONObject
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSONObject
}
