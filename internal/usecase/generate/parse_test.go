package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoblog/internal/domain/entity"
)

func TestParseBatch(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantTitle   string
		wantContent string
	}{
		{
			name:        "both markers",
			text:        "TITLE: Foo\n\nCONTENT: Bar baz",
			wantTitle:   "Foo",
			wantContent: "Bar baz",
		},
		{
			name:        "multi-line content with preamble",
			text:        "Sure, here it is.\n  TITLE: Go Tips\nCONTENT:\nFirst paragraph.\n\nSecond paragraph.\n",
			wantTitle:   "Go Tips",
			wantContent: "First paragraph.\n\nSecond paragraph.",
		},
		{
			name:        "no markers",
			text:        "  Just a body of text.  ",
			wantTitle:   "Go: A Practical Guide",
			wantContent: "Just a body of text.",
		},
		{
			name:        "only title marker",
			text:        "TITLE: Only Title\nbody line one\nbody line two",
			wantTitle:   "Only Title",
			wantContent: "body line one\nbody line two",
		},
		{
			name:        "only content marker",
			text:        "CONTENT: body",
			wantTitle:   "Go: A Practical Guide",
			wantContent: "body",
		},
		{
			name:        "empty title marker",
			text:        "TITLE:\nCONTENT: body",
			wantTitle:   "Go: A Practical Guide",
			wantContent: "body",
		},
		{
			name:        "lowercase markers are not markers",
			text:        "title: x\ncontent: y",
			wantTitle:   "Go: A Practical Guide",
			wantContent: "title: x\ncontent: y",
		},
		{
			name:        "content before title",
			text:        "CONTENT: body\nmore\nTITLE: Late",
			wantTitle:   "Late",
			wantContent: "body\nmore",
		},
		{
			name:        "crlf",
			text:        "TITLE: A\r\nCONTENT: B",
			wantTitle:   "A",
			wantContent: "B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, content := ParseBatch(tt.text, "Go")
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantContent, content)
		})
	}
}

func TestParseSEO(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    entity.SEOMetrics
		wantErr bool
	}{
		{
			name: "plain object",
			text: `{"search_volume": 1200, "avg_cpc": 1.234, "keyword_difficulty": 40}`,
			want: entity.SEOMetrics{SearchVolume: 1200, AvgCPC: 1.23, KeywordDifficulty: 40},
		},
		{
			name: "fenced with prose",
			text: "Here you go:\n```json\n{\"search_volume\": 800.4, \"avg_cpc\": 0.5, \"keyword_difficulty\": 140}\n```",
			want: entity.SEOMetrics{SearchVolume: 800, AvgCPC: 0.5, KeywordDifficulty: 100},
		},
		{
			name: "braces inside strings",
			text: `{"note": "a } b {", "search_volume": 1, "avg_cpc": 2, "keyword_difficulty": 3}`,
			want: entity.SEOMetrics{SearchVolume: 1, AvgCPC: 2, KeywordDifficulty: 3},
		},
		{name: "no object", text: "I cannot estimate that.", wantErr: true},
		{name: "unbalanced", text: `{"search_volume": 1`, wantErr: true},
		{name: "missing field", text: `{"search_volume": 1, "avg_cpc": 2}`, wantErr: true},
		{name: "wrong type", text: `{"search_volume": "lots", "avg_cpc": 2, "keyword_difficulty": 3}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSEO(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "Go Generics Explained", cleanTitle("\n  \"Go Generics Explained\"\nsecond line"))
	assert.Equal(t, "Plain", cleanTitle("TITLE: Plain"))
	assert.Equal(t, "", cleanTitle("  \n\t"))
}
