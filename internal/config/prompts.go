package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"autoblog/internal/usecase/generate"
)

// PromptsFile is the YAML layout of PROMPTS_FILE. Omitted templates keep the
// built-in text.
//
//	prompts:
//	  system: "You write for a developer audience."
//	  title: "Suggest a catchy title about {topic}"
type PromptsFile struct {
	Prompts struct {
		System string `yaml:"system"`
		Title  string `yaml:"title"`
		Post   string `yaml:"post"`
		Batch  string `yaml:"batch"`
		SEO    string `yaml:"seo"`
	} `yaml:"prompts"`
}

// LoadPrompts reads prompt overrides. An empty path returns the defaults.
func LoadPrompts(path string) (generate.Prompts, error) {
	if path == "" {
		return generate.DefaultPrompts(), nil
	}

	// #nosec G304 -- path comes from the operator's environment
	data, err := os.ReadFile(path)
	if err != nil {
		return generate.Prompts{}, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var file PromptsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return generate.Prompts{}, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	if err := validatePrompts(file); err != nil {
		return generate.Prompts{}, fmt.Errorf("prompts validation failed: %w", err)
	}

	p := generate.DefaultPrompts()
	override := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	override(&p.System, file.Prompts.System)
	override(&p.Title, file.Prompts.Title)
	override(&p.Post, file.Prompts.Post)
	override(&p.Batch, file.Prompts.Batch)
	override(&p.SEO, file.Prompts.SEO)
	return p, nil
}

// validatePrompts requires each template to reference the input it is rendered with.
func validatePrompts(f PromptsFile) error {
	checks := []struct {
		name, value, placeholder string
	}{
		{"title", f.Prompts.Title, "{topic}"},
		{"post", f.Prompts.Post, "{topic}"},
		{"batch", f.Prompts.Batch, "{topic}"},
		{"seo", f.Prompts.SEO, "{keyword}"},
	}
	for _, c := range checks {
		if strings.TrimSpace(c.value) == "" {
			continue
		}
		if !strings.Contains(c.value, c.placeholder) {
			return fmt.Errorf("%s prompt must contain %s", c.name, c.placeholder)
		}
	}
	if b := f.Prompts.Batch; strings.TrimSpace(b) != "" &&
		(!strings.Contains(b, "TITLE:") || !strings.Contains(b, "CONTENT:")) {
		return fmt.Errorf("batch prompt must ask for TITLE: and CONTENT: markers")
	}
	return nil
}
