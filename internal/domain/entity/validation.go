package entity

import "strings"

// NormalizeKeywords trims whitespace and drops empty entries, preserving order.
// Duplicates are kept because keyword order and multiplicity are part of the cache key.
func NormalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// SplitKeywords parses a comma-separated keyword list.
func SplitKeywords(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return NormalizeKeywords(strings.Split(raw, ","))
}
