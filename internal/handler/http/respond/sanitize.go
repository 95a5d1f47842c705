package respond

import (
	"regexp"
	"strings"
)

var (
	// Anthropic keys must be masked before the broader OpenAI pattern runs.
	anthropicKeyPattern = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	openaiKeyPattern    = regexp.MustCompile(`sk-[a-zA-Z0-9-_]{10,}`)

	// user:password@ and :password@ inside connection URLs (redis, sqlite DSNs)
	dsnPasswordPattern = regexp.MustCompile(`://([^:/@]*):([^@]+)@`)
)

// SanitizeError returns err's message with API keys and DSN passwords masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = anthropicKeyPattern.ReplaceAllString(msg, "sk-ant-****")
	msg = openaiKeyPattern.ReplaceAllString(msg, "sk-****")
	msg = dsnPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}

// MaskSecret keeps the first and last four characters of s. Values of eight
// characters or fewer are fully masked; empty stays empty.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + "..." + s[len(s)-4:]
}
