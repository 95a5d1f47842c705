// Package text holds rune-aware string helpers shared by the completion clients
// and command-line tools.
package text

// CountRunes counts Unicode characters rather than bytes.
func CountRunes(s string) int {
	return len([]rune(s))
}

// Truncate returns at most n characters of s, never splitting a multi-byte rune.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
