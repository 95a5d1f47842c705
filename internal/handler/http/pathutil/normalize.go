// Package pathutil maps request paths onto route templates for metric labels
// and span names.
package pathutil

import (
	"regexp"
	"strings"
)

// Other labels every path that matches no known route.
const Other = "/other"

var routes = map[string]bool{
	"/":                   true,
	"/about":              true,
	"/posts":              true,
	"/api/seo":            true,
	"/api/generate/title": true,
	"/api/generate/post":  true,
	"/api/generate/batch": true,
	"/debug/config":       true,
	"/health":             true,
	"/health/ready":       true,
	"/ready":              true,
	"/live":               true,
	"/metrics":            true,
}

var postName = regexp.MustCompile(`^/posts/[^/]+$`)

// NormalizePath strips the query and trailing slash and maps the result onto a
// bounded label set. Saved post pages collapse to "/posts/:name"; anything not
// served by the api or worker becomes Other.
//
//	NormalizePath("/posts/blog_AI_20260101_090000.html")  // "/posts/:name"
//	NormalizePath("/api/generate/title?x=1")              // "/api/generate/title"
//	NormalizePath("/wp-login.php")                        // "/other"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	if routes[path] {
		return path
	}
	if postName.MatchString(path) {
		return "/posts/:name"
	}
	return Other
}
