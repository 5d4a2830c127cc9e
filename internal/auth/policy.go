package auth

import "strings"

const wildcard = "*"

// RequireAuth reports whether path needs authentication given the excluded
// patterns. Paths and patterns are compared with a trailing slash, so
// "/status" and "/status/" are equivalent. A pattern ending in "*" excludes
// every path that starts with the text before the star.
func RequireAuth(path string, excluded []string) bool {
	if path == "" || len(excluded) == 0 {
		return true
	}

	path = withTrailingSlash(path)
	for _, pattern := range excluded {
		pattern = withTrailingSlash(pattern)
		if path == pattern {
			return false
		}
		if prefix, ok := strings.CutSuffix(pattern, wildcard+"/"); ok && strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

func withTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
