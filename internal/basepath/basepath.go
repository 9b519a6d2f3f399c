// Package basepath rewrites absolute href/src values in rendered HTML so a
// site can be served under a URL prefix (e.g. /Flint).
package basepath

import (
	"regexp"
	"strings"
)

var attrRe = regexp.MustCompile(`(href|src)=(["'])([^"']*)(["'])`)

// Rewrite prefixes every absolute-path href/src attribute with basePath.
//
// Guarantees: already-prefixed paths are left unchanged (idempotence),
// external and protocol-relative URLs are never modified, and an empty
// basePath returns the input byte-identical.
func Rewrite(html, basePath string) string {
	prefix := Normalize(basePath)
	if prefix == "" {
		return html
	}

	return attrRe.ReplaceAllStringFunc(html, func(match string) string {
		groups := attrRe.FindStringSubmatch(match)
		attr, quote, value := groups[1], groups[2], groups[3]
		if !needsPrefix(value, prefix) {
			return match
		}
		return attr + "=" + quote + prefix + value + quote
	})
}

// Normalize canonicalizes a configured base path: leading slash, no trailing
// slash. "/" and "" both mean "no prefix".
func Normalize(basePath string) string {
	p := strings.TrimSpace(basePath)
	if p == "" || p == "/" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimRight(p, "/")
}

func needsPrefix(value, prefix string) bool {
	if !strings.HasPrefix(value, "/") {
		// Relative paths, http(s)://, mailto:, #fragments: untouched.
		return false
	}
	if strings.HasPrefix(value, "//") {
		// Protocol-relative URL, external.
		return false
	}
	if value == prefix || strings.HasPrefix(value, prefix+"/") {
		// Already prefixed; rewriting again must be a no-op.
		return false
	}
	return true
}
