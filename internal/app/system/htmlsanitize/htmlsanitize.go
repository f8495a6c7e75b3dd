// Package htmlsanitize cleans notification bodies authored by staff before
// they are stored. Members receive the content as-is through the API, so
// anything persisted must already be safe to render.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func contentPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements("u", "s", "mark", "sub", "sup")
		p.AllowAttrs("class").OnElements("table", "tr", "td", "th", "p", "span")
		p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
		policy = p
	})
	return policy
}

// Sanitize strips scripts, event handlers, and unsafe URLs from s.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return contentPolicy().Sanitize(s)
}

// IsPlainText reports whether s contains no HTML tags.
func IsPlainText(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '<' {
			continue
		}
		if j := strings.IndexByte(s[i:], '>'); j > 1 {
			next := s[i+1]
			if next == '/' || (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') {
				return false
			}
		}
	}
	return true
}

// PlainTextToHTML escapes s and turns newlines into <br>.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br>")
}

// PrepareForStorage returns the canonical stored form of a notification
// body: plain text is escaped and line-broken, HTML is sanitized.
func PrepareForStorage(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return PlainTextToHTML(s)
	}
	return Sanitize(s)
}
