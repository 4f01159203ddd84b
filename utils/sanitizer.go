package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// BodyPolicy allows the formatting tags mail bodies commonly carry
var BodyPolicy *bluemonday.Policy

func init() {
	BodyPolicy = bluemonday.UGCPolicy()
	BodyPolicy.AllowElements("p", "br", "div", "span", "strong", "em", "u", "s", "code", "pre", "blockquote")
	BodyPolicy.AllowElements("ul", "ol", "li")
	BodyPolicy.AllowAttrs("href").OnElements("a")
	BodyPolicy.RequireParseableURLs(true)
	BodyPolicy.AllowURLSchemes("http", "https", "mailto")
	BodyPolicy.RequireNoFollowOnLinks(true)
}

// SanitizeBody makes an email body safe to embed in the page
func SanitizeBody(body string) string {
	return BodyPolicy.Sanitize(body)
}

// HasReplyMarker reports whether subject already carries "Re:" anywhere.
// The match is case-sensitive.
func HasReplyMarker(subject string) bool {
	return strings.Contains(subject, "Re:")
}
