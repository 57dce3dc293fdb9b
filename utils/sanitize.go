package utils

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// videoEmbedSrc matches the embed players allowed inside post bodies.
var videoEmbedSrc = regexp.MustCompile(`^https://(www\.youtube(-nocookie)?\.com/embed/|player\.vimeo\.com/video/)[A-Za-z0-9_\-?=&;.]+$`)

var (
	contentPolicy = newContentPolicy()
	textPolicy    = bluemonday.StrictPolicy()
)

func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("iframe")
	p.AllowAttrs("src").Matching(videoEmbedSrc).OnElements("iframe")
	p.AllowAttrs("width", "height").Matching(bluemonday.NumberOrPercent).OnElements("iframe")
	p.AllowAttrs("frameborder").Matching(bluemonday.Integer).OnElements("iframe")
	p.AllowAttrs("allowfullscreen").OnElements("iframe")
	p.AllowAttrs("allow").Matching(regexp.MustCompile(`^[a-z\-; ]+$`)).OnElements("iframe")
	p.AllowAttrs("title").OnElements("iframe")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[A-Za-z0-9\- ]+$`)).OnElements("div", "span", "p", "pre", "code")
	return p
}

// Sanitize cleans rich-text post content. YouTube and Vimeo embeds survive;
// any other iframe loses its src.
func Sanitize(input string) string {
	return contentPolicy.Sanitize(input)
}

// SanitizeText strips all markup from short plain-text fields. The result is
// plain text, not HTML: entities are decoded so "Tom & Jerry" stays as typed.
func SanitizeText(input string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(input)))
}
