package extract

import (
	"html"
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`(?s)<[^>]*>`)

// CleanText strips every tag from markup, decodes HTML entities and trims
// surrounding whitespace.
func CleanText(markup string) string {
	text := tagPattern.ReplaceAllString(markup, "")
	return strings.TrimSpace(html.UnescapeString(text))
}

// segments cuts markup into the content that follows each match of open.
// A segment runs until the next opening tag, and is then truncated at the
// first match of closing, so unclosed elements still yield their content.
func segments(markup string, open, closing *regexp.Regexp) []string {
	locs := open.FindAllStringIndex(markup, -1)
	out := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(markup)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		seg := markup[loc[1]:end]
		if c := closing.FindStringIndex(seg); c != nil {
			seg = seg[:c[0]]
		}
		out = append(out, seg)
	}
	return out
}
