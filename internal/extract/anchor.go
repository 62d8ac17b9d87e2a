package extract

import (
	"fmt"
	"html"
	"regexp"
)

// AnchorTarget returns the href of the first anchor whose visible text is
// exactly label. Tag and attribute names match case-insensitively; the label
// itself must match exactly, apart from surrounding whitespace.
func AnchorTarget(pageMarkup, label string) (string, error) {
	pattern := regexp.MustCompile(
		`(?s)(?i:<a)\s+(?:[^>]*?\s)?(?i:href)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))[^>]*>\s*` +
			regexp.QuoteMeta(label) +
			`\s*(?i:</a)\s*>`,
	)
	m := pattern.FindStringSubmatch(pageMarkup)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrLinkNotFound, label)
	}
	for _, href := range m[1:] {
		if href != "" {
			return html.UnescapeString(href), nil
		}
	}
	return "", fmt.Errorf("%w: %q has an empty href", ErrLinkNotFound, label)
}
