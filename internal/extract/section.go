package extract

import (
	"fmt"
	"regexp"
)

// Section returns the inner markup of the first element whose opening tag
// matches open. The content runs to the first closing tag of name, or to the
// end of page when the element is never closed.
func Section(page string, open *regexp.Regexp, name string) (string, error) {
	loc := open.FindStringIndex(page)
	if loc == nil {
		return "", fmt.Errorf("%w: <%s>", ErrSectionNotFound, name)
	}
	rest := page[loc[1]:]
	closing := regexp.MustCompile(`(?i)</` + regexp.QuoteMeta(name) + `\s*>`)
	if c := closing.FindStringIndex(rest); c != nil {
		rest = rest[:c[0]]
	}
	return rest, nil
}
