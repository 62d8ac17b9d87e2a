package extract

import (
	"regexp"

	"github.com/nao1215/portalwatch/internal/model"
)

var (
	itemOpen  = regexp.MustCompile(`(?i)<li\b[^>]*>`)
	itemClose = regexp.MustCompile(`(?i)</li\s*>`)
	itemLink  = regexp.MustCompile(`(?is)<a\s[^>]*>(.*?)</a\s*>(.*)`)
)

// ListItems returns one entry per <li> of a news list.
// Each entry holds the text trailing the item's anchor (the date) followed by
// the anchor text (the title). Items without an anchor are skipped.
//
// It returns ErrNoRowsFound when listMarkup has no <li> at all.
func ListItems(listMarkup string) ([]model.TableRow, error) {
	items := segments(listMarkup, itemOpen, itemClose)
	if len(items) == 0 {
		return nil, ErrNoRowsFound
	}

	result := make([]model.TableRow, 0, len(items))
	for _, item := range items {
		m := itemLink.FindStringSubmatch(item)
		if m == nil {
			continue
		}
		result = append(result, model.TableRow{CleanText(m[2]), CleanText(m[1])})
	}
	return result, nil
}
