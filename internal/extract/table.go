package extract

import (
	"regexp"

	"github.com/nao1215/portalwatch/internal/model"
)

var (
	rowOpen   = regexp.MustCompile(`(?i)<tr\b[^>]*>`)
	rowClose  = regexp.MustCompile(`(?i)</tr\s*>`)
	cellOpen  = regexp.MustCompile(`(?i)<t[hd]\b[^>]*>`)
	cellClose = regexp.MustCompile(`(?i)</t[hd]\s*>`)
)

// TableRows returns the cells of every row in tableMarkup.
// Header (<th>) and data (<td>) cells are both collected, in document order,
// with nested tags and surrounding whitespace removed.
//
// It returns ErrNoRowsFound when tableMarkup has no <tr> at all. Rows without
// any cell are skipped.
func TableRows(tableMarkup string) ([]model.TableRow, error) {
	rows := segments(tableMarkup, rowOpen, rowClose)
	if len(rows) == 0 {
		return nil, ErrNoRowsFound
	}

	result := make([]model.TableRow, 0, len(rows))
	for _, row := range rows {
		cells := segments(row, cellOpen, cellClose)
		if len(cells) == 0 {
			continue
		}
		tr := make(model.TableRow, len(cells))
		for i, cell := range cells {
			tr[i] = CleanText(cell)
		}
		result = append(result, tr)
	}
	return result, nil
}
