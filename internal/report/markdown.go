package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/portalwatch/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	if report.Success && report.Result != nil {
		w.writeEntries(md, illegalProgramsTitle, report.Result.IllegalPrograms)
		w.writeEntries(md, announcementsTitle, report.Result.Announcements)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table and status alert.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	title, _ := FormatRun(report)
	md.H1(title)
	md.PlainText("")

	rows := [][]string{
		{"Run ID", "`" + report.ID + "`"},
		{"Profile", report.Profile},
		{"Started", report.StartedAt.Format(TimeLayout)},
		{"Duration", report.Duration().String()},
	}
	if report.CaptchaAttempts > 0 {
		rows = append(rows, []string{"Captcha attempts", strconv.Itoa(report.CaptchaAttempts)})
	}
	if report.Result != nil {
		rows = append(rows, []string{"Variant", string(report.Result.Variant)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.Success {
		md.Tip("Login succeeded and both pages were extracted.")
	} else {
		md.Cautionf("Run failed at step `%s`: %s", report.FailedStep, report.Error)
	}
	md.PlainText("")
}

// writeEntries writes one extracted section as a table.
func (w *MarkdownWriter) writeEntries(md *markdown.Markdown, heading string, entries model.Entries) {
	md.H2(strings.TrimSuffix(heading, "："))
	md.PlainText("")

	lines := entries.Lines()
	if len(lines) == 0 {
		md.PlainText("No entries.")
		md.PlainText("")
		return
	}

	width := 0
	for _, line := range lines {
		width = max(width, len(line))
	}
	header := entries.Fields
	if len(header) != width {
		header = make([]string, width)
		for i := range header {
			header[i] = "#" + strconv.Itoa(i+1)
		}
	}

	rows := make([][]string, len(lines))
	for i, line := range lines {
		row := make([]string, width)
		for j := range row {
			if j < len(line) {
				row[j] = escapeCell(line[j])
			}
		}
		rows[i] = row
	}
	md.Table(markdown.TableSet{Header: header, Rows: rows})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [portalwatch](https://github.com/nao1215/portalwatch)*")
}

// escapeCell keeps cell text from breaking the table layout.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
