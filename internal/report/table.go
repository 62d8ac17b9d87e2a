package report

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nao1215/portalwatch/internal/model"
)

// TableWriter renders the extracted entries as terminal tables.
type TableWriter struct {
	baseWriter
	style table.Style
}

// NewTableWriter creates a TableWriter that outputs to the given writer.
func NewTableWriter(output io.Writer) *TableWriter {
	return &TableWriter{
		baseWriter: newBaseWriter(output),
		style:      table.StyleRounded,
	}
}

// Write renders one table per extracted section, or the failure details.
func (w *TableWriter) Write(report *model.RunReport) (int, error) {
	title, _ := FormatRun(report)
	out := title + "\n"

	if !report.Success || report.Result == nil {
		t := w.newTable()
		t.AppendHeader(table.Row{"Step", "Error"})
		t.AppendRow(table.Row{report.FailedStep, report.Error})
		out += t.Render() + "\n"
		return io.WriteString(w.output, out)
	}

	out += w.renderEntries(illegalProgramsTitle, report.Result.IllegalPrograms)
	out += w.renderEntries(announcementsTitle, report.Result.Announcements)
	return io.WriteString(w.output, out)
}

func (w *TableWriter) renderEntries(heading string, entries model.Entries) string {
	t := w.newTable()
	t.SetTitle(heading)

	lines := entries.Lines()
	if len(entries.Fields) > 0 {
		header := table.Row{"#"}
		for _, f := range entries.Fields {
			header = append(header, f)
		}
		t.AppendHeader(header)
	}
	for i, line := range lines {
		row := table.Row{strconv.Itoa(i + 1)}
		for _, cell := range line {
			row = append(row, cell)
		}
		t.AppendRow(row)
	}
	if len(lines) == 0 {
		t.AppendRow(table.Row{"-", "no entries"})
	}
	return t.Render() + "\n"
}

func (w *TableWriter) newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(w.style)
	return t
}
