package report

import (
	"io"

	"github.com/nao1215/portalwatch/internal/model"
)

// TextWriter outputs the same title and body that are mailed.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the title, a blank line and the body.
func (w *TextWriter) Write(report *model.RunReport) (int, error) {
	title, body := FormatRun(report)
	return io.WriteString(w.output, title+"\n\n"+body)
}
