// Package report renders run outcomes.
//
// Format and FormatFailure build the mail title and body. They are pure
// functions of their inputs. The writers render a model.RunReport for the
// terminal or a file:
//   - TextWriter: the mail text as is
//   - MarkdownWriter: tables for documentation and sharing
//   - JSONWriter: structured output for tool integration
//   - TableWriter: rounded terminal tables
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed with MultiWriter.
package report
