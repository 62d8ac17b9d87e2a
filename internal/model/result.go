package model

import "strings"

// Variant selects how the portal's content pages are reached and parsed.
type Variant string

const (
	// VariantHTML reads the content pages as server-rendered HTML
	// (a table of violations and a list of announcements).
	VariantHTML Variant = "html"

	// VariantJSONP requests the content pages as JSONP data feeds.
	VariantJSONP Variant = "jsonp"
)

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	return v == VariantHTML || v == VariantJSONP
}

// TableRow is an ordered sequence of trimmed cell strings.
type TableRow []string

// Field is one named value inside a Record.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Record is one item of a JSONP feed. Fields keep the order in which the
// upstream JSON object listed its keys.
type Record []Field

// Get returns the value of the named field and whether it was present.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns the field values in extraction order.
func (r Record) Values() []string {
	values := make([]string, len(r))
	for i, f := range r {
		values[i] = f.Value
	}
	return values
}

// Entries is one half of a WorkflowResult.
// Exactly one of Rows or Records is populated, depending on the variant.
type Entries struct {
	// Rows holds entries extracted from HTML markup.
	Rows []TableRow `json:"rows,omitempty"`

	// Records holds entries extracted from a JSONP feed.
	Records []Record `json:"records,omitempty"`

	// Fields optionally restricts and orders the record fields shown by Lines.
	// Empty means every field in extraction order.
	Fields []string `json:"fields,omitempty"`
}

// Len returns the number of entries.
func (e Entries) Len() int {
	if len(e.Records) > 0 {
		return len(e.Records)
	}
	return len(e.Rows)
}

// Lines returns the ordered string fields of each entry.
func (e Entries) Lines() [][]string {
	if len(e.Records) == 0 {
		lines := make([][]string, len(e.Rows))
		for i, row := range e.Rows {
			lines[i] = []string(row)
		}
		return lines
	}

	lines := make([][]string, len(e.Records))
	for i, rec := range e.Records {
		if len(e.Fields) == 0 {
			lines[i] = rec.Values()
			continue
		}
		line := make([]string, 0, len(e.Fields))
		for _, name := range e.Fields {
			v, _ := rec.Get(name)
			line = append(line, v)
		}
		lines[i] = line
	}
	return lines
}

// WorkflowResult holds the two record collections produced by a completed run.
// It is only built once navigation reaches its terminal state.
type WorkflowResult struct {
	// Variant is the extraction strategy that produced the entries.
	Variant Variant `json:"variant"`

	// IllegalPrograms are the policy-violation entries.
	IllegalPrograms Entries `json:"illegal_programs"`

	// Announcements are the management news entries.
	Announcements Entries `json:"announcements"`
}

// ResultDiff lists entries present in a newer result but not in an older one.
type ResultDiff struct {
	IllegalPrograms [][]string `json:"illegal_programs"`
	Announcements   [][]string `json:"announcements"`
}

// Empty reports whether the diff contains no new entries.
func (d ResultDiff) Empty() bool {
	return len(d.IllegalPrograms) == 0 && len(d.Announcements) == 0
}

// Diff returns the entries of cur that do not appear in prev.
// A nil prev yields every entry of cur.
func Diff(prev, cur *WorkflowResult) ResultDiff {
	if cur == nil {
		return ResultDiff{}
	}
	var before WorkflowResult
	if prev != nil {
		before = *prev
	}
	return ResultDiff{
		IllegalPrograms: newLines(before.IllegalPrograms.Lines(), cur.IllegalPrograms.Lines()),
		Announcements:   newLines(before.Announcements.Lines(), cur.Announcements.Lines()),
	}
}

func newLines(prev, cur [][]string) [][]string {
	seen := make(map[string]struct{}, len(prev))
	for _, line := range prev {
		seen[lineKey(line)] = struct{}{}
	}
	var added [][]string
	for _, line := range cur {
		if _, ok := seen[lineKey(line)]; ok {
			continue
		}
		added = append(added, line)
	}
	return added
}

func lineKey(line []string) string {
	return strings.Join(line, "\x1f")
}
