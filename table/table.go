// Package table implements the transport table: the pipe-delimited
// tabular text form used to move translation units to an external
// translator and back.
//
// The table survives copy-paste through free-text channels. Encode and
// decode are exact inverses on well-formed input: cell escaping is
// lossless (backslash, pipe, newline and edge-whitespace escapes), so a
// decoded record reproduces the encoded context, source, translations
// and comment byte-for-byte.
package table

import (
	"fmt"
	"strings"
)

// Default bounds. The table originates from a free-form external actor,
// so decode refuses oversized input before parsing it.
const (
	DefaultMaxRows    = 5000
	DefaultMaxCellLen = 4096
)

// Fixed leading and trailing column names.
const (
	colOrdinal = "#"
	colContext = "Context"
	colSource  = "Source"
	colComment = "Comment"
)

// Record correlates one (context, source, comment) with per-language
// translation cells. Languages absent from the map were left empty.
type Record struct {
	Context      string
	Source       string
	Comment      string
	Translations map[string]string
}

// Translated reports whether any language cell is filled.
func (r Record) Translated() bool {
	for _, v := range r.Translations {
		if v != "" {
			return true
		}
	}
	return false
}

// FormatError reports a structural problem: header mismatch or a row
// whose cell count differs from the header. Row is 1-based over data
// rows; 0 means the header itself.
type FormatError struct {
	Row    int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Row == 0 {
		return "table header: " + e.Reason
	}
	return fmt.Sprintf("table row %d: %s", e.Row, e.Reason)
}

// RecordError reports a row that parsed structurally but carries an
// invalid record (blank context or source).
type RecordError struct {
	Row   int
	Field string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("table row %d: blank %s", e.Row, e.Field)
}

// SizeError reports input exceeding the codec's configured bounds.
type SizeError struct {
	Reason string
}

func (e *SizeError) Error() string { return "table too large: " + e.Reason }

// Codec encodes and decodes transport tables for a fixed language set.
// The language columns appear in the order given here, and decode
// requires the same set and order back (single-language runs excepted).
type Codec struct {
	Languages  []string
	MaxRows    int
	MaxCellLen int
}

// NewCodec returns a codec for the given language columns with default
// size bounds.
func NewCodec(languages []string) *Codec {
	return &Codec{
		Languages:  languages,
		MaxRows:    DefaultMaxRows,
		MaxCellLen: DefaultMaxCellLen,
	}
}

// header returns the column names in encoded order.
func (c *Codec) header() []string {
	cols := []string{colOrdinal, colContext, colSource}
	cols = append(cols, c.Languages...)
	return append(cols, colComment)
}

// Encode renders records as a pipe table: a header row, a dash separator
// row and one data row per record with a 1-based ordinal.
func (c *Codec) Encode(recs []Record) string {
	var b strings.Builder

	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, cell := range cells {
			b.WriteString(" " + cell + " |")
		}
		b.WriteString("\n")
	}

	head := c.header()
	writeRow(head)

	sep := make([]string, len(head))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)

	for i, r := range recs {
		cells := []string{
			fmt.Sprintf("%d", i+1),
			escapeCell(r.Context),
			escapeCell(r.Source),
		}
		for _, lang := range c.Languages {
			cells = append(cells, escapeCell(r.Translations[lang]))
		}
		cells = append(cells, escapeCell(r.Comment))
		writeRow(cells)
	}

	return b.String()
}

// Decode parses a filled-in table back into records. The header must
// name the codec's languages in order; when the codec targets exactly
// one language, any single translation column name is accepted (external
// translators often relabel it). Rows with every language cell empty are
// skipped: still untranslated, not an error.
func (c *Codec) Decode(text string) ([]Record, error) {
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "|") {
			continue
		}
		rows = append(rows, splitRow(trimmed))
	}

	if len(rows) < 2 {
		return nil, &FormatError{Row: 0, Reason: "missing header and separator rows"}
	}
	if len(rows)-2 > c.maxRows() {
		return nil, &SizeError{Reason: fmt.Sprintf("%d data rows, limit %d", len(rows)-2, c.maxRows())}
	}

	langs, err := c.matchHeader(rows[0])
	if err != nil {
		return nil, err
	}

	want := 4 + len(langs)
	var recs []Record
	for i, cells := range rows[2:] {
		rowNum := i + 1
		if len(cells) != want {
			return nil, &FormatError{
				Row:    rowNum,
				Reason: fmt.Sprintf("%d cells, header has %d columns", len(cells), want),
			}
		}
		for _, cell := range cells {
			if len(cell) > c.maxCellLen() {
				return nil, &SizeError{
					Reason: fmt.Sprintf("row %d cell exceeds %d bytes", rowNum, c.maxCellLen()),
				}
			}
		}

		rec := Record{
			Context:      unescapeCell(cells[1]),
			Source:       unescapeCell(cells[2]),
			Comment:      unescapeCell(cells[len(cells)-1]),
			Translations: make(map[string]string, len(langs)),
		}
		if strings.TrimSpace(rec.Context) == "" {
			return nil, &RecordError{Row: rowNum, Field: "context"}
		}
		if strings.TrimSpace(rec.Source) == "" {
			return nil, &RecordError{Row: rowNum, Field: "source"}
		}

		filled := false
		for j, lang := range langs {
			v := unescapeCell(cells[3+j])
			if v != "" {
				rec.Translations[lang] = v
				filled = true
			}
		}
		if !filled {
			// Untouched row: still untranslated for every language.
			continue
		}
		recs = append(recs, rec)
	}

	return recs, nil
}

// matchHeader validates the header row and returns the language column
// names to decode under.
func (c *Codec) matchHeader(cells []string) ([]string, error) {
	want := c.header()
	if len(cells) != len(want) {
		return nil, &FormatError{
			Row:    0,
			Reason: fmt.Sprintf("%d columns, want %d", len(cells), len(want)),
		}
	}
	if cells[0] != colOrdinal || cells[1] != colContext || cells[2] != colSource ||
		cells[len(cells)-1] != colComment {
		return nil, &FormatError{Row: 0, Reason: "fixed columns must be #, Context, Source, …, Comment"}
	}

	got := cells[3 : len(cells)-1]
	if len(c.Languages) == 1 {
		// Single-language runs accept a renamed translation column.
		return c.Languages, nil
	}
	for i, lang := range c.Languages {
		if got[i] != lang {
			return nil, &FormatError{
				Row:    0,
				Reason: fmt.Sprintf("language column %d is %q, want %q", i+1, got[i], lang),
			}
		}
	}
	return c.Languages, nil
}

func (c *Codec) maxRows() int {
	if c.MaxRows > 0 {
		return c.MaxRows
	}
	return DefaultMaxRows
}

func (c *Codec) maxCellLen() int {
	if c.MaxCellLen > 0 {
		return c.MaxCellLen
	}
	return DefaultMaxCellLen
}

// splitRow splits a pipe row into cells, honoring \| escapes. Only the
// unescaped whitespace padding the cells is trimmed; escaped edge
// whitespace is cell content and survives. The leading and trailing
// pipes delimit the row; an empty tail fragment is discarded.
func splitRow(line string) []string {
	var cells []string
	var cur []rune
	keep := 0
	started := false
	escaped := false

	flush := func(tail bool) {
		cell := string(cur[:keep])
		if !tail || cell != "" {
			cells = append(cells, cell)
		}
		cur = cur[:0]
		keep = 0
		started = false
	}

	body := strings.TrimPrefix(line, "|")
	for _, r := range body {
		switch {
		case escaped:
			cur = append(cur, '\\', r)
			keep = len(cur)
			started = true
			escaped = false
		case r == '\\':
			escaped = true
		case r == '|':
			flush(false)
		case r == ' ' || r == '\t':
			// Leading padding is dropped; interior whitespace is kept
			// once content started, trailing runs stay past keep.
			if started {
				cur = append(cur, r)
			}
		default:
			cur = append(cur, r)
			keep = len(cur)
			started = true
		}
	}
	if escaped {
		cur = append(cur, '\\')
		keep = len(cur)
	}
	flush(true)
	return cells
}

// escapeCell makes a value safe for a single table cell. The escapes are
// reversed exactly by unescapeCell, which is what makes the transport
// round trip lossless.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\n", `\n`)

	// Edge whitespace would be trimmed as cell padding on decode, so
	// the first leading and last trailing whitespace char are escaped.
	// One escaped char anchors any run behind it.
	if len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = `\` + s
	}
	if n := len(s); n > 0 && (s[n-1] == ' ' || s[n-1] == '\t') {
		i := n - 1
		for i > 0 && s[i-1] == '\\' {
			i--
		}
		if (n-1-i)%2 == 0 {
			s = s[:n-1] + `\` + s[n-1:]
		}
	}
	return s
}

// unescapeCell reverses escapeCell.
func unescapeCell(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			case '|':
				b.WriteByte('|')
				i++
				continue
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case ' ', '\t':
				b.WriteByte(s[i+1])
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
