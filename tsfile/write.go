package tsfile

import (
	"fmt"
	"sort"
	"strings"
)

// defaultMessageIndent is used when indentation cannot be inferred from
// the surrounding document (new files, empty contexts). Matches the
// output of Qt's lupdate.
const defaultMessageIndent = "    "

// edit is a pending byte replacement: raw[start:end) becomes text.
// seq breaks ties between insertions at the same offset.
type edit struct {
	start, end int64
	text       string
	seq        int
}

// render produces the full serialized catalog with all pending changes
// applied. Regions of the original document not touched by a change are
// emitted byte-for-byte.
func (f *File) render() ([]byte, error) {
	if f.raw == nil {
		return f.marshal(), nil
	}

	var edits []edit
	seq := 0
	add := func(start, end int64, text string) {
		edits = append(edits, edit{start: start, end: end, text: text, seq: seq})
		seq++
	}

	for _, ctx := range f.Contexts {
		if ctx.appended {
			indent := f.contextIndent()
			add(f.tsEnd, f.tsEnd, "\n"+renderContext(ctx, indent))
			continue
		}

		var appendBlock strings.Builder
		msgIndent := f.messageIndent(ctx)
		for _, m := range ctx.Messages {
			if m.appended {
				appendBlock.WriteString("\n" + renderMessage(m, msgIndent))
				continue
			}
			childIndent := f.childIndent(m, msgIndent)
			if m.dirtyComment {
				if m.commentSpan.valid() {
					add(m.commentSpan.start, m.commentSpan.end, renderComment(m))
				} else if m.transSpan.valid() {
					// Qt element order puts comment before translation.
					add(m.transSpan.start, m.transSpan.start, renderComment(m)+"\n"+childIndent)
				} else {
					add(m.childInsert, m.childInsert, "\n"+childIndent+renderComment(m))
				}
			}
			if m.dirtyTrans {
				if m.transSpan.valid() {
					add(m.transSpan.start, m.transSpan.end, renderTranslation(m))
				} else {
					add(m.childInsert, m.childInsert, "\n"+childIndent+renderTranslation(m))
				}
			}
		}
		if appendBlock.Len() > 0 {
			add(ctx.insertOff, ctx.insertOff, appendBlock.String())
		}
	}

	sort.Slice(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start < edits[j].start
		}
		return edits[i].seq < edits[j].seq
	})

	var out []byte
	var pos int64
	for _, e := range edits {
		if e.start < pos || e.end > int64(len(f.raw)) {
			return nil, fmt.Errorf("overlapping edit at offset %d", e.start)
		}
		out = append(out, f.raw[pos:e.start]...)
		out = append(out, e.text...)
		pos = e.end
	}
	out = append(out, f.raw[pos:]...)
	return out, nil
}

// marshal serializes a catalog built in memory (no original bytes).
func (f *File) marshal() []byte {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	b.WriteString("<!DOCTYPE TS>\n")
	b.WriteString(`<TS version="` + attrEscape(f.Version) + `"`)
	if f.Language != "" {
		b.WriteString(` language="` + attrEscape(f.Language) + `"`)
	}
	if f.SourceLanguage != "" {
		b.WriteString(` sourcelanguage="` + attrEscape(f.SourceLanguage) + `"`)
	}
	b.WriteString(">\n")
	for _, ctx := range f.Contexts {
		b.WriteString(renderContext(ctx, ""))
		b.WriteString("\n")
	}
	b.WriteString("</TS>\n")
	return []byte(b.String())
}

// renderContext serializes one full context block at the given indent.
func renderContext(ctx *Context, indent string) string {
	msgIndent := indent + defaultMessageIndent
	var b strings.Builder
	b.WriteString(indent + "<context>\n")
	b.WriteString(msgIndent + "<name>" + xmlEscape(ctx.Name) + "</name>")
	for _, m := range ctx.Messages {
		b.WriteString("\n" + renderMessage(m, msgIndent))
	}
	b.WriteString("\n" + indent + "</context>")
	return b.String()
}

// renderMessage serializes one full message block at the given indent.
func renderMessage(m *Message, indent string) string {
	child := indent + defaultMessageIndent
	var b strings.Builder
	b.WriteString(indent + "<message>\n")
	b.WriteString(child + "<source>" + xmlEscape(m.Source) + "</source>\n")
	if m.Comment != "" {
		b.WriteString(child + renderComment(m) + "\n")
	}
	b.WriteString(child + renderTranslation(m) + "\n")
	b.WriteString(indent + "</message>")
	return b.String()
}

func renderTranslation(m *Message) string {
	if t := m.Status.String(); t != "" {
		return `<translation type="` + t + `">` + xmlEscape(m.Translation) + "</translation>"
	}
	return "<translation>" + xmlEscape(m.Translation) + "</translation>"
}

func renderComment(m *Message) string {
	return "<comment>" + xmlEscape(m.Comment) + "</comment>"
}

// contextIndent infers the indentation of <context> elements from the
// first existing context, falling back to column zero.
func (f *File) contextIndent() string {
	for _, ctx := range f.Contexts {
		if !ctx.appended && ctx.nameStart > 0 {
			// nameStart indents one level below the context itself.
			name := f.indentBefore(ctx.nameStart)
			return strings.TrimSuffix(name, defaultMessageIndent)
		}
	}
	return ""
}

// messageIndent infers the indentation for <message> children of a context.
func (f *File) messageIndent(ctx *Context) string {
	if ctx.nameStart > 0 {
		return f.indentBefore(ctx.nameStart)
	}
	return defaultMessageIndent
}

// childIndent infers the indentation for elements inside a message.
func (f *File) childIndent(m *Message, msgIndent string) string {
	if m.srcStart > 0 {
		return f.indentBefore(m.srcStart)
	}
	return msgIndent + defaultMessageIndent
}

// indentBefore returns the run of spaces/tabs between the previous
// newline and the given offset, or the default when the element does not
// start its own line.
func (f *File) indentBefore(off int64) string {
	i := off
	for i > 0 {
		c := f.raw[i-1]
		if c == ' ' || c == '\t' {
			i--
			continue
		}
		break
	}
	if i == 0 || f.raw[i-1] == '\n' {
		return string(f.raw[i:off])
	}
	return defaultMessageIndent + defaultMessageIndent
}

// xmlEscape escapes text content for a TS document the way Qt Linguist
// does: ampersand, angle brackets and CR.
func xmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\r", "&#xd;")
	return s
}

// attrEscape escapes an attribute value.
func attrEscape(s string) string {
	s = xmlEscape(s)
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
