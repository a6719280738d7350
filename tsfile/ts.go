// Package tsfile implements reading and writing of Qt Linguist TS
// translation catalogs (the XML files consumed by lrelease/Qt Linguist).
//
// A catalog is a tree of contexts, each holding ordered messages with a
// source string, an optional translation, an optional comment and a
// finished/unfinished/vanished status. The parser keeps the original file
// bytes and records the byte spans of every translation and comment
// element, so that updates can be spliced into the original document
// without reformatting untouched regions. Version-control diffs over
// catalog files stay minimal and reviewable.
package tsfile

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Status describes the translation state of a message.
type Status int

const (
	// Finished means the message has an accepted translation.
	Finished Status = iota
	// Unfinished means the message awaits translation or review.
	Unfinished
	// Vanished means the source string no longer occurs in the codebase.
	Vanished
)

// String returns the TS type attribute value for the status
// (empty for Finished).
func (s Status) String() string {
	switch s {
	case Unfinished:
		return "unfinished"
	case Vanished:
		return "vanished"
	}
	return ""
}

// Unit is a single translation record used as merge input. It carries no
// position information; identity within a catalog is (Context, Source).
type Unit struct {
	Context     string
	Source      string
	Translation string
	Comment     string
}

// span marks a half-open byte range [start, end) in the original file.
type span struct {
	start, end int64
}

func (s span) valid() bool { return s.end > s.start }

// Message is one <message> element.
type Message struct {
	Source      string
	Translation string
	Comment     string
	Status      Status

	// Byte spans into File.raw. Zero spans mean the element was absent
	// in the source document (or the message was appended in memory).
	transSpan   span
	commentSpan span
	// childInsert is the offset just after the last child element,
	// where a missing comment/translation element can be inserted.
	childInsert int64
	// srcStart is the offset of the <source> start tag, used to infer
	// the child indentation of this message.
	srcStart int64

	appended     bool
	dirtyTrans   bool
	dirtyComment bool
}

// Translated reports whether the message carries a finished,
// non-empty translation.
func (m *Message) Translated() bool {
	return m.Status == Finished && m.Translation != ""
}

// Context is one <context> element: a named grouping of messages.
type Context struct {
	Name     string
	Messages []*Message

	// insertOff is the offset just after the last child element, where
	// appended messages are spliced in. Zero for in-memory contexts.
	insertOff int64
	// nameStart is the offset of the <name> start tag, used to infer
	// message indentation.
	nameStart int64

	appended bool
}

// File is a parsed TS catalog.
type File struct {
	Version        string
	Language       string
	SourceLanguage string
	Contexts       []*Context

	// raw holds the original file bytes; nil for catalogs created in
	// memory. Unchanged regions of raw are written back verbatim.
	raw []byte
	// tsEnd is the offset just after the last <context> (or after the
	// <TS> start tag when the catalog is empty), where new contexts
	// are inserted.
	tsEnd int64

	msgIndex map[string]*Message
	ctxIndex map[string]*Context
	dirty    int
}

// NewFile creates an empty in-memory catalog for the given language.
func NewFile(language string) *File {
	return &File{
		Version:  "2.1",
		Language: language,
	}
}

// ParseError reports an unparsable catalog file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed catalog %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses TS catalog bytes. The path is used only in error messages.
func Parse(data []byte, path string) (*File, error) {
	f := &File{Version: "2.1", raw: data}
	dec := xml.NewDecoder(bytes.NewReader(data))

	sawTS := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "TS":
				sawTS = true
				if v := attrValue(t, "version"); v != "" {
					f.Version = v
				}
				f.Language = attrValue(t, "language")
				f.SourceLanguage = attrValue(t, "sourcelanguage")
				f.tsEnd = dec.InputOffset()
			case "context":
				if !sawTS {
					return nil, &ParseError{Path: path, Err: errors.New("context outside TS root")}
				}
				ctx, end, err := parseContext(dec)
				if err != nil {
					return nil, &ParseError{Path: path, Err: err}
				}
				f.Contexts = append(f.Contexts, ctx)
				f.tsEnd = end
			default:
				if sawTS {
					dec.Skip()
				}
			}
		}
	}

	if !sawTS {
		return nil, &ParseError{Path: path, Err: errors.New("missing TS root element")}
	}
	return f, nil
}

// parseContext consumes an already-opened <context> element and returns
// the context plus the offset just after its closing tag.
func parseContext(dec *xml.Decoder) (*Context, int64, error) {
	ctx := &Context{}
	for {
		off := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return nil, 0, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "name":
				ctx.nameStart = off
				text, err := readText(dec)
				if err != nil {
					return nil, 0, err
				}
				ctx.Name = text
				ctx.insertOff = dec.InputOffset()
			case "message":
				msg, err := parseMessage(dec, t)
				if err != nil {
					return nil, 0, err
				}
				ctx.Messages = append(ctx.Messages, msg)
				ctx.insertOff = dec.InputOffset()
			default:
				if err := dec.Skip(); err != nil {
					return nil, 0, err
				}
				ctx.insertOff = dec.InputOffset()
			}
		case xml.EndElement:
			if t.Name.Local == "context" {
				return ctx, dec.InputOffset(), nil
			}
		}
	}
}

// parseMessage consumes an already-opened <message> element.
func parseMessage(dec *xml.Decoder, start xml.StartElement) (*Message, error) {
	m := &Message{Status: Unfinished}
	sawTranslation := false

	for {
		off := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "source":
				m.srcStart = off
				text, err := readText(dec)
				if err != nil {
					return nil, err
				}
				m.Source = text
				m.childInsert = dec.InputOffset()
			case "comment":
				text, err := readText(dec)
				if err != nil {
					return nil, err
				}
				m.Comment = text
				m.commentSpan = span{start: off, end: dec.InputOffset()}
				m.childInsert = dec.InputOffset()
			case "translation":
				sawTranslation = true
				typeAttr := attrValue(t, "type")
				text, err := readText(dec)
				if err != nil {
					return nil, err
				}
				m.Translation = text
				m.transSpan = span{start: off, end: dec.InputOffset()}
				m.childInsert = dec.InputOffset()
				switch typeAttr {
				case "unfinished":
					m.Status = Unfinished
				case "vanished", "obsolete":
					m.Status = Vanished
				default:
					m.Status = Finished
				}
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
				m.childInsert = dec.InputOffset()
			}
		case xml.EndElement:
			if t.Name.Local == "message" {
				// A missing translation element means untranslated.
				if !sawTranslation {
					m.Status = Unfinished
				}
				return m, nil
			}
		}
	}
}

// readText consumes the remaining content of the current element through
// its end tag and returns the concatenated character data at the top
// nesting level. Nested markup (e.g. numerusform wrappers) is skipped.
func readText(dec *xml.Decoder) (string, error) {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 1 {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

func attrValue(elem xml.StartElement, name string) string {
	for _, a := range elem.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Index and lookup
// ---------------------------------------------------------------------------

// indexKey builds the (context, source) lookup key. \x04 cannot occur in
// XML text content, so the key is collision-free.
func indexKey(context, source string) string {
	return context + "\x04" + source
}

// ensureIndex builds the lookup index on first use. Inserts keep it
// current, so it is never rebuilt for an already-loaded catalog.
func (f *File) ensureIndex() {
	if f.msgIndex != nil {
		return
	}
	f.msgIndex = make(map[string]*Message)
	f.ctxIndex = make(map[string]*Context, len(f.Contexts))
	for _, ctx := range f.Contexts {
		f.ctxIndex[ctx.Name] = ctx
		for _, m := range ctx.Messages {
			f.msgIndex[indexKey(ctx.Name, m.Source)] = m
		}
	}
}

// Find returns the message for (context, source), if present.
func (f *File) Find(context, source string) (*Message, bool) {
	f.ensureIndex()
	m, ok := f.msgIndex[indexKey(context, source)]
	return m, ok
}

// ContextByName returns the named context, if present.
func (f *File) ContextByName(name string) (*Context, bool) {
	f.ensureIndex()
	ctx, ok := f.ctxIndex[name]
	return ctx, ok
}

// insert appends a new message to the named context, creating the
// context if needed, and registers it in the index.
func (f *File) insert(u Unit) *Message {
	f.ensureIndex()

	ctx, ok := f.ctxIndex[u.Context]
	if !ok {
		ctx = &Context{Name: u.Context, appended: true}
		f.Contexts = append(f.Contexts, ctx)
		f.ctxIndex[u.Context] = ctx
	}

	m := &Message{
		Source:      u.Source,
		Translation: u.Translation,
		Comment:     u.Comment,
		Status:      statusFor(u.Translation),
		appended:    true,
	}
	ctx.Messages = append(ctx.Messages, m)
	f.msgIndex[indexKey(u.Context, u.Source)] = m
	f.dirty++
	return m
}

// statusFor derives the message status from a translation value.
func statusFor(translation string) Status {
	if translation == "" {
		return Unfinished
	}
	return Finished
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Stats returns per-status message counts.
func (f *File) Stats() (total, finished, unfinished, vanished int) {
	for _, ctx := range f.Contexts {
		for _, m := range ctx.Messages {
			total++
			switch m.Status {
			case Finished:
				finished++
			case Unfinished:
				unfinished++
			case Vanished:
				vanished++
			}
		}
	}
	return
}

// UntranslatedUnits returns the catalog's untranslated messages as units
// (empty translation), in document order. Vanished messages are excluded;
// their source strings no longer exist.
func (f *File) UntranslatedUnits() []Unit {
	var units []Unit
	for _, ctx := range f.Contexts {
		for _, m := range ctx.Messages {
			if m.Status == Vanished || m.Translated() {
				continue
			}
			units = append(units, Unit{
				Context: ctx.Name,
				Source:  m.Source,
				Comment: m.Comment,
			})
		}
	}
	return units
}
