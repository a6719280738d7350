package table

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec := NewCodec([]string{"zh_CN", "zh_HK", "zh_TW"})

	recs := []Record{
		{
			Context: "MainWindow",
			Source:  "Open File",
			Comment: "menu entry",
			Translations: map[string]string{
				"zh_CN": "打开文件",
				"zh_HK": "開啟檔案",
				"zh_TW": "開啟檔案",
			},
		},
		{
			Context: "Shell",
			Source:  `pipe | and \ backslash` + "\nsecond line",
			Translations: map[string]string{
				"zh_CN": "管道 | 与 \\ 反斜杠",
			},
		},
		{
			Context: "StatusBar",
			Source:  "Search: ",
			Translations: map[string]string{
				"zh_CN": " 搜索： ",
			},
		},
	}

	text := codec.Encode(recs)
	if !strings.HasPrefix(text, "| # | Context | Source | zh_CN | zh_HK | zh_TW | Comment |\n") {
		t.Fatalf("header wrong:\n%s", text)
	}
	// One line per row even with embedded newlines in cells.
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("encoded lines = %d, want 5", len(lines))
	}

	got, err := codec.Decode(text)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("decoded records = %d, want 3", len(got))
	}

	if got[0].Context != "MainWindow" || got[0].Source != "Open File" || got[0].Comment != "menu entry" {
		t.Fatalf("record 0 = %+v", got[0])
	}
	if got[0].Translations["zh_HK"] != "開啟檔案" {
		t.Fatalf("record 0 zh_HK = %q", got[0].Translations["zh_HK"])
	}

	if got[1].Source != recs[1].Source {
		t.Fatalf("escaped source did not round-trip: %q != %q", got[1].Source, recs[1].Source)
	}
	if got[1].Translations["zh_CN"] != recs[1].Translations["zh_CN"] {
		t.Fatalf("escaped translation did not round-trip: %q", got[1].Translations["zh_CN"])
	}

	// Edge whitespace is content, not cell padding: losing it would
	// change the (context, source) key on re-import.
	if got[2].Source != "Search: " {
		t.Fatalf("trailing space lost: %q", got[2].Source)
	}
	if got[2].Translations["zh_CN"] != " 搜索： " {
		t.Fatalf("edge whitespace lost in translation: %q", got[2].Translations["zh_CN"])
	}
}

func TestDecodeSkipsUntouchedRows(t *testing.T) {
	codec := NewCodec([]string{"zh_CN"})

	text := strings.Join([]string{
		"| # | Context | Source | zh_CN | Comment |",
		"| --- | --- | --- | --- | --- |",
		"| 1 | MainWindow | Open File | 打开文件 |  |",
		"| 2 | MainWindow | Close |  |  |",
		"| 3 | Dialog | Cancel |  | left a note |",
		"",
	}, "\n")

	recs, err := codec.Decode(text)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1 (empty rows skipped)", len(recs))
	}
	if recs[0].Source != "Open File" {
		t.Fatalf("kept record = %+v", recs[0])
	}
}

func TestDecodeHeaderMismatch(t *testing.T) {
	codec := NewCodec([]string{"zh_CN", "zh_HK"})

	cases := []string{
		// wrong language order
		"| # | Context | Source | zh_HK | zh_CN | Comment |\n| --- | --- | --- | --- | --- | --- |\n",
		// missing a language column
		"| # | Context | Source | zh_CN | Comment |\n| --- | --- | --- | --- | --- |\n",
		// fixed column renamed
		"| # | Ctx | Source | zh_CN | zh_HK | Comment |\n| --- | --- | --- | --- | --- | --- |\n",
	}
	for _, text := range cases {
		_, err := codec.Decode(text)
		var ferr *FormatError
		if !errors.As(err, &ferr) {
			t.Fatalf("Decode(%q) error = %v, want *FormatError", text, err)
		}
		if ferr.Row != 0 {
			t.Fatalf("header error row = %d, want 0", ferr.Row)
		}
	}
}

func TestDecodeSingleLanguageRelaxedHeader(t *testing.T) {
	codec := NewCodec([]string{"zh_CN"})

	text := strings.Join([]string{
		"| # | Context | Source | Translation | Comment |",
		"| --- | --- | --- | --- | --- |",
		"| 1 | MainWindow | Open File | 打开文件 |  |",
		"",
	}, "\n")

	recs, err := codec.Decode(text)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(recs) != 1 || recs[0].Translations["zh_CN"] != "打开文件" {
		t.Fatalf("records = %+v", recs)
	}
}

func TestDecodeShortRow(t *testing.T) {
	codec := NewCodec([]string{"zh_CN"})

	text := strings.Join([]string{
		"| # | Context | Source | zh_CN | Comment |",
		"| --- | --- | --- | --- | --- |",
		"| 1 | MainWindow | Open File | 打开文件 |  |",
		"| 2 | MainWindow | Close |",
		"",
	}, "\n")

	_, err := codec.Decode(text)
	var ferr *FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("Decode error = %v, want *FormatError", err)
	}
	if ferr.Row != 2 {
		t.Fatalf("error row = %d, want 2", ferr.Row)
	}
}

func TestDecodeBlankKeyFields(t *testing.T) {
	codec := NewCodec([]string{"zh_CN"})

	text := strings.Join([]string{
		"| # | Context | Source | zh_CN | Comment |",
		"| --- | --- | --- | --- | --- |",
		"| 1 |  | Open File | 打开文件 |  |",
		"",
	}, "\n")

	_, err := codec.Decode(text)
	var rerr *RecordError
	if !errors.As(err, &rerr) {
		t.Fatalf("Decode error = %v, want *RecordError", err)
	}
	if rerr.Row != 1 || rerr.Field != "context" {
		t.Fatalf("record error = %+v", rerr)
	}
}

func TestDecodeRowLimit(t *testing.T) {
	codec := NewCodec([]string{"zh_CN"})
	codec.MaxRows = 2

	var b strings.Builder
	b.WriteString("| # | Context | Source | zh_CN | Comment |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")
	for i := 0; i < 3; i++ {
		b.WriteString("| 1 | C | S | T |  |\n")
	}

	_, err := codec.Decode(b.String())
	var serr *SizeError
	if !errors.As(err, &serr) {
		t.Fatalf("Decode error = %v, want *SizeError", err)
	}
}

func TestDecodeCellLimit(t *testing.T) {
	codec := NewCodec([]string{"zh_CN"})
	codec.MaxCellLen = 8

	text := strings.Join([]string{
		"| # | Context | Source | zh_CN | Comment |",
		"| --- | --- | --- | --- | --- |",
		"| 1 | C | " + strings.Repeat("x", 9) + " | T |  |",
		"",
	}, "\n")

	_, err := codec.Decode(text)
	var serr *SizeError
	if !errors.As(err, &serr) {
		t.Fatalf("Decode error = %v, want *SizeError", err)
	}
}

func TestDecodeIgnoresProse(t *testing.T) {
	codec := NewCodec([]string{"zh_CN"})

	text := strings.Join([]string{
		"Here is the table you asked for:",
		"",
		"| # | Context | Source | zh_CN | Comment |",
		"| --- | --- | --- | --- | --- |",
		"| 1 | MainWindow | Open File | 打开文件 |  |",
		"",
		"Let me know if anything is unclear.",
		"",
	}, "\n")

	recs, err := codec.Decode(text)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
}

func TestEscapeCellRoundTrip(t *testing.T) {
	values := []string{
		"plain",
		"with | pipe",
		`back\slash`,
		"multi\nline",
		`mixed \| literal`,
		" leading space",
		"trailing space ",
		"  both edges  ",
		"trailing tab\t",
		`backslash then space \ `,
		" ",
	}
	for _, v := range values {
		if got := unescapeCell(escapeCell(v)); got != v {
			t.Fatalf("round trip %q -> %q", v, got)
		}
	}
}

func TestSplitRowKeepsEscapedEdgeWhitespace(t *testing.T) {
	cells := splitRow(`| 1 | StatusBar | Search:\  | T |  |`)
	if len(cells) != 5 {
		t.Fatalf("cells = %d: %q", len(cells), cells)
	}
	if got := unescapeCell(cells[2]); got != "Search: " {
		t.Fatalf("source cell = %q, want %q", got, "Search: ")
	}
	// Unescaped padding is still trimmed.
	if cells[1] != "StatusBar" || cells[3] != "T" || cells[4] != "" {
		t.Fatalf("cells = %q", cells)
	}
}
