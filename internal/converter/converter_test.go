package converter

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

type zipEntry struct {
	name string
	data []byte
}

func zipBytes(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write(e.data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(8, 6)))
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(8, 6), nil))
	return buf.Bytes()
}

func bmpBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, testImage(8, 6)))
	return buf.Bytes()
}

const (
	nsMain = `xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"`
	nsRel  = `xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	nsPkg  = `xmlns="http://schemas.openxmlformats.org/package/2006/relationships"`
	nsW    = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`
	nsA    = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`
	nsP    = `xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`
)

func docxBytes(t *testing.T) []byte {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<w:document ` + nsW + `><w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Quarterly report</w:t></w:r></w:p>
<w:p><w:r><w:t>Revenue grew </w:t></w:r><w:r><w:t>by 12%.</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>Costs</w:t><w:tab/><w:t>flat</w:t></w:r></w:p>
</w:body></w:document>`
	return zipBytes(t, zipEntry{"word/document.xml", []byte(body)})
}

func xlsxBytes(t *testing.T) []byte {
	workbook := `<workbook ` + nsMain + ` ` + nsRel + `><sheets>
<sheet name="Totals" sheetId="1" r:id="rId1"/>
<sheet name="Notes" sheetId="2" r:id="rId2"/>
</sheets></workbook>`
	rels := `<Relationships ` + nsPkg + `>
<Relationship Id="rId1" Target="worksheets/sheet1.xml"/>
<Relationship Id="rId2" Target="/xl/worksheets/sheet2.xml"/>
</Relationships>`
	shared := `<sst ` + nsMain + `><si><t>Region</t></si><si><r><t>Reve</t></r><r><t>nue</t></r></si></sst>`
	sheet1 := `<worksheet ` + nsMain + `><sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="C1" t="s"><v>1</v></c></row>
<row r="2"><c r="A2" t="inlineStr"><is><t>North</t></is></c><c r="B2" t="b"><v>1</v></c><c r="C2"><v>1200.5</v></c></row>
</sheetData></worksheet>`
	sheet2 := `<worksheet ` + nsMain + `><sheetData></sheetData></worksheet>`
	return zipBytes(t,
		zipEntry{"xl/workbook.xml", []byte(workbook)},
		zipEntry{"xl/_rels/workbook.xml.rels", []byte(rels)},
		zipEntry{"xl/sharedStrings.xml", []byte(shared)},
		zipEntry{"xl/worksheets/sheet1.xml", []byte(sheet1)},
		zipEntry{"xl/worksheets/sheet2.xml", []byte(sheet2)},
	)
}

func slideXML(lines ...string) []byte {
	var b bytes.Buffer
	b.WriteString(`<p:sld ` + nsA + ` ` + nsP + `><p:cSld><p:spTree><p:sp><p:txBody>`)
	for _, l := range lines {
		b.WriteString(`<a:p><a:r><a:t>` + l + `</a:t></a:r></a:p>`)
	}
	b.WriteString(`</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`)
	return b.Bytes()
}

func pptxBytes(t *testing.T) []byte {
	pres := `<p:presentation ` + nsP + ` ` + nsRel + `><p:sldIdLst>
<p:sldId id="256" r:id="rId3"/>
<p:sldId id="257" r:id="rId2"/>
</p:sldIdLst></p:presentation>`
	rels := `<Relationships ` + nsPkg + `>
<Relationship Id="rId2" Target="slides/slide1.xml"/>
<Relationship Id="rId3" Target="slides/slide2.xml"/>
</Relationships>`
	return zipBytes(t,
		zipEntry{"ppt/presentation.xml", []byte(pres)},
		zipEntry{"ppt/_rels/presentation.xml.rels", []byte(rels)},
		zipEntry{"ppt/slides/slide1.xml", slideXML("Agenda", "Budget")},
		zipEntry{"ppt/slides/slide2.xml", slideXML("Welcome")},
	)
}

func convert(t *testing.T, name string, content []byte, opts Options) ([]byte, error) {
	t.Helper()
	var out bytes.Buffer
	err := CreateDefaultManager().ConvertToPDF(NewDocument(name, content), opts, &out)
	return out.Bytes(), err
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument("Report.Final.DOCX", []byte("abc"))
	assert.Equal(t, "docx", doc.Ext)
	assert.Equal(t, int64(3), doc.Size())
	assert.NotEmpty(t, doc.ID)
	assert.False(t, doc.CreatedAt.IsZero())

	assert.Equal(t, "", NewDocument("README", nil).Ext)
}

func TestManagerConvertsEveryFormat(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content func(t *testing.T) []byte
	}{
		{"png", "photo.png", pngBytes},
		{"jpeg", "photo.JPG", jpegBytes},
		{"bmp", "scan.bmp", bmpBytes},
		{"zip", "photos.zip", func(t *testing.T) []byte {
			return zipBytes(t,
				zipEntry{"b.png", pngBytes(t)},
				zipEntry{"notes.txt", []byte("skip me")},
				zipEntry{"__MACOSX/._b.png", []byte("junk")},
				zipEntry{"a.jpg", jpegBytes(t)},
			)
		}},
		{"docx", "report.docx", docxBytes},
		{"xlsx", "totals.xlsx", xlsxBytes},
		{"pptx", "deck.pptx", pptxBytes},
		{"html", "page.html", func(*testing.T) []byte {
			return []byte(`<html><head><style>p{}</style><script>var x;</script></head>
<body><h1>Title</h1><div><p>First paragraph</p><span>Inline text</span></div><h5>Small</h5></body></html>`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := convert(t, tt.file, tt.content(t), DefaultOptions())
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")), "output is not a PDF")
		})
	}
}

func TestManagerUnsupportedFormat(t *testing.T) {
	_, err := convert(t, "notes.txt", []byte("hello"), DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	m := CreateDefaultManager()
	assert.False(t, m.Supports(NewDocument("notes.txt", nil)))
	assert.True(t, m.Supports(NewDocument("deck.pptx", nil)))
}

func TestLegacyOfficeFormatsRejected(t *testing.T) {
	for _, name := range []string{"old.doc", "old.xls", "old.ppt"} {
		t.Run(name, func(t *testing.T) {
			_, err := convert(t, name, []byte("binary"), DefaultOptions())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLegacyFormat)
			assert.Contains(t, err.Error(), "files are not supported")
		})
	}
}

func TestZipWithoutImages(t *testing.T) {
	content := zipBytes(t, zipEntry{"readme.txt", []byte("no pictures")})
	_, err := convert(t, "docs.zip", content, DefaultOptions())
	assert.ErrorIs(t, err, ErrNoImages)
}

func TestEmptyHTML(t *testing.T) {
	for _, content := range []string{"", "   \n", "<html><body><script>x()</script></body></html>"} {
		_, err := convert(t, "empty.html", []byte(content), DefaultOptions())
		assert.ErrorIs(t, err, ErrEmptyHTML, "content %q", content)
	}
}

func TestHTMLBlocks(t *testing.T) {
	tests := []struct {
		name string
		html string
		want []htmlBlock
	}{
		{
			name: "inline span stays in its paragraph",
			html: `<p>Hello <span>world</span></p>`,
			want: []htmlBlock{{text: "Hello world"}},
		},
		{
			name: "container text around nested blocks",
			html: `<div>Intro <p>x</p> outro</div>`,
			want: []htmlBlock{{text: "Intro"}, {text: "x"}, {text: "outro"}},
		},
		{
			name: "headings and standalone span",
			html: `<h2>Title <b>bold</b></h2><span>Loose</span><h6>Small</h6><p>a<br>b</p>`,
			want: []htmlBlock{{level: 1, text: "Title bold"}, {text: "Loose"}, {level: 2, text: "Small"}, {text: "a b"}},
		},
		{
			name: "scripts and styles are ignored",
			html: `<div><style>p{}</style><script>x()</script>Kept</div>`,
			want: []htmlBlock{{text: "Kept"}},
		},
		{
			name: "plain text fallback",
			html: "<body>just some\n\ntext</body>",
			want: []htmlBlock{{text: "just some"}, {text: "text"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, err := htmlBlocks(NewDocument("page.html", []byte(tt.html)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, blocks)
		})
	}
}

func TestHTMLPlainTextFallback(t *testing.T) {
	out, err := convert(t, "plain.htm", []byte("<body>just some\n\ntext</body>"), DefaultOptions())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestCorruptOfficePackage(t *testing.T) {
	_, err := convert(t, "broken.docx", []byte("not a zip"), DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an Office Open XML package")
}

func TestCorruptImage(t *testing.T) {
	_, err := convert(t, "broken.png", []byte("not a png"), DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding image")
}

func TestWordParagraphs(t *testing.T) {
	pkg, err := openPackage(NewDocument("r.docx", docxBytes(t)))
	require.NoError(t, err)
	data, err := pkg.read(documentPart)
	require.NoError(t, err)

	paras, err := wordParagraphs(data)
	require.NoError(t, err)
	assert.Equal(t, []wordParagraph{
		{text: "Quarterly report", heading: true},
		{text: "Revenue grew by 12%."},
		{text: "Costs\tflat"},
	}, paras)
}

func TestReadWorkbook(t *testing.T) {
	pkg, err := openPackage(NewDocument("t.xlsx", xlsxBytes(t)))
	require.NoError(t, err)

	sheets, err := readWorkbook(pkg)
	require.NoError(t, err)
	require.Len(t, sheets, 2)

	assert.Equal(t, "Totals", sheets[0].name)
	assert.Equal(t, [][]string{
		{"Region", "", "Revenue"},
		{"North", "True", "1200.5"},
	}, sheets[0].rows)
	assert.Equal(t, "Notes", sheets[1].name)
	assert.Empty(t, sheets[1].rows)
}

func TestWorksheetRowsBoundsColumns(t *testing.T) {
	data := []byte(`<worksheet ` + nsMain + `><sheetData>
<row r="1"><c r="A1"><v>a</v></c><c r="ZZZZZ1"><v>b</v></c></row>
<row r="2"><c r="A2"><v>c</v></c><c r="XFD2"><v>far</v></c></row>
</sheetData></worksheet>`)
	var ws xlsxWorksheet
	require.NoError(t, xml.Unmarshal(data, &ws))

	rows := worksheetRows(ws, nil)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b"}, rows[0], "an invalid reference falls back to the cell position")
	assert.Equal(t, []string{"c"}, rows[1], "columns that cannot be rendered are dropped")
}

func TestColumnIndex(t *testing.T) {
	tests := map[string]int{
		"A1": 0, "C7": 2, "Z1": 25, "AA3": 26, "AB10": 27, "XFD1": 16383,
		"": -1, "12": -1, "XFE1": -1, "ZZZZZ1": -1, "ZZZZZZZZZZZZZZ1": -1,
	}
	for ref, want := range tests {
		assert.Equal(t, want, columnIndex(ref), ref)
	}
}

func TestSlidePartsOrder(t *testing.T) {
	t.Run("presentation order", func(t *testing.T) {
		pkg, err := openPackage(NewDocument("d.pptx", pptxBytes(t)))
		require.NoError(t, err)
		parts, err := slideParts(pkg)
		require.NoError(t, err)
		assert.Equal(t, []string{"ppt/slides/slide2.xml", "ppt/slides/slide1.xml"}, parts)
	})

	t.Run("numeric fallback", func(t *testing.T) {
		content := zipBytes(t,
			zipEntry{"ppt/slides/slide10.xml", slideXML("ten")},
			zipEntry{"ppt/slides/slide2.xml", slideXML("two")},
			zipEntry{"ppt/slides/_rels/slide2.xml.rels", []byte("<Relationships/>")},
		)
		pkg, err := openPackage(NewDocument("d.pptx", content))
		require.NoError(t, err)
		parts, err := slideParts(pkg)
		require.NoError(t, err)
		assert.Equal(t, []string{"ppt/slides/slide2.xml", "ppt/slides/slide10.xml"}, parts)
	})
}

func TestSlideText(t *testing.T) {
	lines, err := slideText(slideXML("First", "  ", "Second"))
	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Second"}, lines)
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name                    string
		size, orientation, qual string
		want                    Options
	}{
		{"defaults", "", "", "", DefaultOptions()},
		{"valid", "letter", "Landscape", "80", Options{PageSize: "Letter", Orientation: OrientationLandscape, Quality: 80}},
		{"unknown size", "B5", "portrait", "50", Options{PageSize: "A4", Orientation: OrientationPortrait, Quality: 50}},
		{"quality out of range", "A3", "sideways", "150", Options{PageSize: "A3", Orientation: OrientationPortrait, Quality: DefaultQuality}},
		{"quality not a number", "A5", "", "high", Options{PageSize: "A5", Orientation: OrientationPortrait, Quality: DefaultQuality}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOptions(tt.size, tt.orientation, tt.qual))
		})
	}
}

func TestLandscapeImagePage(t *testing.T) {
	opts := ParseOptions("A4", "landscape", "")
	out, err := convert(t, "wide.png", pngBytes(t), opts)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héllo", truncateRunes("héllo wörld", 5))
	assert.Equal(t, "short", truncateRunes("short", 80))
}
