package converter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const documentPart = "word/document.xml"

// WordConverter renders the paragraphs of a .docx file.
type WordConverter struct{}

// NewWordConverter creates a Word converter.
func NewWordConverter() *WordConverter {
	return &WordConverter{}
}

// CanConvert accepts .doc and .docx; .doc is rejected at conversion time.
func (c *WordConverter) CanConvert(doc *Document) bool {
	return hasExt(doc, "doc", "docx")
}

// Convert writes non-empty paragraphs, headings in bold.
func (c *WordConverter) Convert(doc *Document, opts Options, output io.Writer) error {
	if err := rejectLegacy(doc, "doc"); err != nil {
		return err
	}

	pkg, err := openPackage(doc)
	if err != nil {
		return err
	}
	data, err := pkg.read(documentPart)
	if err != nil {
		return err
	}

	paragraphs, err := wordParagraphs(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", documentPart, err)
	}

	out := newTextDoc(opts, true)
	out.addPage()
	for _, p := range paragraphs {
		if p.heading {
			out.heading(p.text, 1)
		} else {
			out.paragraph(p.text)
		}
	}
	return out.output(output)
}

type wordParagraph struct {
	text    string
	heading bool
}

// wordParagraphs streams document.xml and collects paragraph text and style.
func wordParagraphs(data []byte) ([]wordParagraph, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		out    []wordParagraph
		text   strings.Builder
		style  string
		depth  int // nesting of <w:p>
		inText bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					text.Reset()
					style = ""
				}
				depth++
			case "pStyle":
				for _, a := range t.Attr {
					if a.Name.Local == "val" {
						style = a.Value
					}
				}
			case "t":
				inText = true
			case "tab":
				text.WriteByte('\t')
			case "br", "cr":
				text.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				depth--
				if depth == 0 {
					if s := strings.TrimSpace(text.String()); s != "" {
						out = append(out, wordParagraph{text: s, heading: isHeadingStyle(style)})
					}
				}
			}
		case xml.CharData:
			if inText && depth > 0 {
				text.Write(t)
			}
		}
	}
	return out, nil
}

func isHeadingStyle(style string) bool {
	return strings.HasPrefix(style, "Heading") || style == "Title"
}
