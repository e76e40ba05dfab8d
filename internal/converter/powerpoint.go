package converter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	presentationPart = "ppt/presentation.xml"

	slideTitleSize = 14.0
	slideLineSize  = 12.0
	slideLineRunes = 80
)

var slidePartRE = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// PowerPointConverter prints the text of each slide of a .pptx deck on its own page.
type PowerPointConverter struct{}

// NewPowerPointConverter creates a PowerPoint converter.
func NewPowerPointConverter() *PowerPointConverter {
	return &PowerPointConverter{}
}

// CanConvert accepts .ppt and .pptx; .ppt is rejected at conversion time.
func (c *PowerPointConverter) CanConvert(doc *Document) bool {
	return hasExt(doc, "ppt", "pptx")
}

// Convert writes a "Slide N" header and the slide's text lines. Text that does
// not fit on the page is dropped.
func (c *PowerPointConverter) Convert(doc *Document, opts Options, output io.Writer) error {
	if err := rejectLegacy(doc, "ppt"); err != nil {
		return err
	}

	pkg, err := openPackage(doc)
	if err != nil {
		return err
	}
	parts, err := slideParts(pkg)
	if err != nil {
		return err
	}

	out := newTextDoc(opts, false)
	for i, part := range parts {
		data, err := pkg.read(part)
		if err != nil {
			return err
		}
		lines, err := slideText(data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", part, err)
		}

		out.addPage()
		out.line("Slide "+strconv.Itoa(i+1), slideTitleSize, "B")
		out.gap(4)
		for _, l := range lines {
			if !out.fits(slideLineSize) {
				break
			}
			out.line(truncateRunes(l, slideLineRunes), slideLineSize, "")
		}
	}
	if len(parts) == 0 {
		out.addPage()
	}
	return out.output(output)
}

type pptxPresentation struct {
	Slides []struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

// slideParts returns slide part names in presentation order. Packages without a
// usable slide list fall back to the numeric order of the slide file names.
func slideParts(pkg *ooxmlPackage) ([]string, error) {
	if pkg.has(presentationPart) {
		var pres pptxPresentation
		if err := pkg.unmarshal(presentationPart, &pres); err != nil {
			return nil, err
		}
		rels, err := pkg.relations(presentationPart)
		if err == nil && len(pres.Slides) > 0 {
			parts := make([]string, 0, len(pres.Slides))
			for _, s := range pres.Slides {
				if target, ok := rels[s.RID]; ok && pkg.has(target) {
					parts = append(parts, target)
				}
			}
			if len(parts) > 0 {
				return parts, nil
			}
		}
	}

	type numbered struct {
		n    int
		name string
	}
	var found []numbered
	for name := range pkg.files {
		m := slidePartRE.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		found = append(found, numbered{n: n, name: name})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	parts := make([]string, len(found))
	for i, f := range found {
		parts[i] = f.name
	}
	return parts, nil
}

// slideText returns one line per non-empty paragraph of the slide's shapes.
func slideText(data []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		lines  []string
		cur    strings.Builder
		inPara int
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
			switch {
			case t.Name.Local == "p" && t.Name.Space == drawingNS:
				inPara++
				if inPara == 1 {
					cur.Reset()
				}
			case t.Name.Local == "t" && t.Name.Space == drawingNS:
				inText = true
			case t.Name.Local == "br" && t.Name.Space == drawingNS && inPara > 0:
				cur.WriteByte(' ')
			}
		case xml.EndElement:
			switch {
			case t.Name.Local == "p" && t.Name.Space == drawingNS:
				inPara--
				if inPara == 0 {
					if text := strings.TrimSpace(cur.String()); text != "" {
						lines = append(lines, text)
					}
				}
			case t.Name.Local == "t" && t.Name.Space == drawingNS:
				inText = false
			}
		case xml.CharData:
			if inText && inPara > 0 {
				cur.Write(t)
			}
		}
	}
	return lines, nil
}

const drawingNS = "http://schemas.openxmlformats.org/drawingml/2006/main"
