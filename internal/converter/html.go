package converter

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLConverter renders the text structure of an HTML page.
type HTMLConverter struct{}

// NewHTMLConverter creates an HTML converter.
func NewHTMLConverter() *HTMLConverter {
	return &HTMLConverter{}
}

// CanConvert accepts .html and .htm files.
func (c *HTMLConverter) CanConvert(doc *Document) bool {
	return hasExt(doc, "html", "htm")
}

// Convert writes headings and text blocks in document order. Pages without any
// of those elements are written as plain text.
func (c *HTMLConverter) Convert(doc *Document, opts Options, output io.Writer) error {
	if len(bytes.TrimSpace(doc.Content)) == 0 {
		return ErrEmptyHTML
	}

	blocks, err := htmlBlocks(doc)
	if err != nil {
		return err
	}

	out := newTextDoc(opts, true)
	out.addPage()
	for _, b := range blocks {
		if b.level > 0 {
			out.heading(b.text, b.level)
		} else {
			out.paragraph(b.text)
		}
	}
	return out.output(output)
}

// htmlBlock is one written unit of text. Level 1 and 2 are headings, 0 is body text.
type htmlBlock struct {
	level int
	text  string
}

// htmlBlocks extracts the text blocks of a page in document order.
func htmlBlocks(doc *Document) ([]htmlBlock, error) {
	page, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Content))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", doc.Name, err)
	}
	page.Find("script, style, noscript").Remove()

	var c blockCollector
	c.walk(page.Selection, 0, nil)
	if len(c.blocks) > 0 {
		return c.blocks, nil
	}

	text := strings.TrimSpace(page.Text())
	for _, para := range strings.Split(text, "\n") {
		if para = collapseSpace(para); para != "" {
			c.blocks = append(c.blocks, htmlBlock{text: para})
		}
	}
	if len(c.blocks) == 0 {
		return nil, ErrEmptyHTML
	}
	return c.blocks, nil
}

func blockLevel(name string) (int, bool) {
	switch name {
	case "h1", "h2", "h3":
		return 1, true
	case "h4", "h5", "h6":
		return 2, true
	case "p", "div":
		return 0, true
	}
	return 0, false
}

// blockCollector writes each block's own text runs; nested blocks split the
// runs of their container and are written separately.
type blockCollector struct {
	blocks []htmlBlock
}

func (c *blockCollector) emit(level int, buf *strings.Builder) {
	if text := collapseSpace(buf.String()); text != "" {
		c.blocks = append(c.blocks, htmlBlock{level: level, text: text})
	}
	buf.Reset()
}

// walk visits the children of s. buf is nil outside of any block.
func (c *blockCollector) walk(s *goquery.Selection, level int, buf *strings.Builder) {
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		name := goquery.NodeName(child)
		switch name {
		case "#text":
			if buf != nil {
				buf.WriteString(child.Text())
			}
			return
		case "br":
			if buf != nil {
				buf.WriteByte(' ')
			}
			return
		}

		childLevel, block := blockLevel(name)
		// a span is its own block only outside of other blocks
		if name == "span" && buf == nil {
			block = true
		}
		if !block {
			c.walk(child, level, buf)
			return
		}

		if buf != nil {
			c.emit(level, buf)
		}
		var inner strings.Builder
		c.walk(child, childLevel, &inner)
		c.emit(childLevel, &inner)
	})
}
