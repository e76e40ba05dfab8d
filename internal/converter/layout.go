package converter

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"
)

const (
	marginMM     = 15.0
	bodyFont     = "Helvetica"
	bodySize     = 11.0
	heading1     = 18.0
	heading2     = 14.0
	paragraphGap = 4.0
)

// textDoc writes flowing text with the core Helvetica font.
type textDoc struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newTextDoc(opts Options, autoBreak bool) *textDoc {
	pdf := gofpdf.New(opts.orientationCode(), "mm", opts.PageSize, "")
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(autoBreak, marginMM)
	pdf.SetFont(bodyFont, "", bodySize)
	return &textDoc{
		pdf: pdf,
		// core fonts are cp1252; translate UTF-8 input
		tr: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (d *textDoc) addPage() {
	d.pdf.AddPage()
}

// heading writes a bold block; level 1 is larger than level 2.
func (d *textDoc) heading(text string, level int) {
	size := heading2
	if level <= 1 {
		size = heading1
	}
	d.block(text, size, "B")
}

func (d *textDoc) paragraph(text string) {
	d.block(text, bodySize, "")
}

func (d *textDoc) block(text string, size float64, style string) {
	d.pdf.SetFont(bodyFont, style, size)
	d.pdf.MultiCell(0, size*0.5, d.tr(text), "", "L", false)
	d.pdf.Ln(paragraphGap)
}

// line writes a single unwrapped line.
func (d *textDoc) line(text string, size float64, style string) {
	d.pdf.SetFont(bodyFont, style, size)
	d.pdf.CellFormat(0, size*0.5, d.tr(text), "", 1, "L", false, 0, "")
}

// fits reports whether a line of the given size still fits above the bottom margin.
func (d *textDoc) fits(size float64) bool {
	_, h := d.pdf.GetPageSize()
	return d.pdf.GetY()+size*0.5 <= h-marginMM
}

func (d *textDoc) gap(mm float64) {
	d.pdf.Ln(mm)
}

func (d *textDoc) output(w io.Writer) error {
	return d.pdf.Output(w)
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
