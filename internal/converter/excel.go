package converter

import (
	"fmt"
	"io"
	"strings"
)

const (
	workbookPart   = "xl/workbook.xml"
	sharedStrsPart = "xl/sharedStrings.xml"

	excelRowRunes = 100

	// Columns past this index cannot reach a rendered row: every column adds at
	// least a " | " separator and rows are cut to excelRowRunes.
	excelRowCells = excelRowRunes/3 + 2

	maxColumnLetters = 3     // XFD
	maxColumnIndex   = 16383 // XFD
	excelTitleSize   = 16.0
	excelRowSize     = 10.0
)

// ExcelConverter prints every sheet of an .xlsx workbook as text rows.
type ExcelConverter struct{}

// NewExcelConverter creates an Excel converter.
func NewExcelConverter() *ExcelConverter {
	return &ExcelConverter{}
}

// CanConvert accepts .xls and .xlsx; .xls is rejected at conversion time.
func (c *ExcelConverter) CanConvert(doc *Document) bool {
	return hasExt(doc, "xls", "xlsx")
}

// Convert writes a "Sheet: <name>" title per sheet followed by its rows joined with " | ".
func (c *ExcelConverter) Convert(doc *Document, opts Options, output io.Writer) error {
	if err := rejectLegacy(doc, "xls"); err != nil {
		return err
	}

	pkg, err := openPackage(doc)
	if err != nil {
		return err
	}
	sheets, err := readWorkbook(pkg)
	if err != nil {
		return err
	}

	out := newTextDoc(opts, true)
	out.addPage()
	for _, sh := range sheets {
		out.line("Sheet: "+sh.name, excelTitleSize, "B")
		out.gap(4)
		for _, row := range sh.rows {
			text := strings.Join(row, " | ")
			if strings.TrimSpace(text) == "" {
				continue
			}
			out.line(truncateRunes(text, excelRowRunes), excelRowSize, "")
		}
		out.gap(6)
	}
	return out.output(output)
}

type sheet struct {
	name string
	rows [][]string
}

type xlsxWorkbook struct {
	Sheets []struct {
		Name string `xml:"name,attr"`
		RID  string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sheets>sheet"`
}

type xlsxText struct {
	T    string `xml:"t"`
	Runs []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

func (t xlsxText) String() string {
	if len(t.Runs) == 0 {
		return t.T
	}
	var b strings.Builder
	for _, r := range t.Runs {
		b.WriteString(r.T)
	}
	return b.String()
}

type xlsxSharedStrings struct {
	Items []xlsxText `xml:"si"`
}

type xlsxWorksheet struct {
	Rows []struct {
		Cells []struct {
			Ref    string   `xml:"r,attr"`
			Type   string   `xml:"t,attr"`
			Value  string   `xml:"v"`
			Inline xlsxText `xml:"is"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

func readWorkbook(pkg *ooxmlPackage) ([]sheet, error) {
	var wb xlsxWorkbook
	if err := pkg.unmarshal(workbookPart, &wb); err != nil {
		return nil, err
	}
	rels, err := pkg.relations(workbookPart)
	if err != nil {
		return nil, err
	}

	var shared []string
	if pkg.has(sharedStrsPart) {
		var sst xlsxSharedStrings
		if err := pkg.unmarshal(sharedStrsPart, &sst); err != nil {
			return nil, err
		}
		shared = make([]string, len(sst.Items))
		for i, si := range sst.Items {
			shared[i] = si.String()
		}
	}

	out := make([]sheet, 0, len(wb.Sheets))
	for _, s := range wb.Sheets {
		target, ok := rels[s.RID]
		if !ok {
			return nil, fmt.Errorf("sheet %q has no worksheet part", s.Name)
		}
		var ws xlsxWorksheet
		if err := pkg.unmarshal(target, &ws); err != nil {
			return nil, err
		}
		out = append(out, sheet{name: s.Name, rows: worksheetRows(ws, shared)})
	}
	return out, nil
}

func worksheetRows(ws xlsxWorksheet, shared []string) [][]string {
	rows := make([][]string, 0, len(ws.Rows))
	for _, r := range ws.Rows {
		var row []string
		for i, c := range r.Cells {
			col := columnIndex(c.Ref)
			if col < 0 {
				col = i
			}
			if col >= excelRowCells {
				continue
			}
			for len(row) < col {
				row = append(row, "")
			}

			var value string
			switch c.Type {
			case "s":
				var idx int
				if _, err := fmt.Sscanf(c.Value, "%d", &idx); err == nil && idx >= 0 && idx < len(shared) {
					value = shared[idx]
				}
			case "inlineStr":
				value = c.Inline.String()
			case "b":
				value = "False"
				if c.Value == "1" {
					value = "True"
				}
			default:
				value = c.Value
			}

			if col < len(row) {
				row[col] = value
			} else {
				row = append(row, value)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// columnIndex converts the letters of a cell reference like "AB12" to a
// zero-based column. It returns -1 for references without letters or past XFD.
func columnIndex(ref string) int {
	col := 0
	n := 0
	for _, r := range ref {
		if r < 'A' || r > 'Z' {
			break
		}
		if n == maxColumnLetters {
			return -1
		}
		col = col*26 + int(r-'A'+1)
		n++
	}
	if n == 0 || col-1 > maxColumnIndex {
		return -1
	}
	return col - 1
}
