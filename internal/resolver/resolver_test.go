package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		accept   string
		endpoint string
	}{
		{"jpg", "/jpg_to_pdf", ".jpg,.jpeg,.png,.bmp,.tiff,.tif,.gif", "/api/jpg_to_pdf"},
		{"word", "/tools/word_to_pdf.html", ".doc,.docx", "/api/word_to_pdf"},
		{"excel", "/excel_to_pdf", ".xls,.xlsx", "/api/excel_to_pdf"},
		{"powerpoint", "/powerpoint_to_pdf", ".ppt,.pptx", "/api/powerpoint_to_pdf"},
		{"html", "/en/html_to_pdf/", ".html,.htm", "/api/html_to_pdf"},
		{"zip", "/zip_to_pdf", ".zip", "/api/zip_to_pdf"},
		{"unknown page", "/merge_pdf", "*", ""},
		{"root", "/", "*", ""},
		{"empty", "", "*", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Resolve(tt.page)
			assert.Equal(t, tt.accept, r.Accept())
			assert.Equal(t, tt.endpoint, r.Endpoint)
			assert.Equal(t, tt.endpoint != "", r.Supported())
		})
	}
}

func TestResolve_TableOrderWins(t *testing.T) {
	// both keys are present; the earlier table entry wins
	r := Resolve("/word_to_pdf/zip_to_pdf")
	assert.Equal(t, "/api/word_to_pdf", r.Endpoint)
}

func TestResolve_ReturnsCopies(t *testing.T) {
	r := Resolve("/zip_to_pdf")
	r.Extensions[0] = "exe"

	assert.Equal(t, ".zip", Resolve("/zip_to_pdf").Accept())
}

func TestRoute_Allows(t *testing.T) {
	word := Resolve("/word_to_pdf")
	assert.True(t, word.Allows("report.docx"))
	assert.True(t, word.Allows("REPORT.DOC"))
	assert.False(t, word.Allows("report.pdf"))
	assert.False(t, word.Allows("README"))

	none := Resolve("/nothing")
	assert.True(t, none.Allows("anything.bin"))
}

func TestRoutes(t *testing.T) {
	all := Routes()
	assert.Len(t, all, 6)
	for _, r := range all {
		assert.Equal(t, "/api/"+r.Page, r.Endpoint)
		assert.Equal(t, r.Endpoint, Resolve("/"+r.Page).Endpoint)
	}
}

func TestRoute_Format(t *testing.T) {
	assert.Equal(t, "powerpoint", Resolve("/tools/powerpoint_to_pdf").Format())
	assert.Equal(t, "jpg", Resolve("/jpg_to_pdf").Format())
	assert.Equal(t, "", Resolve("/about").Format())
}
