// Package resolver maps a conversion page to its accepted file types and API endpoint.
package resolver

import (
	"path/filepath"
	"strings"
)

// Wildcard is the accept filter used when a page has no conversion route.
const Wildcard = "*"

// Route is the result of resolving a page path.
type Route struct {
	Page       string   // page key that matched, empty when unsupported
	Extensions []string // accepted extensions without the leading dot
	Endpoint   string   // API path, empty when unsupported
}

var routes = []Route{
	{Page: "jpg_to_pdf", Extensions: []string{"jpg", "jpeg", "png", "bmp", "tiff", "tif", "gif"}, Endpoint: "/api/jpg_to_pdf"},
	{Page: "word_to_pdf", Extensions: []string{"doc", "docx"}, Endpoint: "/api/word_to_pdf"},
	{Page: "excel_to_pdf", Extensions: []string{"xls", "xlsx"}, Endpoint: "/api/excel_to_pdf"},
	{Page: "powerpoint_to_pdf", Extensions: []string{"ppt", "pptx"}, Endpoint: "/api/powerpoint_to_pdf"},
	{Page: "html_to_pdf", Extensions: []string{"html", "htm"}, Endpoint: "/api/html_to_pdf"},
	{Page: "zip_to_pdf", Extensions: []string{"zip"}, Endpoint: "/api/zip_to_pdf"},
}

// Resolve returns the route for the first table entry whose key is contained in pagePath.
// Pages that match nothing get the wildcard filter and no endpoint.
func Resolve(pagePath string) Route {
	for _, r := range routes {
		if strings.Contains(pagePath, r.Page) {
			return r.clone()
		}
	}
	return Route{}
}

// Routes returns a copy of the routing table in match order.
func Routes() []Route {
	out := make([]Route, len(routes))
	for i, r := range routes {
		out[i] = r.clone()
	}
	return out
}

// Supported reports whether the route has an endpoint.
func (r Route) Supported() bool {
	return r.Endpoint != ""
}

// Format is the short name of the conversion, e.g. "word" for word_to_pdf.
func (r Route) Format() string {
	return strings.TrimSuffix(r.Page, "_to_pdf")
}

// Accept renders the file-picker filter, e.g. ".doc,.docx" or "*".
func (r Route) Accept() string {
	if len(r.Extensions) == 0 {
		return Wildcard
	}
	dotted := make([]string, len(r.Extensions))
	for i, ext := range r.Extensions {
		dotted[i] = "." + ext
	}
	return strings.Join(dotted, ",")
}

// Allows reports whether filename passes the accept filter. The wildcard allows everything.
func (r Route) Allows(filename string) bool {
	if len(r.Extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range r.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (r Route) clone() Route {
	r.Extensions = append([]string(nil), r.Extensions...)
	return r
}
