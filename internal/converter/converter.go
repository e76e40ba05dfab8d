// Package converter turns uploaded documents into PDF files.
package converter

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrLegacyFormat      = errors.New("legacy binary office format")
	ErrNoImages          = errors.New("no images found in archive")
	ErrEmptyHTML         = errors.New("HTML content is empty")
)

// Document is an uploaded file held in memory.
type Document struct {
	ID        string
	Name      string
	Ext       string // lower case, without the dot
	Content   []byte
	CreatedAt time.Time
}

// NewDocument creates a Document, deriving the extension from name.
func NewDocument(name string, content []byte) *Document {
	return &Document{
		ID:        uuid.New().String(),
		Name:      name,
		Ext:       strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// Size returns the content length.
func (d *Document) Size() int64 {
	return int64(len(d.Content))
}

// Converter is one conversion strategy.
type Converter interface {
	CanConvert(doc *Document) bool
	Convert(doc *Document, opts Options, output io.Writer) error
}

// Manager picks the first registered converter able to handle a document.
type Manager struct {
	converters []Converter
}

// NewManager creates a manager with the given converters.
func NewManager(converters ...Converter) *Manager {
	return &Manager{converters: converters}
}

// RegisterConverter appends a converter.
func (m *Manager) RegisterConverter(c Converter) {
	m.converters = append(m.converters, c)
}

// Supports reports whether some converter handles doc.
func (m *Manager) Supports(doc *Document) bool {
	for _, c := range m.converters {
		if c.CanConvert(doc) {
			return true
		}
	}
	return false
}

// ConvertToPDF writes doc as PDF to output.
func (m *Manager) ConvertToPDF(doc *Document, opts Options, output io.Writer) error {
	for _, c := range m.converters {
		if c.CanConvert(doc) {
			return c.Convert(doc, opts.normalized(), output)
		}
	}
	return fmt.Errorf("%w: .%s", ErrUnsupportedFormat, doc.Ext)
}

// CreateDefaultManager registers every built-in converter.
func CreateDefaultManager() *Manager {
	return NewManager(
		NewImageConverter(),
		NewZipConverter(),
		NewWordConverter(),
		NewExcelConverter(),
		NewPowerPointConverter(),
		NewHTMLConverter(),
	)
}

func hasExt(doc *Document, exts ...string) bool {
	for _, ext := range exts {
		if doc.Ext == ext {
			return true
		}
	}
	return false
}
