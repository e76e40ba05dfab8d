// Package models holds the data types shared by the conversion client and server.
package models

import (
	"fmt"
	"io"
	"strconv"
)

// Fixed options sent with every conversion request.
const (
	DefaultPageSize = "A4"
	DefaultQuality  = 95
)

// Multipart field names of the conversion endpoints.
const (
	FieldFile        = "file"
	FieldPageSize    = "page_size"
	FieldQuality     = "quality"
	FieldOrientation = "orientation"
)

// FileHandle is an immutable reference to a user-chosen file.
type FileHandle struct {
	Name     string
	Size     int64
	MIMEType string

	open func() (io.ReadCloser, error)
}

// NewFileHandle captures a file. open is called once per conversion request.
func NewFileHandle(name string, size int64, mimeType string, open func() (io.ReadCloser, error)) *FileHandle {
	if size < 0 {
		size = 0
	}
	return &FileHandle{
		Name:     name,
		Size:     size,
		MIMEType: mimeType,
		open:     open,
	}
}

// Open returns a fresh reader over the file content.
func (f *FileHandle) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %q has no content source", f.Name)
	}
	return f.open()
}

// ConversionRequest is built fresh for every submit.
type ConversionRequest struct {
	File     *FileHandle
	PageSize string
	Quality  int
}

// NewConversionRequest builds a request with the default page size and quality.
func NewConversionRequest(file *FileHandle) ConversionRequest {
	return ConversionRequest{
		File:     file,
		PageSize: DefaultPageSize,
		Quality:  DefaultQuality,
	}
}

// Fields returns the non-file form fields of the request.
func (r ConversionRequest) Fields() map[string]string {
	return map[string]string{
		FieldPageSize: r.PageSize,
		FieldQuality:  strconv.Itoa(r.Quality),
	}
}

// ConversionResult is either a PDF payload or an error message.
type ConversionResult struct {
	Payload []byte
	Error   string
}

// OK reports whether the result carries a payload.
func (r ConversionResult) OK() bool {
	return r.Error == ""
}
