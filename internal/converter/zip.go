package converter

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// maxArchiveEntry caps the decompressed size of one archive member.
const maxArchiveEntry = 64 << 20

var archiveImageExts = []string{"jpg", "jpeg", "png"}

// ZipConverter turns every image in an archive into a page, in archive order.
type ZipConverter struct{}

// NewZipConverter creates a zip converter.
func NewZipConverter() *ZipConverter {
	return &ZipConverter{}
}

// CanConvert accepts .zip files.
func (c *ZipConverter) CanConvert(doc *Document) bool {
	return hasExt(doc, "zip")
}

// Convert writes one page per jpg, jpeg or png member.
func (c *ZipConverter) Convert(doc *Document, opts Options, output io.Writer) error {
	zr, err := zip.NewReader(bytes.NewReader(doc.Content), doc.Size())
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}

	pdf := gofpdf.New(opts.orientationCode(), "mm", opts.PageSize, "")
	pdf.SetAutoPageBreak(false, 0)

	pages := 0
	for _, f := range zr.File {
		ext, ok := archiveImage(f)
		if !ok {
			continue
		}

		data, err := readZipFile(f, maxArchiveEntry)
		if err != nil {
			return err
		}
		if err := addImagePage(pdf, fmt.Sprintf("image%d", pages), data, ext, opts.Quality); err != nil {
			return fmt.Errorf("converting %s: %w", f.Name, err)
		}
		pages++
	}

	if pages == 0 {
		return ErrNoImages
	}
	return pdf.Output(output)
}

func archiveImage(f *zip.File) (string, bool) {
	if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") {
		return "", false
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(f.Name)), ".")
	for _, e := range archiveImageExts {
		if ext == e {
			return ext, true
		}
	}
	return "", false
}

// readZipFile reads a member, failing when it decompresses beyond limit bytes.
func readZipFile(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s exceeds %d bytes when decompressed", f.Name, limit)
	}
	return data, nil
}
