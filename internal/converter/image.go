package converter

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"github.com/jung-kurt/gofpdf"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// imageMarginMM is the blank border kept around a page-filling image.
const imageMarginMM = 10.0

var imageExts = []string{"jpg", "jpeg", "png", "bmp", "tiff", "tif", "gif"}

// ImageConverter places a single image on one page.
type ImageConverter struct{}

// NewImageConverter creates an image converter.
func NewImageConverter() *ImageConverter {
	return &ImageConverter{}
}

// CanConvert accepts jpg, jpeg, png, bmp, tiff, tif and gif.
func (c *ImageConverter) CanConvert(doc *Document) bool {
	return hasExt(doc, imageExts...)
}

// Convert scales the image to fit the page and centers it.
func (c *ImageConverter) Convert(doc *Document, opts Options, output io.Writer) error {
	pdf := gofpdf.New(opts.orientationCode(), "mm", opts.PageSize, "")
	pdf.SetAutoPageBreak(false, 0)

	if err := addImagePage(pdf, "image0", doc.Content, doc.Ext, opts.Quality); err != nil {
		return fmt.Errorf("converting %s: %w", doc.Name, err)
	}
	return pdf.Output(output)
}

// addImagePage registers an image under name and draws it on a new page.
func addImagePage(pdf *gofpdf.Fpdf, name string, data []byte, ext string, quality int) error {
	imageType, payload, err := normalizeImage(data, ext, quality)
	if err != nil {
		return err
	}

	imgOpts := gofpdf.ImageOptions{ImageType: imageType}
	info := pdf.RegisterImageOptionsReader(name, imgOpts, bytes.NewReader(payload))
	if pdf.Err() {
		return pdf.Error()
	}

	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()
	availW := pageW - 2*imageMarginMM
	availH := pageH - 2*imageMarginMM

	scale := math.Min(availW/info.Width(), availH/info.Height())
	w := info.Width() * scale
	h := info.Height() * scale
	x := (availW-w)/2 + imageMarginMM
	y := (availH-h)/2 + imageMarginMM

	pdf.ImageOptions(name, x, y, w, h, false, imgOpts, 0, "")
	if pdf.Err() {
		return pdf.Error()
	}
	return nil
}

// normalizeImage returns an image gofpdf can embed. JPEG passes through; PNG and
// GIF are re-encoded as plain PNG; BMP and TIFF become JPEG at the given quality.
func normalizeImage(data []byte, ext string, quality int) (string, []byte, error) {
	switch ext {
	case "jpg", "jpeg":
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			return "", nil, fmt.Errorf("decoding image: %w", err)
		}
		return "JPG", data, nil

	case "png", "gif":
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return "", nil, fmt.Errorf("decoding image: %w", err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return "", nil, fmt.Errorf("encoding png: %w", err)
		}
		return "PNG", buf.Bytes(), nil

	case "bmp", "tiff", "tif":
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return "", nil, fmt.Errorf("decoding image: %w", err)
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", nil, fmt.Errorf("encoding jpeg: %w", err)
		}
		return "JPG", buf.Bytes(), nil
	}
	return "", nil, fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
}
