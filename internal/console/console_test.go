package console

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/snackpdf/converter/internal/client"
	"github.com/snackpdf/converter/internal/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slides.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>hi</p>"), 0644))

	fh, err := FileFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "slides.html", fh.Name)
	assert.EqualValues(t, 9, fh.Size)
	assert.Contains(t, fh.MIMEType, "text/html")

	rc, err := fh.Open()
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "<p>hi</p>", string(data))

	_, err = FileFromPath(dir)
	assert.Error(t, err)
	_, err = FileFromPath(filepath.Join(dir, "missing.zip"))
	assert.Error(t, err)
}

func TestDirDownloader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	d, err := NewDirDownloader(dir, quietLogger())
	require.NoError(t, err)

	require.NoError(t, d.Download("../converted_a.pdf", []byte("%PDF")))

	assert.Equal(t, filepath.Join(dir, "converted_a.pdf"), d.Last)
	data, err := os.ReadFile(d.Last)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestViewDrivesWidget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.3"))
	}))
	defer srv.Close()

	src := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(src, []byte("<h1>x</h1>"), 0644))
	fh, err := FileFromPath(src)
	require.NoError(t, err)

	var out bytes.Buffer
	view := NewView(&out)
	dl, err := NewDirDownloader(t.TempDir(), quietLogger())
	require.NoError(t, err)

	w, err := widget.New(widget.Options{
		Location:   func() string { return "/html_to_pdf" },
		View:       view,
		Uploader:   client.New(srv.URL, nil),
		Downloader: dl,
		Logger:     quietLogger(),
	})
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, ".html,.htm", view.Accept())
	assert.Equal(t, widget.Placeholder, view.Region())

	w.Select(fh)
	assert.Contains(t, view.Region(), "Selected File: page.html")
	assert.Contains(t, view.Region(), "Size: 10 Bytes")

	assert.Equal(t, widget.OutcomeSucceeded, w.Submit(context.Background()))

	enabled, label := view.Submit()
	assert.True(t, enabled)
	assert.Equal(t, widget.LabelConvert, label)
	assert.Equal(t, "converted_page.pdf", filepath.Base(dl.Last))
	assert.Contains(t, out.String(), widget.ProcessingIndicator)
	assert.Contains(t, out.String(), "[success] "+widget.MsgSuccess)
	require.Len(t, view.Messages(), 1)

	w.Clear()
	assert.Equal(t, widget.Placeholder, view.Region())
	assert.Empty(t, view.Messages())
}
