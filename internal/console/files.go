package console

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/snackpdf/converter/internal/models"
)

// FileFromPath captures a local file as a FileHandle. The MIME type comes from
// the extension and is empty when unknown.
func FileFromPath(path string) (*models.FileHandle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading file info: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	return models.NewFileHandle(
		filepath.Base(path),
		info.Size(),
		mime.TypeByExtension(filepath.Ext(path)),
		func() (io.ReadCloser, error) { return os.Open(path) },
	), nil
}

// DirDownloader saves downloads into a directory.
type DirDownloader struct {
	dir    string
	logger *slog.Logger

	// Last is the path of the most recent download.
	Last string
}

// NewDirDownloader creates the directory if needed.
func NewDirDownloader(dir string, logger *slog.Logger) (*DirDownloader, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DirDownloader{dir: dir, logger: logger}, nil
}

// Download writes payload to dir/name through a temp file so a failed write leaves nothing behind.
func (d *DirDownloader) Download(name string, payload []byte) error {
	target := filepath.Join(d.dir, filepath.Base(name))

	tmp, err := os.CreateTemp(d.dir, ".download-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing download: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("saving download: %w", err)
	}

	d.Last = target
	d.logger.Info("download saved", "path", target, "bytes", len(payload))
	return nil
}
