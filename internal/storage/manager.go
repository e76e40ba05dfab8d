package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/snackpdf/converter/internal/models"
)

// ErrNotFound is returned for ids the store does not know.
var ErrNotFound = errors.New("file not found")

const (
	StatusStored = "stored"

	pdfSuffix = ".pdf"
)

// Origin describes the upload a stored PDF was converted from.
type Origin struct {
	SourceName string
	Endpoint   string
}

// Store defines the interface for converted PDF storage.
type Store interface {
	Save(name string, origin Origin, r io.Reader) (*models.FileInfo, error)
	Get(id string) (*models.FileInfo, error)
	List(limit int) ([]*models.FileInfo, error)
	Delete(id string) error
	GetFilePath(id string) (string, error)
	Open(id string) (io.ReadCloser, *models.FileInfo, error)
	CleanupOlderThan(maxAge time.Duration) (int, error)
}

// LocalStore implements Store using the local filesystem.
type LocalStore struct {
	mu        sync.RWMutex
	outputDir string
	files     map[string]*models.FileInfo
}

// NewLocalStore creates a new LocalStore.
func NewLocalStore(outputDir string) (*LocalStore, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &LocalStore{
		outputDir: outputDir,
		files:     make(map[string]*models.FileInfo),
	}, nil
}

func (s *LocalStore) pathFor(id string) string {
	return filepath.Join(s.outputDir, id+pdfSuffix)
}

// Save writes a PDF to the output directory under a fresh id.
func (s *LocalStore) Save(name string, origin Origin, r io.Reader) (*models.FileInfo, error) {
	id := uuid.New().String()
	path := s.pathFor(id)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	info := &models.FileInfo{
		ID:         id,
		Name:       name,
		SourceName: origin.SourceName,
		Endpoint:   origin.Endpoint,
		Size:       size,
		CreatedAt:  time.Now(),
		Status:     StatusStored,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id] = info

	return info.Clone(), nil
}

// Get retrieves file metadata by ID.
func (s *LocalStore) Get(id string) (*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return info.Clone(), nil
}

// List returns the most recent files, newest first. A limit of zero or less returns all.
func (s *LocalStore) List(limit int) ([]*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.FileInfo, 0, len(s.files))
	for _, info := range s.files {
		list = append(list, info.Clone())
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// Delete removes a file from storage.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := os.Remove(s.pathFor(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}

	delete(s.files, id)
	return nil
}

// GetFilePath returns the path of a stored PDF.
func (s *LocalStore) GetFilePath(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.files[id]; !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return s.pathFor(id), nil
}

// Open returns a reader over a stored PDF together with its metadata.
func (s *LocalStore) Open(id string) (io.ReadCloser, *models.FileInfo, error) {
	info, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(s.pathFor(id))
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	return f, info, nil
}

// CleanupOlderThan removes stored PDFs created more than maxAge ago, along with
// PDFs in the output directory left behind by an earlier process.
func (s *LocalStore) CleanupOlderThan(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, info := range s.files {
		if info.CreatedAt.After(cutoff) {
			continue
		}
		if err := os.Remove(s.pathFor(id)); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("deleting file: %w", err)
		}
		delete(s.files, id)
		removed++
	}

	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return removed, fmt.Errorf("reading output directory: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, pdfSuffix) {
			continue
		}
		if _, tracked := s.files[strings.TrimSuffix(name, pdfSuffix)]; tracked {
			continue
		}
		fi, err := e.Info()
		if err != nil || fi.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.outputDir, name)); err == nil {
			removed++
		}
	}

	return removed, nil
}
