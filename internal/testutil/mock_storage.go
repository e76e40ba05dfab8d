// mock_storage.go - In-memory storage.Store for handler tests
package testutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/snackpdf/converter/internal/models"
	"github.com/snackpdf/converter/internal/storage"
)

// MockStorage implements storage.Store in memory.
type MockStorage struct {
	mu       sync.RWMutex
	files    map[string]*models.FileInfo
	fileData map[string][]byte

	// SaveErr, when set, is returned by Save.
	SaveErr error
}

// NewMockStorage creates an empty mock storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		files:    make(map[string]*models.FileInfo),
		fileData: make(map[string][]byte),
	}
}

func (m *MockStorage) Save(name string, origin storage.Origin, r io.Reader) (*models.FileInfo, error) {
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	file := &models.FileInfo{
		ID:         generateTestID(),
		Name:       name,
		SourceName: origin.SourceName,
		Endpoint:   origin.Endpoint,
		Size:       int64(len(data)),
		CreatedAt:  time.Now(),
		Status:     storage.StatusStored,
	}
	m.files[file.ID] = file
	m.fileData[file.ID] = data
	return file.Clone(), nil
}

func (m *MockStorage) Get(id string) (*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return file.Clone(), nil
}

func (m *MockStorage) List(limit int) ([]*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]*models.FileInfo, 0, len(m.files))
	for _, file := range m.files {
		files = append(files, file.Clone())
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

func (m *MockStorage) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.files[id]; !exists {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	delete(m.files, id)
	delete(m.fileData, id)
	return nil
}

func (m *MockStorage) GetFilePath(id string) (string, error) {
	if _, err := m.Get(id); err != nil {
		return "", err
	}
	return "/mock/path/" + id + ".pdf", nil
}

func (m *MockStorage) Open(id string) (io.ReadCloser, *models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, ok := m.files[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return io.NopCloser(bytes.NewReader(m.fileData[id])), file.Clone(), nil
}

func (m *MockStorage) CleanupOlderThan(maxAge time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, file := range m.files {
		if file.CreatedAt.Before(cutoff) {
			delete(m.files, id)
			delete(m.fileData, id)
			removed++
		}
	}
	return removed, nil
}

// Ensure MockStorage implements storage.Store
var _ storage.Store = (*MockStorage)(nil)

// AddFile adds a file directly to the mock.
func (m *MockStorage) AddFile(id string, name string, data []byte) *models.FileInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	file := &models.FileInfo{
		ID:        id,
		Name:      name,
		Size:      int64(len(data)),
		CreatedAt: time.Now(),
		Status:    storage.StatusStored,
	}
	m.files[id] = file
	m.fileData[id] = data
	return file.Clone()
}

// GetFileData returns the file content.
func (m *MockStorage) GetFileData(id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.fileData[id]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

// GetFileCount returns the number of stored files.
func (m *MockStorage) GetFileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

var (
	testIDCounter int
	testIDMutex   sync.Mutex
)

func generateTestID() string {
	testIDMutex.Lock()
	defer testIDMutex.Unlock()
	testIDCounter++
	return fmt.Sprintf("test-id-%d", testIDCounter)
}
