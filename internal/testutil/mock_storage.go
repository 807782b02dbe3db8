// mock_storage.go - In-memory staging store for tests
package testutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ocr-scanner/backend/internal/models"
	"github.com/ocr-scanner/backend/internal/storage"
)

// MockStorage implements storage.Store in memory. Staged content is also
// written under Dir so engines that read GetFilePath work unchanged.
// Set SaveErr or DeleteErr to inject failures.
type MockStorage struct {
	Dir       string
	SaveErr   error
	DeleteErr error

	mu       sync.RWMutex
	files    map[string]*models.FileInfo
	fileData map[string][]byte
	deleted  []string
}

var _ storage.Store = (*MockStorage)(nil)

// NewMockStorage creates a mock store backed by dir.
func NewMockStorage(dir string) *MockStorage {
	return &MockStorage{
		Dir:      dir,
		files:    make(map[string]*models.FileInfo),
		fileData: make(map[string][]byte),
	}
}

func (m *MockStorage) Save(name, mediaType string, r io.Reader) (*models.FileInfo, error) {
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	if err := os.WriteFile(filepath.Join(m.Dir, id), data, 0644); err != nil {
		return nil, err
	}

	info := &models.FileInfo{
		ID:         id,
		Name:       name,
		Size:       int64(len(data)),
		MediaType:  mediaType,
		UploadedAt: time.Now(),
		Status:     "staged",
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[id] = info
	m.fileData[id] = data
	return info, nil
}

func (m *MockStorage) Get(id string) (*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return info, nil
}

func (m *MockStorage) List(limit int) ([]*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var files []*models.FileInfo
	for _, info := range m.files {
		files = append(files, info)
		if limit > 0 && len(files) >= limit {
			break
		}
	}
	return files, nil
}

func (m *MockStorage) Open(id string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.fileData[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockStorage) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleted = append(m.deleted, id)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, ok := m.files[id]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	os.Remove(filepath.Join(m.Dir, id))
	delete(m.files, id)
	delete(m.fileData, id)
	return nil
}

func (m *MockStorage) GetFilePath(id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.files[id]; !ok {
		return "", fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return filepath.Join(m.Dir, id), nil
}

// Deleted returns the IDs passed to Delete, in call order.
func (m *MockStorage) Deleted() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.deleted...)
}
