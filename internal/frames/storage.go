package frames

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"sync"
)

// Storage opens frame files. Open must return an error wrapping
// fs.ErrNotExist when the file is missing.
type Storage interface {
	Open(path string) (io.ReadCloser, error)
}

// DirStorage reads frames from a mounted filesystem (the SD card).
type DirStorage struct{}

func (DirStorage) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// MemStorage keeps frame files in memory. It records the largest single
// read it served so chunking can be checked.
type MemStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	opens   map[string]int
	maxRead int
}

func NewMemStorage() *MemStorage {
	return &MemStorage{files: map[string][]byte{}, opens: map[string]int{}}
}

// Put stores a copy of data under path.
func (m *MemStorage) Put(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = append([]byte(nil), data...)
}

// Remove deletes path.
func (m *MemStorage) Remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
}

func (m *MemStorage) Open(path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.opens[path]++
	data, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return &memFile{r: bytes.NewReader(data), owner: m}, nil
}

// Opens reports how many times path was opened.
func (m *MemStorage) Opens(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens[path]
}

// MaxRead reports the largest buffer passed to a single Read.
func (m *MemStorage) MaxRead() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxRead
}

type memFile struct {
	r     *bytes.Reader
	owner *MemStorage
}

func (f *memFile) Read(p []byte) (int, error) {
	f.owner.mu.Lock()
	if len(p) > f.owner.maxRead {
		f.owner.maxRead = len(p)
	}
	f.owner.mu.Unlock()
	return f.r.Read(p)
}

func (f *memFile) Close() error { return nil }
