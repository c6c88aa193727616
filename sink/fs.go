package sink

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FSStore stores objects as files under a root directory. Object keys
// map to relative paths with forward slashes.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem store rooted at dir. The directory
// is created if missing.
func NewFSStore(dir string) (*FSStore, error) {
	if dir == "" {
		return nil, errors.New("filesystem store root must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, WrapWriteError(err, dir)
	}
	return &FSStore{root: dir}, nil
}

// Root returns the store's base directory.
func (s *FSStore) Root() string { return s.root }

// Put implements Store. Objects land via temp file and rename so a
// concurrent reader never sees a partial body.
func (s *FSStore) Put(_ context.Context, key string, data []byte) error {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return WrapWriteError(err, key)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return WrapWriteError(err, key)
	}
	if err := os.Rename(tmp, path); err != nil {
		return WrapWriteError(err, key)
	}
	return nil
}

// Get implements Store.
func (s *FSStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil {
		return nil, WrapReadError(err, key)
	}
	return data, nil
}

// List implements Store. A missing root or prefix directory yields an
// empty listing, not an error.
func (s *FSStore) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		// A crash between write and rename can leave a temp file behind.
		if strings.HasSuffix(key, ".tmp") {
			return nil
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, WrapListError(err, prefix)
	}
	sort.Strings(keys)
	return keys, nil
}

// Verify FSStore implements Store.
var _ Store = (*FSStore)(nil)

// StubStore is an in-memory store that records writes for testing.
// Optional error injection simulates storage failures.
type StubStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	// Puts records keys in write order, including overwrites.
	Puts []string
	// FailPut, when set, is returned by every Put.
	FailPut error
	// FailGet, when set, is returned by every Get.
	FailGet error
}

// NewStubStore creates an empty stub store.
func NewStubStore() *StubStore {
	return &StubStore{objects: make(map[string][]byte)}
}

// Put implements Store by recording the object.
func (s *StubStore) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailPut != nil {
		return WrapWriteError(s.FailPut, key)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = buf
	s.Puts = append(s.Puts, key)
	return nil
}

// Get implements Store.
func (s *StubStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailGet != nil {
		return nil, WrapReadError(s.FailGet, key)
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, NewStorageError(ErrNotFound, "read", key, errors.New("object does not exist"))
	}
	return data, nil
}

// List implements Store.
func (s *StubStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Object returns a stored object and whether it exists, bypassing
// error injection. Test helper.
func (s *StubStore) Object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[key]
	return data, ok
}

// Verify StubStore implements Store.
var _ Store = (*StubStore)(nil)
