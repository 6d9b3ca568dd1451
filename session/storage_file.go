package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileStorage persists the session keys as a single JSON document in the
// data folder. Writes go through a temp file and rename so a crash mid-write
// never leaves a half-written blob behind.
type FileStorage struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// NewFileStorage loads (or initialises) the auth-storage file under dir.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "[NewFileStorage] create data folder")
	}

	fs := &FileStorage{
		path: filepath.Join(dir, StorageName+".json"),
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[NewFileStorage] read "+fs.path)
	}
	if err := json.Unmarshal(raw, &fs.data); err != nil {
		// A corrupt blob is treated as an empty store; the session layer
		// already handles the resulting absent session.
		fs.data = make(map[string]string)
	}
	return fs, nil
}

// Get implements Storage.
func (fs *FileStorage) Get(key string) ([]byte, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	v, ok := fs.data[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

// Set implements Storage.
func (fs *FileStorage) Set(key string, value []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.data[key] = string(value)
	return fs.flush()
}

// Delete implements Storage. Deleting an absent key is a no-op.
func (fs *FileStorage) Delete(keys ...string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for _, k := range keys {
		delete(fs.data, k)
	}
	return fs.flush()
}

// flush writes the whole document atomically. Callers must hold fs.mu.
func (fs *FileStorage) flush() error {
	raw, err := json.MarshalIndent(fs.data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[FileStorage.flush] marshal")
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return errors.Wrap(err, "[FileStorage.flush] write temp file")
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return errors.Wrap(err, "[FileStorage.flush] rename")
	}
	return nil
}
