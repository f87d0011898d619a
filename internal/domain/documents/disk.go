package documents

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DiskStore writes payloads under a single directory with uuid names, so a
// hostile client filename never touches the filesystem.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Save(r io.Reader, ext string) (string, int64, error) {
	ext = sanitizeExt(ext)
	name := uuid.NewString() + ext

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", 0, fmt.Errorf("create blob: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.dir, name))
		return "", 0, fmt.Errorf("write blob: %w", err)
	}
	return name, n, nil
}

func (s *DiskStore) Open(storedName string) (io.ReadCloser, error) {
	if filepath.Base(storedName) != storedName {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, storedName))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *DiskStore) Remove(storedName string) error {
	if filepath.Base(storedName) != storedName {
		return ErrNotFound
	}
	err := os.Remove(filepath.Join(s.dir, storedName))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func sanitizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext == "" || ext[0] != '.' || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
