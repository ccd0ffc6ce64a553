package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FSStore keeps blobs as files under a base directory.
type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

// Put writes to a temp file and renames it into place so readers never see a
// partial blob.
func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	dst, key, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(filepath.Dir(dst), ".blob-*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return key, nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	p, _, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// path resolves key below base, rejecting keys that would escape it.
func (s *FSStore) path(key string) (string, string, error) {
	clean := filepath.ToSlash(filepath.Clean("/" + key))
	clean = strings.TrimPrefix(clean, "/")
	if key == "" || clean == "" || clean == "." {
		return "", "", ErrBadKey
	}
	return filepath.Join(s.base, filepath.FromSlash(clean)), clean, nil
}
