package infra

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidFilename is returned for names that are not a bare file name.
var ErrInvalidFilename = errors.New("invalid photo filename")

// allowedPhotoExt are the accepted maintenance photo extensions (lower case, no dot).
var allowedPhotoExt = map[string]bool{"png": true, "jpg": true, "jpeg": true, "gif": true}

// PhotoExtension returns the normalized extension of name, or "" when the
// extension is not an accepted photo type.
func PhotoExtension(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if !allowedPhotoExt[ext] {
		return ""
	}
	return ext
}

// DiskPhotoStore keeps maintenance photos as flat files under one directory.
// File names are random UUIDs so uploads never collide or escape the root.
type DiskPhotoStore struct {
	root string
}

func NewDiskPhotoStore(root string) (*DiskPhotoStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("photo store: create %s: %w", root, err)
	}
	return &DiskPhotoStore{root: root}, nil
}

// Save writes r to a new file with the given extension and returns its name.
func (s *DiskPhotoStore) Save(ext string, r io.Reader) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if !allowedPhotoExt[ext] {
		return "", fmt.Errorf("photo store: extension %q not allowed", ext)
	}
	name := uuid.NewString() + "." + ext
	f, err := os.OpenFile(filepath.Join(s.root, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("photo store: create: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("photo store: write: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("photo store: close: %w", err)
	}
	return name, nil
}

// Remove deletes a stored photo. A missing file is not an error.
func (s *DiskPhotoStore) Remove(name string) error {
	p, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("photo store: remove %s: %w", name, err)
	}
	return nil
}

// Path resolves a stored file name to its absolute location.
func (s *DiskPhotoStore) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidFilename
	}
	return filepath.Join(s.root, name), nil
}
