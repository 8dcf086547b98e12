package service

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bugboard/bugboard/internal/models"
	"github.com/google/uuid"
)

// MaxImageBytes caps an uploaded image.
const MaxImageBytes = 20 << 20

// DirImageStore keeps images as files in one directory, each under a
// random name that keeps the original extension.
type DirImageStore struct {
	Dir string
}

// NewDirImageStore creates dir if needed and returns a store over it.
func NewDirImageStore(dir string) (*DirImageStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &DirImageStore{Dir: dir}, nil
}

// Save writes r under a new name and returns that name. Content beyond
// MaxImageBytes is rejected.
func (s *DirImageStore) Save(originalName string, r io.Reader) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	path := filepath.Join(s.Dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(r, MaxImageBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > MaxImageBytes {
		err = fmt.Errorf("%w: image larger than %d bytes", ErrInvalidInput, MaxImageBytes)
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return name, nil
}

// Open returns the image called name, or models.ErrNotFound. Names with a
// directory part are never resolved.
func (s *DirImageStore) Open(name string) (io.ReadCloser, error) {
	if !validName(name) {
		return nil, models.ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.Dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return f, nil
}

// Remove deletes the image called name; a missing image is not an error.
func (s *DirImageStore) Remove(name string) error {
	if !validName(name) {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}
