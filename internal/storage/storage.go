package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore persists uploaded files and returns an opaque locator.
type FileStore interface {
	Save(category, originalName string, r io.Reader) (*StoredFile, error)
}

// StoredFile describes a file written by a FileStore.
type StoredFile struct {
	ID      string
	Locator string
	Size    int64
}

// LocalStore writes files below root. Locators are URL paths under urlPrefix.
type LocalStore struct {
	root      string
	urlPrefix string
}

func NewLocalStore(root, urlPrefix string) *LocalStore {
	return &LocalStore{
		root:      root,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
	}
}

// Root returns the directory files are written to.
func (s *LocalStore) Root() string {
	return s.root
}

// Save stores r as <category>/<uuid><ext>. The original name only contributes
// its extension.
func (s *LocalStore) Save(category, originalName string, r io.Reader) (*StoredFile, error) {
	dir := filepath.Join(s.root, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	id := uuid.NewString()
	name := id + strings.ToLower(filepath.Ext(originalName))

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, r)
	if err != nil {
		os.Remove(dst.Name())
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &StoredFile{
		ID:      id,
		Locator: path.Join(s.urlPrefix, category, name),
		Size:    size,
	}, nil
}
